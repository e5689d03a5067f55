package datasheet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/markscan/markscan/internal/database"
	"github.com/markscan/markscan/internal/model"
)

func testStore(t *testing.T) *database.Store {
	t.Helper()

	s, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

const specJSON = `{
	"part_number": "CY8C29666-24PVXI",
	"manufacturer": "CYPRESS",
	"expected_date_format": "YYWW",
	"valid_countries": ["PHILIPPINES", "THAILAND"],
	"package_naming": "PVXI",
	"expected_line_count": 3
}`

func jsonSource(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(specJSON))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestResolver(t *testing.T, sources ...Source) *Resolver {
	t.Helper()
	return NewResolver(testStore(t), sources, 30*24*time.Hour, WithSourceTimeout(2*time.Second))
}

func TestResolverResolve(t *testing.T) {
	t.Parallel()

	t.Run("resolves from first source and caches", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		srv := jsonSource(t, &calls)

		r := newTestResolver(t, NewHTTPSource("manufacturer", srv.URL, srv.Client()))

		spec, err := r.Resolve(context.Background(), "cy8c29666-24pvxi", "")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if spec.Manufacturer != "CYPRESS" {
			t.Errorf("Manufacturer = %q, want CYPRESS", spec.Manufacturer)
		}
		if spec.PartNumber != "CY8C29666-24PVXI" {
			t.Errorf("PartNumber = %q, want normalized key", spec.PartNumber)
		}

		// A second resolution must be served from the cache.
		if _, err := r.Resolve(context.Background(), "CY8C29666-24PVXI", ""); err != nil {
			t.Fatalf("Resolve() second call error = %v", err)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("source queried %d times, want 1", got)
		}
	})

	t.Run("cascade advances past failing source", func(t *testing.T) {
		t.Parallel()

		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(failing.Close)
		working := jsonSource(t, nil)

		r := newTestResolver(t,
			NewHTTPSource("manufacturer", failing.URL, failing.Client()),
			NewHTTPSource("aggregator", working.URL, working.Client()),
		)

		spec, err := r.Resolve(context.Background(), "CY8C29666-24PVXI", "")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if spec.PackageNaming != "PVXI" {
			t.Errorf("PackageNaming = %q, want PVXI", spec.PackageNaming)
		}
	})

	t.Run("all sources exhausted is SpecUnavailable and cached", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(down.Close)

		r := newTestResolver(t,
			NewHTTPSource("manufacturer", down.URL, down.Client()),
			NewHTTPSource("search", down.URL, down.Client()),
		)

		if _, err := r.Resolve(context.Background(), "FAKE123", ""); !errors.Is(err, ErrSpecUnavailable) {
			t.Fatalf("Resolve() error = %v, want ErrSpecUnavailable", err)
		}
		before := calls.Load()

		// The negative entry short-circuits the second attempt.
		if _, err := r.Resolve(context.Background(), "FAKE123", ""); !errors.Is(err, ErrSpecUnavailable) {
			t.Fatalf("Resolve() second call error = %v, want ErrSpecUnavailable", err)
		}
		if got := calls.Load(); got != before {
			t.Errorf("sources queried again after negative cache entry: %d calls, want %d", got, before)
		}
	})

	t.Run("implausible document advances the cascade", func(t *testing.T) {
		t.Parallel()

		unrelated := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"part_number": "NE555P"}`))
		}))
		t.Cleanup(unrelated.Close)
		working := jsonSource(t, nil)

		r := newTestResolver(t,
			NewHTTPSource("search", unrelated.URL, unrelated.Client()),
			NewHTTPSource("aggregator", working.URL, working.Client()),
		)

		spec, err := r.Resolve(context.Background(), "CY8C29666-24PVXI", "")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if spec.Manufacturer != "CYPRESS" {
			t.Errorf("Manufacturer = %q, want spec from second source", spec.Manufacturer)
		}
	})

	t.Run("concurrent resolutions share one cascade", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		release := make(chan struct{})
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			<-release
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(specJSON))
		}))
		t.Cleanup(slow.Close)

		r := newTestResolver(t, NewHTTPSource("manufacturer", slow.URL, slow.Client()))

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := r.Resolve(context.Background(), "CY8C29666-24PVXI", ""); err != nil {
					t.Errorf("Resolve() error = %v", err)
				}
			}()
		}

		// Give the goroutines time to pile onto the in-flight fetch.
		time.Sleep(100 * time.Millisecond)
		close(release)
		wg.Wait()

		if got := calls.Load(); got != 1 {
			t.Errorf("source queried %d times for concurrent callers, want 1", got)
		}
	})

	t.Run("cancelled caller stops waiting", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		stall := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			cancel()
			<-r.Context().Done()
		}))
		t.Cleanup(stall.Close)

		r := NewResolver(testStore(t),
			[]Source{NewHTTPSource("manufacturer", stall.URL, stall.Client())},
			30*24*time.Hour, WithSourceTimeout(100*time.Millisecond))

		if _, err := r.Resolve(ctx, "LM358N", ""); !errors.Is(err, context.Canceled) {
			t.Fatalf("Resolve() error = %v, want context.Canceled", err)
		}
	})

	t.Run("one caller's cancellation does not abort another's", func(t *testing.T) {
		t.Parallel()

		var once sync.Once
		started := make(chan struct{})
		release := make(chan struct{})
		var calls atomic.Int64
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			once.Do(func() { close(started) })
			<-release
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(specJSON))
		}))
		t.Cleanup(slow.Close)

		r := NewResolver(testStore(t),
			[]Source{NewHTTPSource("manufacturer", slow.URL, slow.Client())},
			30*24*time.Hour, WithSourceTimeout(10*time.Second))

		ctxA, cancelA := context.WithCancel(context.Background())
		defer cancelA()

		aErr := make(chan error, 1)
		go func() {
			_, err := r.Resolve(ctxA, "CY8C29666-24PVXI", "")
			aErr <- err
		}()

		<-started
		cancelA()
		if err := <-aErr; !errors.Is(err, context.Canceled) {
			t.Fatalf("cancelled caller error = %v, want context.Canceled", err)
		}

		// The second caller joins the still-running fetch; the first
		// caller's cancellation must not have torn it down.
		done := make(chan struct{})
		var spec *model.OfficialSpecification
		var bErr error
		go func() {
			defer close(done)
			spec, bErr = r.Resolve(context.Background(), "CY8C29666-24PVXI", "")
		}()

		close(release)
		<-done

		if bErr != nil {
			t.Fatalf("uncancelled caller error = %v, want specification", bErr)
		}
		if spec.Manufacturer != "CYPRESS" {
			t.Errorf("Manufacturer = %q, want CYPRESS", spec.Manufacturer)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("source queried %d times, want the shared fetch to survive", got)
		}
	})

	t.Run("manufacturer hint rejects fuzzy match from another vendor", func(t *testing.T) {
		t.Parallel()

		sibling := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"part_number": "CY8C29666-24PVXE", "manufacturer": "NXP"}`))
		}))
		t.Cleanup(sibling.Close)

		r := newTestResolver(t, NewHTTPSource("search", sibling.URL, sibling.Client()))

		if _, err := r.Resolve(context.Background(), "CY8C29666-24PVXI", "CYPRESS"); !errors.Is(err, ErrSpecUnavailable) {
			t.Fatalf("Resolve() error = %v, want ErrSpecUnavailable for vendor mismatch", err)
		}
	})

	t.Run("empty part number is SpecUnavailable", func(t *testing.T) {
		t.Parallel()

		r := newTestResolver(t)
		if _, err := r.Resolve(context.Background(), "  ", ""); !errors.Is(err, ErrSpecUnavailable) {
			t.Errorf("Resolve() error = %v, want ErrSpecUnavailable", err)
		}
	})
}

func TestPlausibleMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		requested    string
		manufacturer string
		document     string
		docVendor    string
		want         bool
	}{
		{"exact match", "CY8C29666-24PVXI", "", "CY8C29666-24PVXI", "", true},
		{"case and space insensitive", "CY8C29666-24PVXI", "", " cy8c29666-24pvxi ", "", true},
		{"family root containment", "CY8C29666-24PVXI", "", "CY8C29666", "", true},
		{"close revision suffix", "CY8C29666-24PVXI", "", "CY8C29666-24PVXT", "", true},
		{"unrelated part", "CY8C29666-24PVXI", "", "NE555P", "", false},
		{"empty document", "CY8C29666-24PVXI", "", "", "", false},
		{"fuzzy match with agreeing vendor", "CY8C29666-24PVXI", "CYPRESS", "CY8C29666-24PVXT", "Cypress Semiconductor", true},
		{"fuzzy match with other vendor", "CY8C29666-24PVXI", "CYPRESS", "CY8C29666-24PVXT", "NXP", false},
		{"fuzzy match without document vendor", "CY8C29666-24PVXI", "CYPRESS", "CY8C29666-24PVXT", "", true},
		{"exact match overrides other vendor", "CY8C29666-24PVXI", "CYPRESS", "CY8C29666-24PVXI", "NXP", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec := &model.OfficialSpecification{PartNumber: tt.document, Manufacturer: tt.docVendor}
			if got := plausibleMatch(tt.requested, tt.manufacturer, spec); got != tt.want {
				t.Errorf("plausibleMatch(%q, %q, %q/%q) = %v, want %v",
					tt.requested, tt.manufacturer, tt.document, tt.docVendor, got, tt.want)
			}
		})
	}
}
