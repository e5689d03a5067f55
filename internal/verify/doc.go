// Package verify scores a structured marking against the official
// specification and classifies the component's authenticity.
//
// The engine runs six fixed weighted checks (part number, manufacturer,
// date code, country, print quality, marking format) whose weights must
// sum to exactly 1.0; this is validated at startup, never at analysis
// time. Confidence is the weighted sum scaled to [0,100].
//
// Two policies shape the verdict beyond the weighted sum:
//   - When the specification is unavailable, checks that depend on it
//     score neutrally at 0.5. Absence of authoritative data is
//     inconclusive evidence, not proof of either authenticity or forgery.
//   - A marking with no date code at all forces the Counterfeit
//     classification regardless of confidence, because every legitimately
//     marked component carries some date code. An invalid-but-present
//     date code merely scores low; only total absence overrides.
package verify
