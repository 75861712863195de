// Package scoring fuses collected evidence into a classified verdict.
//
// The Engine evaluates a fixed, ordered rule table exactly once per pass.
// Every rule appends one model.CheckResult to the audit trail; a failing
// rule with a positive weight also adds its weight to the score and its
// reason to the reasons list. Some rules lower reliability when evidence
// is missing. The verdict is derived from the score and reliability:
//
//	!reliable && score == 0  -> Unreliable detection
//	score >= 6               -> VPN detected
//	score >= 4               -> VPN likely
//	otherwise                -> VPN not detected
//
// The engine holds no per-pass state. The previous fingerprint digest is
// passed in and the current one is returned for the caller to persist.
package scoring
