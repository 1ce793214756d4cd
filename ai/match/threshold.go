package match

// ThresholdForTurn returns the recommended similarity threshold for a
// conversation turn. Early exchanges are heavily templated
// (greetings, self-introductions), so variable phrasing is more likely
// and a lower bar pays off; later turns demand a stricter match.
//
// This is caller-side policy, not engine behavior: pass the result
// into Engine.Find.
func ThresholdForTurn(turn int) float64 {
	switch {
	case turn <= 1:
		return 0.70
	case turn <= 4:
		return 0.75
	default:
		return 0.85
	}
}
