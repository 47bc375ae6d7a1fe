package harvest

import "regexp"

// DefaultMinBodyLength is the shortest body accepted as a real listing page.
const DefaultMinBodyLength = 500

var challengeRe = regexp.MustCompile(`(?i)cloudflare.*challenge|checking your browser|ray id:|cf-ray`)

// DetectChallenge returns EBLOCKED if body looks like an anti-bot
// interstitial rather than a listing page: it contains a known challenge
// marker or is shorter than minLength bytes. A minLength of zero disables
// the length check.
func DetectChallenge(body string, minLength int) error {
	if challengeRe.MatchString(body) {
		return Errorf(EBLOCKED, "blocked or challenge page detected")
	}
	if minLength > 0 && len(body) < minLength {
		return Errorf(EBLOCKED, "content too short (%d bytes), possibly blocked", len(body))
	}
	return nil
}
