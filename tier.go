package harvest

import (
	"strings"
	"time"
)

// Tier holds the default pacing and time limits for a deployment.
type Tier struct {
	Name              string
	PerRequestTimeout time.Duration
	InterRequestDelay time.Duration
	Budget            time.Duration
}

// Deployment tiers. Production runs under a short serverless execution
// limit, so it trades throughput for fitting inside the budget.
var (
	TierProduction = Tier{
		Name:              "production",
		PerRequestTimeout: 5 * time.Second,
		InterRequestDelay: 500 * time.Millisecond,
		Budget:            8 * time.Second,
	}
	TierLocal = Tier{
		Name:              "local",
		PerRequestTimeout: 10 * time.Second,
		InterRequestDelay: time.Second,
		Budget:            30 * time.Second,
	}
)

// LookupTier returns the tier with the given name.
// Returns EINVALID for unknown names.
func LookupTier(name string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", TierLocal.Name:
		return TierLocal, nil
	case TierProduction.Name, "prod":
		return TierProduction, nil
	}
	return Tier{}, Errorf(EINVALID, "unknown tier %q (want %q or %q)", name, TierLocal.Name, TierProduction.Name)
}
