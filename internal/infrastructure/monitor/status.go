package monitor

import "time"

// CheckResult is the outcome of one named probe.
type CheckResult struct {
	Online bool   `json:"online"`
	Error  string `json:"error,omitempty"`
}

type Status struct {
	Checks    map[string]CheckResult `json:"checks"`
	LastCheck time.Time              `json:"last_check"`
}

// Healthy reports whether every probe succeeded on the last run.
// A monitor that has never run is not healthy.
func (s Status) Healthy() bool {
	if s.LastCheck.IsZero() {
		return false
	}
	for _, check := range s.Checks {
		if !check.Online {
			return false
		}
	}
	return true
}
