package audit

import "time"

// Event records one authorization decision. Keep it transport-agnostic so
// sinks can fan out.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	ClientID    string    `json:"clientId"`
	PrincipalID string    `json:"principalId"`
	Action      string    `json:"action"`
	Decision    string    `json:"decision"`
	PolicyIDs   []string  `json:"policyIds,omitempty"`
}
