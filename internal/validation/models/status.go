package models

// Status is the request state machine. Transitions are restricted to the
// edges in the transitions table; the store layer rejects anything else.
type Status string

const (
	StatusReceived     Status = "RECEIVED"
	StatusAnalyzing    Status = "ANALYZING"
	StatusApproved     Status = "APPROVED"
	StatusRejected     Status = "REJECTED"
	StatusManualReview Status = "MANUAL_REVIEW"
	StatusExpired      Status = "EXPIRED"
)

// transitions is the closed set of legal state machine edges.
var transitions = map[Status][]Status{
	StatusReceived:     {StatusAnalyzing, StatusRejected, StatusExpired},
	StatusAnalyzing:    {StatusApproved, StatusRejected, StatusManualReview, StatusExpired},
	StatusManualReview: {StatusApproved, StatusRejected, StatusExpired},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusAnalyzing, StatusApproved, StatusRejected, StatusManualReview, StatusExpired:
		return true
	}
	return false
}
