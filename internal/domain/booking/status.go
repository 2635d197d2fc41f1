package booking

import "fmt"

// Status is persisted and read by external systems; the token set below is a
// wire contract and must stay lower_snake_case.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCompleted  Status = "completed"
)

// transitions is the closed transition table. Initialized once, never
// mutated; a status with an empty row is terminal. Resubmission of a rejected
// booking is modeled as a brand-new booking, not a rejected->pending edge.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled, StatusRejected},
	StatusCheckedIn:  {StatusCheckedOut},
	StatusCheckedOut: {StatusCompleted},
	StatusRejected:   {},
	StatusCancelled:  {},
	StatusCompleted:  {},
}

// blocking marks statuses that hold calendar availability for their units.
var blocking = map[Status]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusCheckedIn: true,
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("booking: unknown status %q", raw)
	}
	return s, nil
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition is a pure lookup against the transition table.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// LegalDestinations returns a copy of the allowed destinations for a status.
func LegalDestinations(from Status) []Status {
	row := transitions[from]
	out := make([]Status, len(row))
	copy(out, row)
	return out
}

// IsTerminal is true when the status has no outgoing transitions.
func IsTerminal(s Status) bool {
	return s.Valid() && len(transitions[s]) == 0
}

// IsBlocking is true when bookings in this status reserve their units' dates.
func IsBlocking(s Status) bool {
	return blocking[s]
}

// BlockingStatuses lists every status that holds calendar availability.
func BlockingStatuses() []Status {
	out := make([]Status, 0, len(blocking))
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCheckedIn} {
		out = append(out, s)
	}
	return out
}
