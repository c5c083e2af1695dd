package booking

// allowedTransitions is the booking lifecycle. pending is the only initial
// status; completed and cancelled are terminal.
var allowedTransitions = map[Status][]Status{
	StatusPending:  {StatusUpcoming, StatusCancelled},
	StatusUpcoming: {StatusOngoing},
	StatusOngoing:  {StatusCompleted},
}

var allowedTransitionSet = buildTransitionSet(allowedTransitions)

func buildTransitionSet(transitions map[Status][]Status) map[Status]map[Status]struct{} {
	set := make(map[Status]map[Status]struct{}, len(transitions))
	for from, tos := range transitions {
		next := make(map[Status]struct{}, len(tos))
		for _, to := range tos {
			next[to] = struct{}{}
		}
		set[from] = next
	}
	return set
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can leave s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsActive reports whether a booking in s holds its vehicle.
func (s Status) IsActive() bool {
	return s == StatusUpcoming || s == StatusOngoing
}

// CanTransition checks if a booking may move from one status to another.
func CanTransition(from, to Status) bool {
	next, ok := allowedTransitionSet[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// Transition returns ErrInvalidTransition unless from -> to is allowed.
func Transition(from, to Status) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}

// CanPlaceInOpenMarket checks the guard of the open-market flag mutation.
// It is not a status transition: the status stays pending.
func CanPlaceInOpenMarket(b *Booking) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	if b.InOpenMarket {
		return ErrAlreadyInOpenMarket
	}
	return nil
}
