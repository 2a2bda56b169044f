package gateway

// State is a step of the retry-once cycle run by Fetch
type State int

const (
	// StateInitial sends the request with the stored access token
	StateInitial State = iota
	// StateRetrying refreshes the access token and sends the request once more
	StateRetrying
	// StateDone has a response to hand back
	StateDone
	// StateFailed ends the call with an invalid session
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateRetrying:
		return "retrying"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Outcome is what one step observed
type Outcome int

const (
	// OutcomeSettled means the response did not signal an expired token
	OutcomeSettled Outcome = iota
	// OutcomeExpired means a 401 or the invalid-token code came back
	OutcomeExpired
	// OutcomeRefreshFailed means no new access token could be obtained
	OutcomeRefreshFailed
)

// Next returns the state after observing o in s. Retrying is entered at most
// once per call because an expired response while retrying fails the call.
func Next(s State, o Outcome) State {
	switch s {
	case StateInitial:
		switch o {
		case OutcomeSettled:
			return StateDone
		case OutcomeExpired:
			return StateRetrying
		}
		return StateFailed
	case StateRetrying:
		if o == OutcomeSettled {
			return StateDone
		}
		return StateFailed
	}
	return s
}
