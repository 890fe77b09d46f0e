package domain

// SessionState is where the client sits in the authentication lifecycle.
type SessionState int

const (
	// SessionAnonymous has no authenticated subject.
	SessionAnonymous SessionState = iota
	// SessionChecking is transient while the session probe is in flight.
	// Protected views must render a placeholder in this state.
	SessionChecking
	// SessionAuthenticated has a known subject.
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionChecking:
		return "checking"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}
