package state

// reduceSession is the session slice reducer. Total and pure: it never
// fails, never touches I/O, and passes unknown transitions through.
func reduceSession(s SessionState, t Transition) SessionState {
	switch t := t.(type) {
	case Login:
		sess := t.Session
		return SessionState{Session: &sess}

	case Logout:
		s.Session = nil
		return s

	case LoginStart, SignupStart:
		s.Error = ""
		s.Loading = true
		return s

	case LoginFail:
		return SessionState{Error: t.Message}

	default:
		return s
	}
}
