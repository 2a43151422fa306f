package credentials

// Mode selects which request a submission issues.
type Mode int

const (
	// ModeSignUp registers a new account. It is the initial mode of a Flow.
	ModeSignUp Mode = iota
	// ModeLogin signs in to an existing account
	ModeLogin
)

func (m Mode) String() string {
	if m == ModeLogin {
		return "login"
	}
	return "signup"
}

// Other returns the mode a toggle switches to
func (m Mode) Other() Mode {
	if m == ModeLogin {
		return ModeSignUp
	}
	return ModeLogin
}
