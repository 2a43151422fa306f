package credentials

// User-facing notices
const (
	MsgEmailRequired     = "Please enter your email"
	MsgEmailInvalid      = "Please enter a valid email"
	MsgPasswordRequired  = "Please enter your password"
	MsgPasswordTooShort  = "Password must be at least 6 characters"
	MsgFullNameRequired  = "Please enter your full name"
	MsgIncorrectLogin    = "Incorrect email or password"
	MsgAlreadyRegistered = "This email is already registered"
	MsgWelcomeBack       = "Welcome back!"
	MsgAccountCreated    = "Account created! Check your email to confirm."
	MsgGenericFailure    = "Something went wrong. Please try again."
)
