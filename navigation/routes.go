package navigation

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// RouteMain is the personalized page, only shown with a session
	RouteMain = "/"

	// RouteAuth is the credential entry page (sign in and sign up)
	RouteAuth = "/auth"
)
