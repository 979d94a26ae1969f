package session

const (
	RouteSignIn = "/"
	RouteSignUp = "/signup"
	RouteTasks  = "/tasks"
	RouteUsers  = "/users"
)

var publicRoutes = map[string]bool{
	RouteSignIn: true,
	RouteSignUp: true,
}

// Guard gates protected routes on having an access token.
func (s *Session) Guard(route string) error {
	if publicRoutes[route] || s.Authenticated() {
		return nil
	}
	return ErrSignInRequired
}

// Landing returns where a user should start given the current session.
func (s *Session) Landing() string {
	if s.Authenticated() {
		return RouteTasks
	}
	return RouteSignIn
}
