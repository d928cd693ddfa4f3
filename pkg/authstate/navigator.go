package authstate

// Intended destinations signaled after sign-in completion and logout.
// The manager signals these through the Navigator; it never performs
// navigation itself.
const (
	RouteDashboard         = "/dashboard"
	RouteEmailConfirmation = "/email-confirmation"
	RouteAuth              = "/auth"
)

// Navigator receives the manager's navigation signals.
type Navigator interface {
	NavigateTo(route string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(route string)

func (f NavigatorFunc) NavigateTo(route string) {
	f(route)
}

type noopNavigator struct{}

func (noopNavigator) NavigateTo(string) {}
