package authapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount in the auth API module.
type RouterOptions struct {
	Session Mountable
}

// Router creates the auth API router.
//
// Example:
//
//	recorder := authapi.NewRouteRecorder()
//	mgr, _ := authstate.New(provider, checker, profileStore, shadowStore,
//	    authstate.WithNavigator(recorder))
//	svc := authapi.NewService(mgr, authapi.WithRouteRecorder(recorder))
//
//	r := chi.NewRouter()
//	r.Mount("/api/auth", authapi.Router(authapi.RouterOptions{Session: svc}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.Session != nil {
		r.Mount("/session", opts.Session.Handle())
	}

	return r
}
