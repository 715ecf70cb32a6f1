package session

import "sync"

// Routes the guards navigate to.
const (
	RouteHome   = "/"
	RouteAdmin  = "/admin"
	RouteUpload = "/upload"
)

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

// Navigate calls f(route).
func (f NavigatorFunc) Navigate(route string) { f(route) }

// Recorder is a Navigator that remembers every route it was sent to.
type Recorder struct {
	mu     sync.Mutex
	routes []string
}

// Navigate records route.
func (r *Recorder) Navigate(route string) {
	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
}

// Routes returns a copy of the recorded routes in order.
func (r *Recorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

// Last returns the most recent route, or "" if none.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}
