// Package session decides whether the current session may enter a view.
package session

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"skinscan-client/internal/backend"
	"skinscan-client/internal/metrics"
)

// StatusChecker answers the two session questions the guards ask.
// *backend.Client implements it.
type StatusChecker interface {
	IsLoggedIn(ctx context.Context) (backend.SessionStatus, error)
	IsAdmin(ctx context.Context) (backend.AdminStatus, error)
}

// Decision is the outcome of a guard run.
type Decision string

const (
	// DecisionAllow lets the caller continue; no navigation happened.
	DecisionAllow Decision = "allow"
	// DecisionRedirectHome sent the user to RouteHome.
	DecisionRedirectHome Decision = "redirect_home"
	// DecisionRedirectAdmin sent the user to RouteAdmin.
	DecisionRedirectAdmin Decision = "redirect_admin"
	// DecisionRedirectUpload sent the user to RouteUpload.
	DecisionRedirectUpload Decision = "redirect_upload"
	// DecisionStay means the user is not logged in or the check failed; no navigation.
	DecisionStay Decision = "stay"
	// DecisionSkipped means LoggedInRedirect already ran; no network call was made.
	DecisionSkipped Decision = "skipped"
)

const (
	guardRoute    = "route_guard"
	guardRedirect = "logged_in_redirect"
)

// Guard runs the session checks and navigates on their outcome.
// Guards never return errors; every failure resolves to a Decision.
type Guard struct {
	checker StatusChecker
	nav     Navigator
	logger  *slog.Logger
	metrics *metrics.Metrics

	// checked is the one-shot state of LoggedInRedirect. gen is bumped by
	// Reset so an in-flight run started before it does not mark the new
	// generation as checked.
	mu      sync.Mutex
	checked bool
	gen     uint64
	flight  singleflight.Group
}

// NewGuard returns a guard asking checker and navigating through nav.
func NewGuard(checker StatusChecker, nav Navigator, logger *slog.Logger, m *metrics.Metrics) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		checker: checker,
		nav:     nav,
		logger:  logger,
		metrics: m,
	}
}

// RouteGuard protects a view. It redirects home when the session is not
// logged in, when adminCheck is set and the user is not an admin, or when
// either check fails. The admin check is only issued after the session check
// confirms login.
func (g *Guard) RouteGuard(ctx context.Context, adminCheck bool) Decision {
	d := g.routeGuard(ctx, adminCheck)
	g.metrics.RecordGuardDecision(guardRoute, string(d))
	return d
}

func (g *Guard) routeGuard(ctx context.Context, adminCheck bool) Decision {
	st, err := g.checker.IsLoggedIn(ctx)
	if err != nil {
		g.logger.Error("session check failed", "err", err)
		return g.redirect(RouteHome, DecisionRedirectHome)
	}
	if !st.LoggedIn {
		return g.redirect(RouteHome, DecisionRedirectHome)
	}
	if !adminCheck {
		return DecisionAllow
	}

	adm, err := g.checker.IsAdmin(ctx)
	if err != nil {
		g.logger.Error("admin check failed", "err", err)
		return g.redirect(RouteHome, DecisionRedirectHome)
	}
	if !adm.Admin {
		return g.redirect(RouteHome, DecisionRedirectHome)
	}
	return DecisionAllow
}

// LoggedInRedirect forwards an authenticated user to the admin dashboard or
// the upload page. It runs its checks at most once until Reset; later calls
// return DecisionSkipped without touching the network. Concurrent first calls
// share a single run and its decision.
func (g *Guard) LoggedInRedirect(ctx context.Context) Decision {
	g.mu.Lock()
	if g.checked {
		g.mu.Unlock()
		g.metrics.RecordGuardDecision(guardRedirect, string(DecisionSkipped))
		return DecisionSkipped
	}
	g.mu.Unlock()

	v, _, _ := g.flight.Do(guardRedirect, func() (any, error) {
		return g.runRedirect(ctx), nil
	})
	d := v.(Decision)
	g.metrics.RecordGuardDecision(guardRedirect, string(d))
	return d
}

// runRedirect is the body of one flight. A caller that passed the fast-path
// check while a previous flight was finishing sees the flag here.
func (g *Guard) runRedirect(ctx context.Context) Decision {
	g.mu.Lock()
	if g.checked {
		g.mu.Unlock()
		return DecisionSkipped
	}
	gen := g.gen
	g.mu.Unlock()

	defer g.markChecked(gen)
	return g.loggedInRedirect(ctx)
}

func (g *Guard) loggedInRedirect(ctx context.Context) Decision {
	st, err := g.checker.IsLoggedIn(ctx)
	if err != nil {
		g.logRedirectError(err)
		return DecisionStay
	}
	if !st.LoggedIn {
		return DecisionStay
	}

	adm, err := g.checker.IsAdmin(ctx)
	if err != nil {
		g.logRedirectError(err)
		return DecisionStay
	}
	if adm.Admin {
		return g.redirect(RouteAdmin, DecisionRedirectAdmin)
	}
	return g.redirect(RouteUpload, DecisionRedirectUpload)
}

// logRedirectError keeps the expected 401 of an anonymous session out of
// the error log.
func (g *Guard) logRedirectError(err error) {
	if backend.IsUnauthorized(err) {
		g.logger.Debug("session not authenticated", "err", err)
		return
	}
	g.logger.Error("unexpected error during logged-in redirect", "err", err)
}

func (g *Guard) markChecked(gen uint64) {
	g.mu.Lock()
	if g.gen == gen {
		g.checked = true
	}
	g.mu.Unlock()
}

// Checked reports whether LoggedInRedirect has completed since the last Reset.
func (g *Guard) Checked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checked
}

// Reset clears the one-shot state so the next LoggedInRedirect runs again.
// Call it after logout or login.
func (g *Guard) Reset() {
	g.mu.Lock()
	g.checked = false
	g.gen++
	g.mu.Unlock()
	g.flight.Forget(guardRedirect)
}

func (g *Guard) redirect(route string, d Decision) Decision {
	g.logger.Debug("guard redirect", "route", route)
	g.nav.Navigate(route)
	return d
}
