// ABOUTME: Route authorization guard mapping (path, session) to render or redirect
// ABOUTME: Pure and total so every view and command shares the same gating

package router

import (
	"strings"

	"github.com/markalston/crediteval/internal/client"
)

// Paths
const (
	Root      = "/"
	Login     = "/login"
	Register  = "/register"
	Dashboard = "/dashboard"
	Evaluate  = "/evaluate"
	Admin     = "/admin"

	resultPrefix = "/result/"
)

// Route identifies a view
type Route int

const (
	RouteRoot Route = iota
	RouteLogin
	RouteRegister
	RouteDashboard
	RouteEvaluate
	RouteResult
	RouteAdmin
)

func (r Route) String() string {
	switch r {
	case RouteLogin:
		return "login"
	case RouteRegister:
		return "register"
	case RouteDashboard:
		return "dashboard"
	case RouteEvaluate:
		return "evaluate"
	case RouteResult:
		return "result"
	case RouteAdmin:
		return "admin"
	default:
		return "root"
	}
}

// Location is a parsed path. ID is set only for RouteResult.
type Location struct {
	Route Route
	ID    client.ID
}

// Path renders the location back to its canonical path
func (l Location) Path() string {
	switch l.Route {
	case RouteLogin:
		return Login
	case RouteRegister:
		return Register
	case RouteDashboard:
		return Dashboard
	case RouteEvaluate:
		return Evaluate
	case RouteResult:
		return ResultPath(l.ID)
	case RouteAdmin:
		return Admin
	default:
		return Root
	}
}

// ResultPath builds the path of a result view
func ResultPath(id client.ID) string {
	return resultPrefix + id.String()
}

// Parse maps a path to a location. Unknown paths and /result/ without an id
// map to the root.
func Parse(path string) Location {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}

	switch path {
	case Login:
		return Location{Route: RouteLogin}
	case Register:
		return Location{Route: RouteRegister}
	case Dashboard:
		return Location{Route: RouteDashboard}
	case Evaluate:
		return Location{Route: RouteEvaluate}
	case Admin:
		return Location{Route: RouteAdmin}
	}

	if id, ok := strings.CutPrefix(path, resultPrefix); ok && id != "" && !strings.Contains(id, "/") {
		return Location{Route: RouteResult, ID: client.ID(id)}
	}
	return Location{Route: RouteRoot}
}

// Action is what the guard decided
type Action int

const (
	Render Action = iota
	Redirect
)

// Outcome is the guard's decision. Target is set for redirects.
type Outcome struct {
	Action   Action
	Location Location
	Target   string
}

// Home returns the landing path for a role
func Home(role client.Role) string {
	if role == client.RoleAdmin {
		return Admin
	}
	return Dashboard
}

// Decide is the route authorization guard. A nil session means logged out.
// Every redirect target renders for the same session.
func Decide(path string, sess *Session) Outcome {
	loc := Parse(path)

	if sess == nil {
		switch loc.Route {
		case RouteLogin, RouteRegister:
			return render(loc)
		default:
			return redirect(Login)
		}
	}

	role := sess.Role.OrDefault()
	switch loc.Route {
	case RouteRoot, RouteLogin, RouteRegister:
		return redirect(Home(role))
	case RouteDashboard:
		if role == client.RoleAdmin {
			return redirect(Admin)
		}
		return render(loc)
	case RouteAdmin:
		if role != client.RoleAdmin {
			return redirect(Dashboard)
		}
		return render(loc)
	default:
		return render(loc)
	}
}

// Resolve follows redirects until a view renders
func Resolve(path string, sess *Session) Location {
	for range 3 {
		out := Decide(path, sess)
		if out.Action == Render {
			return out.Location
		}
		path = out.Target
	}
	return Parse(Login)
}

// Session is the guard's view of who is logged in
type Session struct {
	Role client.Role
}

func render(loc Location) Outcome {
	return Outcome{Action: Render, Location: loc}
}

func redirect(target string) Outcome {
	return Outcome{Action: Redirect, Location: Parse(target), Target: target}
}
