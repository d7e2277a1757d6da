// Package nav keeps the route stack the TUI walks through and the back
// navigation rules shared by the report and tags screens.
package nav

import (
	"net/url"
	"strings"
)

// Navigator groups routes the way the app shell does.
type Navigator string

const (
	NavigatorSearch    Navigator = "search"
	NavigatorReport    Navigator = "report"
	NavigatorWorkspace Navigator = "workspace"
	NavigatorHome      Navigator = "home"
)

type Route struct {
	Navigator Navigator `json:"navigator"`
	Path      string    `json:"path"`
}

// ParseRoute infers the navigator from a route path.
func ParseRoute(path string) Route {
	path = strings.TrimPrefix(strings.TrimSpace(path), "/")
	switch {
	case path == "search" || strings.HasPrefix(path, "search?") || strings.HasPrefix(path, "search/"):
		return Route{Navigator: NavigatorSearch, Path: path}
	case strings.HasPrefix(path, "r/"):
		return Route{Navigator: NavigatorReport, Path: path}
	case strings.HasPrefix(path, "workspaces/"):
		return Route{Navigator: NavigatorWorkspace, Path: path}
	default:
		return Route{Navigator: NavigatorHome, Path: path}
	}
}

func ReportRoute(reportID string) Route {
	return Route{Navigator: NavigatorReport, Path: "r/" + reportID}
}

// SearchReportRoute is a report opened from the search results.
func SearchReportRoute(reportID string) Route {
	return Route{Navigator: NavigatorSearch, Path: "search/view/" + reportID}
}

func TagsRoute(policyID string) Route {
	return Route{Navigator: NavigatorWorkspace, Path: "workspaces/" + policyID + "/tags"}
}

func SearchRoot(query string) Route {
	return Route{Navigator: NavigatorSearch, Path: "search?q=" + url.QueryEscape(query)}
}

// CannedSearchQuery is the default expense search, scoped to policyID when set.
func CannedSearchQuery(policyID string) string {
	q := "type:expense"
	if strings.TrimSpace(policyID) != "" {
		q += " policyID:" + policyID
	}
	return q
}

// ReportIDFromPath extracts the report id from r/<id> and search/view/<id>.
func ReportIDFromPath(path string) (string, bool) {
	path = strings.TrimPrefix(path, "/")
	for _, prefix := range []string{"r/", "search/view/"} {
		if id, ok := strings.CutPrefix(path, prefix); ok && id != "" && !strings.Contains(id, "/") {
			return id, true
		}
	}
	return "", false
}

// Stack is the root route stack; the last route is on top.
type Stack struct {
	routes []Route
}

func NewStack(routes ...Route) *Stack {
	return &Stack{routes: append([]Route(nil), routes...)}
}

func (s *Stack) Len() int { return len(s.routes) }

func (s *Stack) Routes() []Route { return append([]Route(nil), s.routes...) }

func (s *Stack) Top() (Route, bool) {
	if len(s.routes) == 0 {
		return Route{}, false
	}
	return s.routes[len(s.routes)-1], true
}

func (s *Stack) Push(r Route) {
	s.routes = append(s.routes, r)
}

// GoBack pops the top route. The last route is never popped.
func (s *Stack) GoBack() bool {
	if len(s.routes) < 2 {
		return false
	}
	s.routes = s.routes[:len(s.routes)-1]
	return true
}

// GoBackTo pops to r when it is on the stack, otherwise replaces the top with it.
func (s *Stack) GoBackTo(r Route) {
	for i := len(s.routes) - 1; i >= 0; i-- {
		if s.routes[i].Path == r.Path {
			s.routes = s.routes[:i+1]
			return
		}
	}
	if len(s.routes) == 0 {
		s.routes = []Route{r}
		return
	}
	s.routes[len(s.routes)-1] = r
}
