package nav

import "testing"

func TestParseRoute(t *testing.T) {
	cases := map[string]Navigator{
		"search?q=type%3Aexpense": NavigatorSearch,
		"/search/view/r1":         NavigatorSearch,
		"r/123":                   NavigatorReport,
		"workspaces/p1/tags":      NavigatorWorkspace,
		"home":                    NavigatorHome,
	}
	for path, want := range cases {
		if got := ParseRoute(path).Navigator; got != want {
			t.Fatalf("ParseRoute(%q).Navigator = %q, want %q", path, got, want)
		}
	}
}

func TestStack_GoBack(t *testing.T) {
	s := NewStack(TagsRoute("p1"), ReportRoute("r1"))
	if !s.GoBack() {
		t.Fatalf("expected GoBack to pop")
	}
	if s.GoBack() {
		t.Fatalf("expected GoBack to keep the last route")
	}
	top, _ := s.Top()
	if top.Path != "workspaces/p1/tags" {
		t.Fatalf("top = %q", top.Path)
	}
}

func TestStack_GoBackTo(t *testing.T) {
	s := NewStack(SearchRoot("a"), TagsRoute("p1"), ReportRoute("r1"))
	s.GoBackTo(SearchRoot("a"))
	if s.Len() != 1 {
		t.Fatalf("expected pop to existing route, got %v", s.Routes())
	}

	s = NewStack(SearchReportRoute("r1"))
	s.GoBackTo(SearchRoot(CannedSearchQuery("p1")))
	top, _ := s.Top()
	if s.Len() != 1 || top.Navigator != NavigatorSearch || top.Path != "search?q=type%3Aexpense+policyID%3Ap1" {
		t.Fatalf("unexpected stack: %v", s.Routes())
	}
}

func TestReportIDFromPath(t *testing.T) {
	for path, want := range map[string]string{"r/42": "42", "search/view/7": "7"} {
		got, ok := ReportIDFromPath(path)
		if !ok || got != want {
			t.Fatalf("ReportIDFromPath(%q) = %q, %v", path, got, ok)
		}
	}
	if _, ok := ReportIDFromPath("workspaces/p1/tags"); ok {
		t.Fatalf("expected no report id")
	}
}

func TestCannedSearchQuery(t *testing.T) {
	if got := CannedSearchQuery(""); got != "type:expense" {
		t.Fatalf("got %q", got)
	}
}
