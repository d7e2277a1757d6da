package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"expense-cli/internal/model"
	"expense-cli/internal/mutate"
	"expense-cli/internal/remote"
	"expense-cli/internal/store"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	return runCLIInput(t, "", args)
}

func runCLIInput(t *testing.T, stdin string, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func mustRun(t *testing.T, args ...string) map[string]any {
	t.Helper()
	out, errOut, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("%v: %v\nstderr:\n%s", args, err, string(errOut))
	}
	return decode(t, out)
}

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, string(b))
	}
	return env
}

// seededWorkspace isolates the config home and creates a workspace with policy
// p1 and report r1.
func seededWorkspace(t *testing.T, seedArgs ...string) (home, dir string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("EXPENSE_HOME", home)
	t.Setenv("EXPENSE_DIR", "")
	t.Setenv("EXPENSE_NO_SYNC", "")
	dir = t.TempDir()

	mustRun(t, "--dir", dir, "init", "--email", "owner@example.com")
	mustRun(t, append([]string{"--dir", dir, "seed", "--policy-id", "p1", "--report-id", "r1"}, seedArgs...)...)
	return home, dir
}

func tagItems(t *testing.T, dir string) []map[string]any {
	t.Helper()
	env := mustRun(t, "--dir", dir, "tags", "list", "--policy", "p1")
	data := env["data"].(map[string]any)
	raw := data["items"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		out = append(out, it.(map[string]any))
	}
	return out
}

func tagItem(t *testing.T, dir, name string) map[string]any {
	t.Helper()
	for _, it := range tagItems(t, dir) {
		if it["value"] == name {
			return it
		}
	}
	t.Fatalf("tag %q not listed", name)
	return nil
}

func TestInit_WritesSessionAndOutputsDir(t *testing.T) {
	t.Setenv("EXPENSE_HOME", t.TempDir())
	dir := t.TempDir()

	env := mustRun(t, "--dir", dir, "init", "--email", "me@example.com")
	data := env["data"].(map[string]any)
	if data["dir"] != dir || data["email"] != "me@example.com" {
		t.Fatalf("unexpected init data: %#v", data)
	}
	if _, err := os.Stat(data["sqlitePath"].(string)); err != nil {
		t.Fatalf("expected sqlite file: %v", err)
	}
}

func TestSeed_RequiresEmail(t *testing.T) {
	t.Setenv("EXPENSE_HOME", t.TempDir())
	dir := t.TempDir()
	if _, _, err := runCLI(t, []string{"--dir", dir, "seed"}); err == nil {
		t.Fatalf("expected error without a session email")
	}
}

func TestTagsList_SortedForLocale(t *testing.T) {
	_, dir := seededWorkspace(t)

	var texts []string
	for _, it := range tagItems(t, dir) {
		texts = append(texts, it["text"].(string))
	}
	want := []string{"Audit", "Engineering", "Item 2", "Item 10", "Sales", "Travel: Air"}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Fatalf("order mismatch\n got: %v\nwant: %v", texts, want)
	}
}

func TestTagsList_SelectionDerivesBulkActions(t *testing.T) {
	_, dir := seededWorkspace(t)

	env := mustRun(t, "--dir", dir, "tags", "list", "--policy", "p1", "--select", "Audit", "--select", "Sales")
	meta := env["meta"].(map[string]any)
	actions := meta["bulkActions"].([]any)
	if len(actions) != 3 {
		t.Fatalf("expected delete/disable/enable, got %#v", actions)
	}
	var kinds []string
	for _, a := range actions {
		kinds = append(kinds, a.(map[string]any)["kind"].(string))
	}
	if strings.Join(kinds, ",") != "delete,disable,enable" {
		t.Fatalf("unexpected kinds: %v", kinds)
	}
	if got := meta["selectedLabel"]; got != "2 selected" {
		t.Fatalf("selectedLabel = %v", got)
	}
	if got := actions[1].(map[string]any)["label"]; got != "Disable tag" {
		t.Fatalf("disable label = %v", got)
	}
}

func TestTagsSelectAll_TogglesAll(t *testing.T) {
	_, dir := seededWorkspace(t)

	env := mustRun(t, "--dir", dir, "tags", "select-all", "--policy", "p1")
	selected := env["data"].(map[string]any)["selected"].([]any)
	if len(selected) != 6 {
		t.Fatalf("expected all 6 tags selected, got %v", selected)
	}

	args := []string{"--dir", dir, "tags", "select-all", "--policy", "p1"}
	for _, s := range selected {
		args = append(args, "--select", s.(string))
	}
	env = mustRun(t, args...)
	if got := env["data"].(map[string]any)["selected"].([]any); len(got) != 0 {
		t.Fatalf("expected selection cleared, got %v", got)
	}
}

func TestTagsDisable_QueuesUntilSync(t *testing.T) {
	_, dir := seededWorkspace(t)

	mustRun(t, "--dir", dir, "--no-sync", "tags", "disable", "--policy", "p1", "Audit")
	audit := tagItem(t, dir, "Audit")
	if audit["enabled"] != false || audit["pendingAction"] != string(model.PendingUpdate) {
		t.Fatalf("expected optimistic pending update, got %#v", audit)
	}

	st := mustRun(t, "--dir", dir, "sync", "status")
	if got := st["meta"].(map[string]any)["count"]; got != float64(1) {
		t.Fatalf("expected 1 queued request, got %v", got)
	}

	res := mustRun(t, "--dir", dir, "sync")
	if got := res["data"].(map[string]any)["succeeded"]; got != float64(1) {
		t.Fatalf("expected 1 success, got %#v", res["data"])
	}
	audit = tagItem(t, dir, "Audit")
	if _, pending := audit["pendingAction"]; pending || audit["enabled"] != false {
		t.Fatalf("expected settled disabled tag, got %#v", audit)
	}
}

func TestTagsEnable_AutoSyncsAfterWrite(t *testing.T) {
	_, dir := seededWorkspace(t)

	mustRun(t, "--dir", dir, "tags", "enable", "--policy", "p1", "Sales")
	st := mustRun(t, "--dir", dir, "sync", "status")
	if got := st["meta"].(map[string]any)["count"]; got != float64(0) {
		t.Fatalf("expected outbox drained, got %v", got)
	}
	if sales := tagItem(t, dir, "Sales"); sales["enabled"] != true {
		t.Fatalf("expected Sales enabled, got %#v", sales)
	}
}

func TestTagsDisable_RemoteFailureRestores(t *testing.T) {
	home, dir := seededWorkspace(t)

	srv := remote.NewServer(remote.ServerConfig{Fail: []string{mutate.CommandSetTagsEnabled}})
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()
	cfg := "remote:\n  endpoint: " + hs.URL + "\n"
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	mustRun(t, "--dir", dir, "tags", "disable", "--policy", "p1", "Audit")
	audit := tagItem(t, dir, "Audit")
	if audit["enabled"] != true {
		t.Fatalf("expected failure to restore enabled, got %#v", audit)
	}
	if errs, _ := audit["errors"].(map[string]any); len(errs) != 1 {
		t.Fatalf("expected one error, got %#v", audit["errors"])
	}

	mustRun(t, "--dir", dir, "tags", "clear-errors", "--policy", "p1", "Audit")
	if errs, _ := tagItem(t, dir, "Audit")["errors"].(map[string]any); len(errs) != 0 {
		t.Fatalf("expected errors cleared, got %#v", errs)
	}
	if got := srv.Commands(); len(got) != 1 || got[0] != mutate.CommandSetTagsEnabled {
		t.Fatalf("unexpected remote commands: %v", got)
	}
}

func TestTagsDelete(t *testing.T) {
	_, dir := seededWorkspace(t)

	mustRun(t, "--dir", dir, "tags", "delete", "--policy", "p1", "Sales")
	for _, it := range tagItems(t, dir) {
		if it["value"] == "Sales" {
			t.Fatalf("expected Sales removed after sync")
		}
	}
}

func TestTagsDelete_UnavailableForMultiLevelTags(t *testing.T) {
	_, dir := seededWorkspace(t, "--multi-level")

	_, _, err := runCLI(t, []string{"--dir", dir, "tags", "delete", "--policy", "p1", "Sales"})
	if err == nil {
		t.Fatalf("expected delete to be refused")
	}
	if _, ok := err.(bulkUnavailableError); !ok {
		t.Fatalf("expected bulkUnavailableError, got %T: %v", err, err)
	}
}

func TestTagsRequire_ClearedWhenNothingEnabled(t *testing.T) {
	_, dir := seededWorkspace(t)

	mustRun(t, "--dir", dir, "tags", "require", "--policy", "p1", "on")
	mustRun(t, "--dir", dir, "tags", "disable", "--policy", "p1", "Audit", "Engineering", `Travel\: Air`, "Item 2", "Item 10")

	env := mustRun(t, "--dir", dir, "tags", "list", "--policy", "p1")
	req := env["data"].(map[string]any)["required"].(map[string]any)
	if req["active"] != false || req["disabled"] != true {
		t.Fatalf("expected required off and locked, got %#v", req)
	}

	if _, _, err := runCLI(t, []string{"--dir", dir, "tags", "require", "--policy", "p1", "on"}); err == nil {
		t.Fatalf("expected require on to fail with no enabled tags")
	}
}

func TestTags_UnknownPolicy(t *testing.T) {
	_, dir := seededWorkspace(t)

	_, _, err := runCLI(t, []string{"--dir", dir, "tags", "list", "--policy", "nope"})
	if err == nil || err.Error() != "policy not found: nope" {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "tags", "list"}); err != errMissingPolicy {
		t.Fatalf("expected errMissingPolicy, got %v", err)
	}
}

func TestReportsShow(t *testing.T) {
	_, dir := seededWorkspace(t)

	env := mustRun(t, "--dir", dir, "reports", "show", "r1")
	data := env["data"].(map[string]any)
	if data["layout"] != "full" || data["showFooter"] != true {
		t.Fatalf("unexpected view: layout=%v footer=%v", data["layout"], data["showFooter"])
	}
	if txs := data["transactions"].([]any); len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if data["singleTransaction"] != false {
		t.Fatalf("expected list view")
	}
}

func TestReportsBack(t *testing.T) {
	_, dir := seededWorkspace(t)

	env := mustRun(t, "--dir", dir, "reports", "back", "r1")
	route := env["data"].(map[string]any)["route"].(map[string]any)
	if route["path"] != "search?q=type%3Aexpense+policyID%3Ap1" {
		t.Fatalf("unexpected back route: %#v", route)
	}

	env = mustRun(t, "--dir", dir, "reports", "back", "r1", "--from", "report")
	if env["data"].(map[string]any)["moved"] != false {
		t.Fatalf("expected no navigation outside the search navigator")
	}

	env = mustRun(t, "--dir", dir, "reports", "back", "r1", "--back-to", "workspaces/p1/tags")
	route = env["data"].(map[string]any)["route"].(map[string]any)
	if route["path"] != "workspaces/p1/tags" {
		t.Fatalf("expected explicit back route, got %#v", route)
	}
}

func TestReportsDismissError_RemovesReport(t *testing.T) {
	_, dir := seededWorkspace(t)

	mustRun(t, "--dir", dir, "reports", "dismiss-error", "r1", "--stack", "search?q=mine")
	if _, _, err := runCLI(t, []string{"--dir", dir, "reports", "show", "r1"}); err == nil {
		t.Fatalf("expected report to be gone")
	}
}

func TestRequestsCreate_WithGrantedLocation(t *testing.T) {
	_, dir := seededWorkspace(t)

	out, errOut, err := runCLIInput(t, "y\n", []string{
		"--dir", dir, "--no-sync", "requests", "create", "r1",
		"--amount", "12.50", "--merchant", "Cafe", "--with-location",
		"--permission", "grant", "--lat", "1.5", "--lng", "2.5",
	})
	if err != nil {
		t.Fatalf("create: %v\n%s", err, string(errOut))
	}
	if !strings.Contains(string(errOut), "Allow location access") {
		t.Fatalf("expected the prompt on stderr, got:\n%s", string(errOut))
	}
	env := decode(t, out)
	data := env["data"].(map[string]any)
	if data["amount"] != float64(1250) || data["currency"] != "USD" {
		t.Fatalf("unexpected transaction: %#v", data)
	}
	loc := data["location"].(map[string]any)
	if loc["lat"] != 1.5 || loc["lng"] != 2.5 {
		t.Fatalf("unexpected location: %#v", loc)
	}
	if env["meta"].(map[string]any)["locationPermission"] != "granted" {
		t.Fatalf("unexpected meta: %#v", env["meta"])
	}

	st := mustRun(t, "--dir", dir, "permission", "status")
	if st["data"].(map[string]any)["status"] != "granted" {
		t.Fatalf("expected granted to persist, got %#v", st["data"])
	}
}

func TestRequestsCreate_BlockedLocationIsSkipped(t *testing.T) {
	_, dir := seededWorkspace(t)
	mustRun(t, "--dir", dir, "permission", "set", "blocked")

	out, errOut, err := runCLIInput(t, "n\n", []string{
		"--dir", dir, "requests", "create", "r1", "--amount", "3", "--with-location",
	})
	if err != nil {
		t.Fatalf("create: %v\n%s", err, string(errOut))
	}
	if !strings.Contains(string(errOut), "Location access is blocked") {
		t.Fatalf("expected the blocked copy, got:\n%s", string(errOut))
	}
	env := decode(t, out)
	if _, ok := env["data"].(map[string]any)["location"]; ok {
		t.Fatalf("expected no location")
	}
	if env["meta"].(map[string]any)["locationPermission"] != "denied" {
		t.Fatalf("unexpected meta: %#v", env["meta"])
	}
}

func TestRequestsCreate_InvalidAmount(t *testing.T) {
	_, dir := seededWorkspace(t)
	for _, amount := range []string{"abc", "0", "-4"} {
		if _, _, err := runCLI(t, []string{"--dir", dir, "requests", "create", "r1", "--amount=" + amount}); err == nil {
			t.Fatalf("expected error for amount %q", amount)
		}
	}
}

func TestPermissionCommands(t *testing.T) {
	_, dir := seededWorkspace(t)

	status := func() any {
		return mustRun(t, "--dir", dir, "permission", "status")["data"].(map[string]any)["status"]
	}
	if got := status(); got != "denied" {
		t.Fatalf("expected denied before any request, got %v", got)
	}
	mustRun(t, "--dir", dir, "permission", "request", "--behaviour", "grant")
	if got := status(); got != "granted" {
		t.Fatalf("expected granted, got %v", got)
	}
	mustRun(t, "--dir", dir, "permission", "reset")
	if got := status(); got != "denied" {
		t.Fatalf("expected reset to denied, got %v", got)
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "permission", "set", "maybe"}); err == nil {
		t.Fatalf("expected invalid status error")
	}
}

func TestOutputFormats(t *testing.T) {
	_, dir := seededWorkspace(t)

	out, _, err := runCLI(t, []string{"--dir", dir, "--format", "edn", "policies", "show", "p1"})
	if err != nil {
		t.Fatalf("edn: %v", err)
	}
	if !strings.HasPrefix(string(out), "{:data {:policy {") || !strings.Contains(string(out), ":tag-access \"ok\"") {
		t.Fatalf("unexpected edn:\n%s", string(out))
	}

	out, _, err = runCLI(t, []string{"--dir", dir, "--format", "yaml", "policies", "list"})
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(string(out), "data:\n") || !strings.Contains(string(out), "id: p1") {
		t.Fatalf("unexpected yaml:\n%s", string(out))
	}

	if _, _, err := runCLI(t, []string{"--dir", dir, "--format", "xml", "policies", "list"}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestLocale_SpanishLabels(t *testing.T) {
	_, dir := seededWorkspace(t)

	env := mustRun(t, "--dir", dir, "--locale", "es", "tags", "list", "--policy", "p1", "--select", "Audit")
	meta := env["meta"].(map[string]any)
	if meta["selectedLabel"] != "1 seleccionado" {
		t.Fatalf("selectedLabel = %v", meta["selectedLabel"])
	}
}

func TestWorkspace_UseCurrentList(t *testing.T) {
	t.Setenv("EXPENSE_HOME", t.TempDir())
	t.Setenv("EXPENSE_DIR", "")
	t.Setenv("EXPENSE_WORKSPACE", "")

	env := mustRun(t, "workspace", "use", "team")
	if got := env["data"].(map[string]any)["workspace"]; got != "team" {
		t.Fatalf("use: workspace = %v", got)
	}

	env = mustRun(t, "workspace", "current")
	if got := env["data"].(map[string]any)["workspace"]; got != "team" {
		t.Fatalf("current: workspace = %v", got)
	}

	env = mustRun(t, "workspace", "list")
	data := env["data"].(map[string]any)
	ws := data["workspaces"].([]any)
	if len(ws) != 1 || ws[0] != "team" || data["currentWorkspace"] != "team" {
		t.Fatalf("list: %#v", data)
	}

	if _, _, err := runCLI(t, []string{"workspace", "use", "../escape"}); err == nil {
		t.Fatalf("expected invalid workspace name to fail")
	}
}

func TestDoctor_SeededWorkspaceIsHealthy(t *testing.T) {
	_, dir := seededWorkspace(t)

	env := mustRun(t, "--dir", dir, "doctor", "--fail")
	meta := env["meta"].(map[string]any)
	if meta["hasErrors"] != false {
		t.Fatalf("expected no errors: %#v", env)
	}
}

func TestDocs(t *testing.T) {
	t.Setenv("EXPENSE_HOME", t.TempDir())

	env := mustRun(t, "docs")
	topics := env["data"].(map[string]any)["topics"].([]any)
	if len(topics) == 0 {
		t.Fatalf("expected topics")
	}

	out, _, err := runCLI(t, []string{"docs", "sync", "--raw"})
	if err != nil || !strings.HasPrefix(string(out), "# Sync") {
		t.Fatalf("raw docs: %v\n%s", err, out)
	}
	out, _, err = runCLI(t, []string{"docs", "tags", "--render", "--style", "notty"})
	if err != nil || !strings.Contains(string(out), "Workspace tags") {
		t.Fatalf("rendered docs: %v\n%s", err, out)
	}
	if _, _, err := runCLI(t, []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}

func openWorkspace(t *testing.T, dir string) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestTagsSelect_NameWithComma(t *testing.T) {
	_, dir := seededWorkspace(t)
	db := openWorkspace(t, dir)
	if err := db.Merge(context.Background(), store.PolicyTagsKey("p1"), map[string]any{
		"Department": map[string]any{"tags": map[string]any{
			"Travel, Meals": map[string]any{"name": "Travel, Meals", "enabled": true},
		}},
	}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	env := mustRun(t, "--dir", dir, "tags", "list", "--policy", "p1", "--select", "Travel, Meals")
	if got := env["meta"].(map[string]any)["selectedLabel"]; got != "1 selected" {
		t.Fatalf("selectedLabel = %v", got)
	}

	env = mustRun(t, "--dir", dir, "tags", "select-all", "--policy", "p1")
	selected := env["data"].(map[string]any)["selected"].([]any)
	if len(selected) != 7 {
		t.Fatalf("expected all 7 tags selected, got %v", selected)
	}
	args := []string{"--dir", dir, "tags", "select-all", "--policy", "p1"}
	for _, s := range selected {
		args = append(args, "--select", s.(string))
	}
	env = mustRun(t, args...)
	if got := env["data"].(map[string]any)["selected"].([]any); len(got) != 0 {
		t.Fatalf("expected selection cleared, got %v", got)
	}
}

func TestTagsDelete_LastEnabledTagsClearsRequired(t *testing.T) {
	_, dir := seededWorkspace(t)

	mustRun(t, "--dir", dir, "tags", "require", "--policy", "p1", "on")
	mustRun(t, "--dir", dir, "tags", "delete", "--policy", "p1",
		"Audit", "Engineering", "Travel\\: Air", "Item 2", "Item 10")

	db := openWorkspace(t, dir)
	ctx := context.Background()
	lists, err := db.PolicyTags(ctx, "p1")
	if err != nil {
		t.Fatalf("PolicyTags: %v", err)
	}
	l := lists["Department"]
	if len(l.Tags) != 1 || l.Tags["Sales"].Enabled {
		t.Fatalf("expected only disabled Sales left, got %#v", l.Tags)
	}
	if l.Required || l.PendingFields["required"] != model.PendingNone {
		t.Fatalf("expected required cleared and synced: required=%v pending=%#v", l.Required, l.PendingFields)
	}
	if pending, _ := db.Pending(ctx); len(pending) != 0 {
		t.Fatalf("expected empty outbox, got %d", len(pending))
	}
}
