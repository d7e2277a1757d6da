package main

import (
	"os"
	"strings"

	"expense-cli/internal/cli"
	"expense-cli/internal/nav"
)

// valueFlags are the persistent flags that consume the next token.
var valueFlags = map[string]bool{
	"--dir":       true,
	"--workspace": true,
	"--email":     true,
	"--locale":    true,
	"--format":    true,
}

// reportIDFromToken accepts "r-<id>" ids and "r/<id>" or "search/view/<id>" routes.
func reportIDFromToken(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if id, ok := nav.ReportIDFromPath(s); ok {
		return id, true
	}
	if strings.HasPrefix(s, "r-") && len(s) > len("r-") && !strings.Contains(s, "/") {
		return s, true
	}
	return "", false
}

// rewriteDirectReportArgs makes `expense <report-id>` work like
// `expense reports show <report-id>`. Cobra treats the first positional token as
// a subcommand, so argv is rewritten before parsing. Flags may come first.
func rewriteDirectReportArgs(argv []string) []string {
	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		switch {
		case a == "":
			continue
		case a == "--":
			if i+1 < len(argv) {
				return rewriteAt(argv, i+1)
			}
			return argv
		case strings.HasPrefix(a, "-"):
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		return rewriteAt(argv, i)
	}
	return argv
}

func rewriteAt(argv []string, i int) []string {
	id, ok := reportIDFromToken(argv[i])
	if !ok {
		return argv
	}
	out := make([]string, 0, len(argv)+2)
	out = append(out, argv[:i]...)
	out = append(out, "reports", "show", id)
	out = append(out, argv[i+1:]...)
	return out
}

func main() {
	os.Args = rewriteDirectReportArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
