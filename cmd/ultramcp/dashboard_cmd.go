package main

import (
	"flag"
	"fmt"
	"os"
)

// runDashboard is a stub. The HTTP dashboard/tRPC API is explicitly out
// of this engine's scope (spec.md §1); the command exists so
// `ultramcp dashboard` is discoverable, but its body is not built here.
func runDashboard(args []string) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	fs.Int("port", 3000, "dashboard HTTP port (unused by this stub)")
	fs.Bool("dev", false, "run in dev mode (unused by this stub)")
	fs.Parse(args)

	fmt.Fprintln(os.Stderr, "dashboard: out of scope for this engine; the request-pipeline engine exposes its operations as a plain Go API only")
	os.Exit(1)
}
