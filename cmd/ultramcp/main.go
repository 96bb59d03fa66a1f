package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "config":
		runConfig(os.Args[2:])
	case "doctor":
		runDoctor(os.Args[2:])
	case "install":
		runInstall(os.Args[2:])
	case "pricing":
		runPricing(os.Args[2:])
	case "db:show":
		runDBShow(os.Args[2:])
	case "db:stats":
		runDBStats(os.Args[2:])
	case "db:view":
		runDBView(os.Args[2:])
	case "dashboard":
		runDashboard(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("ultra-mcp %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`ultra-mcp - unified LLM gateway over MCP

Usage:
  ultramcp <command> [options]

Commands:
  config      Interactive provider credential setup
  doctor      Print a configuration checklist
  install     Write the MCP server entry into the host IDE's config
  pricing     Inspect and manipulate the pricing cache
  db:show     Print recent request-tracker rows
  db:stats    Print aggregate request-tracker counters
  db:view     Print conversation sessions
  dashboard   Start the HTTP dashboard (out of scope for this engine)
  version     Show version information
  help        Show this help message

Options for 'doctor':
  --test      Also issue a lightweight reachability probe per provider

Pricing subcommands:
  pricing show                        Print the cached catalog summary
  pricing calculate <model> <in> <out>  Calculate a cost for a model
  pricing refresh                     Force a remote catalog refetch
  pricing clear                       Delete the on-disk pricing cache
  pricing info                        Print cache location and freshness

Examples:
  ultramcp config
  ultramcp doctor --test
  ultramcp pricing calculate gpt-4o 1000 500
  ultramcp db:stats
  ultramcp version`)
}

func newLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
