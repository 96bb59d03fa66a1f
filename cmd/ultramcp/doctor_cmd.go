package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/blackjuly/ultra-mcp/llm"
)

// runDoctor prints a per-provider readiness checklist and exits
// non-zero iff no provider is configured, per spec.md §6.
func runDoctor(args []string) {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	test := fs.Bool("test", false, "also issue a lightweight completion probe per configured provider")
	fs.Parse(args)

	logger := newLogger()
	defer logger.Sync()

	cfg, _, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "doctor: %v\n", err)
		os.Exit(1)
	}

	registry := buildRegistry(cfg, logger)

	fmt.Println("ultra-mcp doctor")
	fmt.Println("================")

	anyConfigured := false
	for _, name := range []string{"azure", "openai", "gemini", "grok", "bailian", "openai-compatible"} {
		p := registry.Provider(name)
		if p == nil {
			continue
		}
		status := "not configured"
		if p.IsConfigured() {
			status = "configured"
			anyConfigured = true
		}
		fmt.Printf("  [%s] %-20s %s\n", checkmark(p.IsConfigured()), name, status)

		if *test && p.IsConfigured() {
			probeProvider(p)
		}
	}

	fmt.Println()
	if !anyConfigured {
		fmt.Println("No provider is configured. Run `ultramcp config` to set one up.")
		os.Exit(1)
	}
	fmt.Println("At least one provider is configured.")
}

func checkmark(ok bool) string {
	if ok {
		return "x"
	}
	return " "
}

// probeProvider issues a minimal, cheap completion request to confirm
// the credentials actually work, per doctor's --test flag.
func probeProvider(p llm.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := p.Completion(ctx, &llm.ChatRequest{
		Prompt:          "ping",
		MaxOutputTokens: 1,
	})
	if err != nil {
		fmt.Printf("      probe failed: %v\n", err)
		return
	}
	fmt.Println("      probe ok")
}
