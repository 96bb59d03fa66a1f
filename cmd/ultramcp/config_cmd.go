package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/blackjuly/ultra-mcp/config"
)

// configurableProviders lists the sections the interactive wizard walks
// through, in the same priority order the registry resolves them.
var configurableProviders = []string{"azure", "openai", "google", "grok", "bailian", "openai-compatible"}

// runConfig is the interactive credential-setup wizard: for each known
// provider it prompts for an API key and base URL, leaving the existing
// value untouched on an empty answer. Exits 0 on save, non-zero on
// abort or error.
func runConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	reset := fs.Bool("reset", false, "delete the persisted config file and exit")
	path := fs.Bool("path", false, "print the config file path and exit")
	fs.Parse(args)

	store, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if *path {
		fmt.Println(store.GetConfigPath())
		return
	}

	if *reset {
		if err := store.Reset(); err != nil {
			fmt.Fprintf(os.Stderr, "config: reset: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration reset.")
		return
	}

	fmt.Println("ultra-mcp configuration")
	fmt.Println("=======================")
	fmt.Println("Press Enter to skip a field and keep its current value.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	saved := false
	for _, name := range configurableProviders {
		fmt.Printf("--- %s ---\n", name)

		apiKey := prompt(reader, fmt.Sprintf("%s API key", name))
		if apiKey != "" {
			if err := store.SetAPIKey(name, apiKey); err != nil {
				fmt.Fprintf(os.Stderr, "config: %v\n", err)
				os.Exit(1)
			}
			saved = true
		}

		baseURL := prompt(reader, fmt.Sprintf("%s base URL", name))
		if baseURL != "" {
			if err := store.SetBaseURL(name, baseURL); err != nil {
				fmt.Fprintf(os.Stderr, "config: %v\n", err)
				os.Exit(1)
			}
			saved = true
		}

		if name == "azure" {
			resourceName := prompt(reader, "azure resource name")
			if resourceName != "" {
				if err := store.SetAzureResourceName(resourceName); err != nil {
					fmt.Fprintf(os.Stderr, "config: %v\n", err)
					os.Exit(1)
				}
				saved = true
			}
		}
		fmt.Println()
	}

	if !saved {
		fmt.Println("No changes made; aborting.")
		os.Exit(1)
	}

	fmt.Printf("Saved configuration to %s\n", store.GetConfigPath())
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
