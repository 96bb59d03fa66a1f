package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/blackjuly/ultra-mcp/internal/platformdir"
	"github.com/blackjuly/ultra-mcp/pricing"
)

// runPricing dispatches the "pricing" subcommands: show, calculate,
// refresh, clear, info (spec.md §6).
func runPricing(args []string) {
	if len(args) < 1 {
		printPricingUsage()
		os.Exit(1)
	}

	logger := newLogger()
	defer logger.Sync()

	svc, err := openPricingService(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pricing: %v\n", err)
		os.Exit(1)
	}

	switch args[0] {
	case "show":
		pricingShow(svc)
	case "calculate":
		pricingCalculate(svc, args[1:])
	case "refresh":
		pricingRefresh(svc)
	case "clear":
		pricingClear()
	case "info":
		pricingInfo()
	default:
		fmt.Fprintf(os.Stderr, "pricing: unknown subcommand %q\n", args[0])
		printPricingUsage()
		os.Exit(1)
	}
}

func printPricingUsage() {
	fmt.Println(`Usage:
  ultramcp pricing show
  ultramcp pricing calculate <model> <inputTokens> <outputTokens>
  ultramcp pricing refresh
  ultramcp pricing clear
  ultramcp pricing info`)
}

func pricingShow(svc *pricing.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	catalog, err := svc.GetLatestPricing(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pricing show: %v\n", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%d models in catalog\n", len(names))
	for _, name := range names {
		e := catalog[name]
		fmt.Printf("  %-40s in=%s out=%s\n", name,
			pricing.FormatCost(e.InputCostPerToken*1_000_000),
			pricing.FormatCost(e.OutputCostPerToken*1_000_000))
	}
}

func pricingCalculate(svc *pricing.Service, args []string) {
	if len(args) != 3 {
		printPricingUsage()
		os.Exit(1)
	}
	model := args[0]
	inputTokens, err1 := strconv.Atoi(args[1])
	outputTokens, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		fmt.Fprintln(os.Stderr, "pricing calculate: inputTokens/outputTokens must be integers")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	catalog, err := svc.GetLatestPricing(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pricing calculate: %v\n", err)
		os.Exit(1)
	}

	cost, ok := svc.CalculateCost(catalog, model, inputTokens, outputTokens)
	if !ok {
		fmt.Fprintf(os.Stderr, "pricing calculate: no pricing entry for %q\n", model)
		os.Exit(1)
	}

	fmt.Printf("model:       %s\n", model)
	fmt.Printf("inputCost:   %s\n", pricing.FormatCost(cost.InputCost))
	fmt.Printf("outputCost:  %s\n", pricing.FormatCost(cost.OutputCost))
	fmt.Printf("totalCost:   %s\n", pricing.FormatCost(cost.TotalCost))
	fmt.Printf("tiered:      %v\n", cost.TieredApplied)
}

func pricingRefresh(svc *pricing.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	catalog, err := svc.GetLatestPricing(ctx, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pricing refresh: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Refreshed pricing cache: %d models\n", len(catalog))
}

func pricingClear() {
	cachePath, err := platformdir.Path("litellm-pricing-cache.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "pricing clear: %v\n", err)
		os.Exit(1)
	}
	if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "pricing clear: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Pricing cache cleared.")
}

func pricingInfo() {
	cachePath, err := platformdir.Path("litellm-pricing-cache.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "pricing info: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("cache path: %s\n", cachePath)
	info, err := os.Stat(cachePath)
	if err != nil {
		fmt.Println("status:     no cache file yet")
		return
	}
	age := time.Since(info.ModTime())
	fmt.Printf("status:     present\n")
	fmt.Printf("modified:   %s (%s ago)\n", info.ModTime().Format(time.RFC3339), age.Round(time.Second))
}
