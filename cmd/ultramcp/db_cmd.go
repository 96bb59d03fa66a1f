package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/blackjuly/ultra-mcp/conversation"
	"github.com/blackjuly/ultra-mcp/internal/database"
	"github.com/blackjuly/ultra-mcp/internal/platformdir"
	"github.com/blackjuly/ultra-mcp/pricing"
	"github.com/blackjuly/ultra-mcp/tracker"
)

// runDBShow prints the most recent request-tracker rows.
func runDBShow(args []string) {
	fs := flag.NewFlagSet("db:show", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of rows to print")
	fs.Parse(args)

	logger := newLogger()
	defer logger.Sync()

	_, pool, err := openTracker(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db:show: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var rows []tracker.Record
	if err := pool.DB().Order("started_at DESC").Limit(*limit).Find(&rows).Error; err != nil {
		fmt.Fprintf(os.Stderr, "db:show: %v\n", err)
		os.Exit(1)
	}

	for _, r := range rows {
		cost := "-"
		if r.CostUSD != nil {
			cost = pricing.FormatCost(*r.CostUSD)
		}
		fmt.Printf("%s  %-10s %-8s %-24s %s\n",
			r.StartedAt.Format(time.RFC3339), r.Status, r.Provider, r.Model, cost)
	}
	fmt.Printf("\n%d row(s)\n", len(rows))
}

// runDBStats prints aggregate counters across the request-tracker log.
func runDBStats(args []string) {
	logger := newLogger()
	defer logger.Sync()

	_, pool, err := openTracker(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db:stats: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var total, success, failed, pending int64
	db := pool.DB()
	db.Model(&tracker.Record{}).Count(&total)
	db.Model(&tracker.Record{}).Where("status = ?", tracker.StatusSuccess).Count(&success)
	db.Model(&tracker.Record{}).Where("status = ?", tracker.StatusError).Count(&failed)
	db.Model(&tracker.Record{}).Where("status = ?", tracker.StatusPending).Count(&pending)

	var totalCost float64
	db.Model(&tracker.Record{}).Where("cost_usd IS NOT NULL").Select("COALESCE(SUM(cost_usd), 0)").Scan(&totalCost)

	var totalTokens int64
	db.Model(&tracker.Record{}).Where("total_tokens IS NOT NULL").Select("COALESCE(SUM(total_tokens), 0)").Scan(&totalTokens)

	fmt.Println("Request tracker stats")
	fmt.Println("=====================")
	fmt.Printf("total:      %d\n", total)
	fmt.Printf("success:    %d\n", success)
	fmt.Printf("error:      %d\n", failed)
	fmt.Printf("pending:    %d\n", pending)
	fmt.Printf("tokens:     %d\n", totalTokens)
	fmt.Printf("cost:       %s\n", pricing.FormatCost(totalCost))
}

// runDBView lists conversation sessions with their message/file/cost
// summaries.
func runDBView(args []string) {
	fs := flag.NewFlagSet("db:view", flag.ExitOnError)
	status := fs.String("status", "", "filter by session status: active, archived, deleted")
	limit := fs.Int("limit", 20, "number of sessions to print")
	offset := fs.Int("offset", 0, "pagination offset")
	fs.Parse(args)

	logger := newLogger()
	defer logger.Sync()

	dbPath, err := platformdir.Path("ultra-mcp.db")
	if err != nil {
		fmt.Fprintf(os.Stderr, "db:view: %v\n", err)
		os.Exit(1)
	}
	pool, err := database.Open(dbPath, database.DefaultPoolConfig(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db:view: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := database.AutoMigrate(pool.DB(), &conversation.Session{}, &conversation.Message{}, &conversation.File{}, &conversation.Budget{}); err != nil {
		fmt.Fprintf(os.Stderr, "db:view: %v\n", err)
		os.Exit(1)
	}

	mgr := conversation.New(pool, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	list, err := mgr.ListSessions(ctx, conversation.SessionStatus(*status), *limit, *offset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db:view: %v\n", err)
		os.Exit(1)
	}

	for _, s := range list.Sessions {
		fmt.Printf("%-36s %-10s messages=%-4d files=%-4d tokens=%-8d cost=%s\n",
			s.Session.ID, s.Session.Status, s.MessageCount, s.FileCount, s.TotalTokens,
			pricing.FormatCost(s.TotalCostUSD))
	}
	fmt.Printf("\n%d of %d session(s), hasMore=%v\n", len(list.Sessions), list.TotalCount, list.HasMore)
}
