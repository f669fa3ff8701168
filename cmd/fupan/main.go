package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"fupan/internal/calendar"
	"fupan/internal/collector"
	"fupan/internal/config"
	"fupan/internal/provider"
	"fupan/internal/report"
	"fupan/internal/store"
	"fupan/pkg/model"
)

var (
	cfgFile   string
	rangeSpec []string
	recentN   int
	force     bool
	summary   bool
	noDraft   bool
	printOnly bool
	format    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fupan [DATE]",
		Short: "A-share market sentiment collector and period review generator",
		Long: `Fupan collects daily A-share sentiment snapshots (limit-up pool, emotion
score, index quotes) into per-day JSON files and aggregates them into
markdown review reports.

Examples:
  fupan                                collect the most recent trading day
  fupan 20260225                       collect one day
  fupan --range 20260210,20260225      collect a date span
  fupan --days 10 --summary            collect 10 recent days, then summarize
  fupan 20260225 --print-only          show a stored day without fetching`,
		Args: cobra.MaximumNArgs(1),
		RunE: run,
	}

	// Flags
	rootCmd.Flags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.Flags().StringSliceVar(&rangeSpec, "range", nil, "date range START,END (YYYYMMDD)")
	rootCmd.Flags().IntVar(&recentN, "days", 1, "collect the most recent N trading days")
	rootCmd.Flags().BoolVar(&force, "force", false, "re-fetch days that already have a snapshot")
	rootCmd.Flags().BoolVar(&summary, "summary", false, "build the period summary after collection")
	rootCmd.Flags().BoolVar(&noDraft, "no-draft", false, "skip the review draft for single-day runs")
	rootCmd.Flags().BoolVar(&printOnly, "print-only", false, "render stored snapshots without fetching")
	rootCmd.Flags().StringVar(&format, "format", "table", "output format: table, json")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	st, err := store.Open(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("opening snapshot store: %w", err)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted. Stopping collection...")
		cancel()
	}()

	days, err := resolveDays(args)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return fmt.Errorf("no trading days in the requested period")
	}

	if printOnly {
		return printStored(st, days)
	}

	em := provider.NewEastMoney(cfg.Provider.RateLimit, cfg.Provider.Timeout, st)
	c := collector.New(st, em)

	results := collect(ctx, c, days)
	if results.Failed() > 0 {
		for _, r := range results {
			if r.Outcome == collector.Failed {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", r.Day, r.Err)
			}
		}
	}
	fmt.Printf("采集完成：新增 %d、跳过 %d、失败 %d\n\n",
		results.Fetched(), results.Skipped(), results.Failed())

	if summary {
		agg := report.NewAggregator(st, c, cfg.Report.LeaderLimit, cfg.Report.CurveWidth)
		rep, err := agg.Summarize(ctx, days)
		if err != nil {
			return fmt.Errorf("building summary: %w", err)
		}
		fmt.Println(rep.Markdown)
		fmt.Printf("汇总已写入 %s（缺失 %d 天）\n", rep.Path, len(rep.Gaps))
		return nil
	}

	if len(days) == 1 {
		return showDay(st, model.FormatDay(days[0]), cfg)
	}
	return nil
}

// resolveDays turns the CLI selection (positional date, --range or
// --days) into concrete trading days, printing calendar warnings.
func resolveDays(args []string) ([]time.Time, error) {
	resolver := calendar.NewResolver(calendar.NewXSHG())

	var days []time.Time
	var warnings []string
	switch {
	case len(args) == 1:
		day, err := model.ParseDay(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: expected YYYYMMDD", args[0])
		}
		days, warnings = resolver.Range(day, day)
	case len(rangeSpec) > 0:
		if len(rangeSpec) != 2 {
			return nil, fmt.Errorf("--range expects START,END (YYYYMMDD)")
		}
		start, err := model.ParseDay(rangeSpec[0])
		if err != nil {
			return nil, fmt.Errorf("invalid range start %q", rangeSpec[0])
		}
		end, err := model.ParseDay(rangeSpec[1])
		if err != nil {
			return nil, fmt.Errorf("invalid range end %q", rangeSpec[1])
		}
		days, warnings = resolver.Range(start, end)
	default:
		days, warnings = resolver.Recent(time.Now(), recentN)
	}

	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "警告：%s\n", w)
	}
	return days, nil
}

func collect(ctx context.Context, c *collector.Collector, days []time.Time) collector.Results {
	bar := progressbar.NewOptions(len(days),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("采集中"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	c.SetProgressFunc(func(done, total int, r collector.Result) {
		bar.Set(done)
	})

	results := c.Collect(ctx, days, force)
	bar.Finish()
	fmt.Println()
	return results
}

// showDay renders one collected day to the console and writes its
// review draft unless disabled.
func showDay(st *store.Store, key string, cfg *config.Config) error {
	snap, err := st.Load(key)
	if err != nil {
		return fmt.Errorf("loading snapshot %s: %w", key, err)
	}

	if format == "json" {
		if err := outputJSON(snap); err != nil {
			return err
		}
	} else {
		report.PrintDaily(os.Stdout, snap)
	}

	if noDraft {
		return nil
	}
	path, err := report.WriteDraft(st, snap, cfg.Report.DraftDir, cfg.Report.AnomalyLimit)
	if err != nil {
		return fmt.Errorf("writing review draft: %w", err)
	}
	fmt.Printf("\n复盘草稿已写入 %s\n", path)
	return nil
}

func printStored(st *store.Store, days []time.Time) error {
	for i, day := range days {
		key := model.FormatDay(day)
		snap, err := st.Load(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "跳过 %s：本地无快照\n", key)
			continue
		}
		if i > 0 {
			fmt.Println()
		}
		if format == "json" {
			if err := outputJSON(snap); err != nil {
				return err
			}
			continue
		}
		report.PrintDaily(os.Stdout, snap)
	}
	return nil
}

func outputJSON(snap *model.Snapshot) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snap)
}
