package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zen-systems/itemforge/pkg/alert"
	"github.com/zen-systems/itemforge/pkg/bootstrap"
	"github.com/zen-systems/itemforge/pkg/config"
	"github.com/zen-systems/itemforge/pkg/events"
	"github.com/zen-systems/itemforge/pkg/item"
	"github.com/zen-systems/itemforge/pkg/judge"
	"github.com/zen-systems/itemforge/pkg/provider"
)

const (
	exitSuccess     = 0
	exitPartialFail = 1
	exitConfigError = 2
)

var (
	routingFile string
	judgeFile   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "itemforge",
		Short: "Generates and quality-gates machine-produced test items",
		Long: `ItemForge orchestrates multiple content-generation vendors to build an
assessment item bank: routed generation per question type with
primary/fallback vendors, an automated judge that scores each item and
places its difficulty, and a bootstrap driver with retries, bounded
parallelism, and batch submission.`,
	}

	rootCmd.PersistentFlags().StringVar(&routingFile, "routing-config", "", "path to routing config file")
	rootCmd.PersistentFlags().StringVar(&judgeFile, "judge-config", "", "path to judge config file")

	rootCmd.AddCommand(bootstrapCmd())
	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type bootstrapFlags struct {
	count       int
	types       []string
	dryRun      bool
	noAsync     bool
	noBatch     bool
	noJudge     bool
	maxRetries  int
	parallel    bool
	maxParallel int
	quiet       bool
	verbose     bool
	eventLog    string
	sentinel    string
}

func bootstrapCmd() *cobra.Command {
	flags := bootstrapFlags{}

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Generate the item bank across question types",
		Long: `Runs retried generation for every configured question type, routes the
output through the judge, and reports per-type outcomes.

Exit status: 0 when every type succeeded, 1 when one or more types
failed after exhausting retries, 2 on configuration errors.`,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(runBootstrap(cmd.Context(), flags))
		},
	}

	cmd.Flags().IntVar(&flags.count, "count", 9, "questions to generate per type")
	cmd.Flags().StringSliceVar(&flags.types, "types", nil, "question types to generate (default: all)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "resolve routing and print the plan without calling vendors")
	cmd.Flags().BoolVar(&flags.noAsync, "no-async", false, "use blocking vendor calls")
	cmd.Flags().BoolVar(&flags.noBatch, "no-batch", false, "disable batch submission")
	cmd.Flags().BoolVar(&flags.noJudge, "no-judge", false, "skip judge evaluation of generated items")
	cmd.Flags().IntVar(&flags.maxRetries, "max-retries", 3, "attempts per question type")
	cmd.Flags().BoolVar(&flags.parallel, "parallel", false, "generate question types concurrently")
	cmd.Flags().IntVar(&flags.maxParallel, "max-parallel", 3, "concurrent type limit in parallel mode")
	cmd.Flags().BoolVar(&flags.quiet, "quiet", false, "suppress progress output")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "log judge and vendor detail")
	cmd.Flags().StringVar(&flags.eventLog, "event-log", "events.jsonl", "structured event log path")
	cmd.Flags().StringVar(&flags.sentinel, "sentinel", "bootstrap_critical.json", "critical-failure sentinel path")

	return cmd
}

func runBootstrap(ctx context.Context, flags bootstrapFlags) int {
	progress := func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
	if flags.quiet {
		progress = func(string, ...any) {}
	}

	cfg, err := config.LoadWithFiles(routingFile, judgeFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitConfigError
	}

	types, err := parseTypes(flags.types)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitConfigError
	}

	clients := createClients(cfg)
	defer cleanupClients(clients, progress)
	if !flags.dryRun && len(clients) == 1 {
		fmt.Fprintln(os.Stderr, "configuration error: no usable vendor credentials configured")
		return exitConfigError
	}

	runCfg := bootstrap.RunConfig{
		QuestionsPerType: flags.count,
		Types:            types,
		MaxRetries:       flags.maxRetries,
		Parallel:         flags.parallel,
		MaxParallel:      flags.maxParallel,
		UseAsync:         !flags.noAsync,
		UseBatch:         !flags.noBatch,
		DryRun:           flags.dryRun,
	}
	if err := runCfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitConfigError
	}

	eventLogger, err := events.New(flags.eventLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitConfigError
	}
	defer eventLogger.Close()

	alertOpts := []alert.Option{alert.WithLogger(progress)}
	if cfg.AlertWebhookURL != "" {
		alertOpts = append(alertOpts, alert.WithSink(alert.NewWebhookSink(cfg.AlertWebhookURL)))
	}
	alerter := alert.New(alert.DefaultThreshold, flags.sentinel, alertOpts...)

	opts := []bootstrap.Option{
		bootstrap.WithLogger(progress),
		bootstrap.WithEvents(eventLogger),
		bootstrap.WithAlerter(alerter),
	}
	if !flags.noJudge && !flags.dryRun {
		judgeLog := func(string, ...any) {}
		if flags.verbose {
			judgeLog = progress
		}
		opts = append(opts, bootstrap.WithJudge(judge.New(cfg.JudgeConfig, clients, judge.WithLogger(judgeLog))))
	}

	orchestrator, err := bootstrap.New(clients, cfg.RoutingConfig, runCfg, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitConfigError
	}

	summary, err := orchestrator.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap run failed: %v\n", err)
		return exitPartialFail
	}

	printSummary(summary)
	return summary.ExitCode()
}

func printSummary(summary *bootstrap.Summary) {
	fmt.Printf("Bootstrap %s finished in %s: %d succeeded, %d failed\n",
		summary.RunID, summary.Duration.Round(time.Millisecond), summary.Successful, summary.Failed)
	for _, result := range summary.Results {
		if result.Success {
			fmt.Printf("  ok    %-24s %d items in %d attempt(s)\n",
				result.QuestionType, result.Generated, result.AttemptCount)
			continue
		}
		fmt.Printf("  FAIL  %-24s after %d attempt(s): %s\n",
			result.QuestionType, result.AttemptCount, result.ErrorMessage)
	}
}

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Show the provider assignment per question type",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithFiles(routingFile, judgeFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "QUESTION TYPE\tPROVIDER\tMODEL\tFALLBACK\tRATIONALE")

			var names []string
			for qt := range cfg.RoutingConfig.Assignments {
				names = append(names, string(qt))
			}
			sort.Strings(names)

			for _, name := range names {
				a := cfg.RoutingConfig.Assignments[item.QuestionType(name)]
				fallback := "-"
				if a.Fallback != "" {
					fallback = a.Fallback
					if a.FallbackModel != "" {
						fallback += "/" + a.FallbackModel
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, a.Provider, a.Model, fallback, a.Rationale)
			}

			d := cfg.RoutingConfig.DefaultAssignment
			fmt.Fprintln(w)
			fmt.Fprintf(w, "DEFAULT\t%s\t%s\t%s\t%s\n", d.Provider, d.Model, orDash(d.Fallback), d.Rationale)
			return w.Flush()
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the routing and judge config files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithFiles(routingFile, judgeFile)
			if err != nil {
				return err
			}
			fmt.Printf("routing config ok: %d assignments\n", len(cfg.RoutingConfig.Assignments))
			fmt.Printf("judge config ok: min score %.2f, thresholds %.2f/%.2f\n",
				cfg.JudgeConfig.MinJudgeScore,
				cfg.JudgeConfig.DifficultyPlacement.DowngradeThreshold,
				cfg.JudgeConfig.DifficultyPlacement.UpgradeThreshold)
			return nil
		},
	}
}

// createClients constructs one client per configured vendor credential. The
// mock vendor is always registered so dry runs work without keys.
func createClients(cfg *config.Config) map[provider.Vendor]provider.Client {
	clients := make(map[provider.Vendor]provider.Client)

	if cfg.AnthropicAPIKey != "" {
		if c, err := provider.NewAnthropicClient(cfg.AnthropicAPIKey); err == nil {
			clients[provider.VendorAnthropic] = c
		}
	}
	if cfg.OpenAIAPIKey != "" {
		if c, err := provider.NewOpenAIClient(cfg.OpenAIAPIKey); err == nil {
			clients[provider.VendorOpenAI] = c
		}
	}
	if cfg.GoogleAPIKey != "" {
		if c, err := provider.NewGoogleClient(cfg.GoogleAPIKey); err == nil {
			clients[provider.VendorGoogle] = c
		}
	}
	if cfg.DeepSeekAPIKey != "" {
		if c, err := provider.NewDeepSeekClient(cfg.DeepSeekAPIKey); err == nil {
			clients[provider.VendorDeepSeek] = c
		}
	}

	clients[provider.VendorMock] = provider.NewMockClient()
	return clients
}

func cleanupClients(clients map[provider.Vendor]provider.Client, progress func(string, ...any)) {
	for vendor, client := range clients {
		if err := client.Cleanup(); err != nil {
			progress("cleanup %s: %v", vendor, err)
		}
	}
}

func parseTypes(raw []string) ([]item.QuestionType, error) {
	if len(raw) == 0 {
		return item.RequiredTypes, nil
	}
	var types []item.QuestionType
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			qt, err := item.ParseQuestionType(part)
			if err != nil {
				return nil, err
			}
			types = append(types, qt)
		}
	}
	if len(types) == 0 {
		return item.RequiredTypes, nil
	}
	return types, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
