package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/config"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/report"
)

// Viper keys of the audit command flags.
const (
	keyMaxPages     = "audit.max_pages"
	keyDepth        = "audit.crawl_depth"
	keyDelay        = "audit.crawl_delay"
	keyIgnoreRobots = "audit.ignore_robots"
	keyExternal     = "audit.include_external"
	keyName         = "audit.name"
	keyFormat       = "report.format"
	keyOutput       = "report.output"
	keyTopFindings  = "report.top"
)

const cancelWaitPeriod = 30 * time.Second

// ErrAuditUnsuccessful is returned when a run ends failed or canceled.
var ErrAuditUnsuccessful = errors.New("audit did not complete")

// auditOptions are the resolved inputs of one CLI audit.
type auditOptions struct {
	Seeds  []string
	Name   string
	Format report.Format
	Output string
	Top    int
}

func newAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <url> [url...]",
		Short: "Audit a website and print the report",
		Long: `Crawl the given seed URLs, analyze every page and write the report.

Flags override the audit section of the configuration file:

  site-auditor audit https://example.com --max-pages 50 --depth 2
  site-auditor audit https://example.com --format csv --output report.csv`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindAuditFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyAuditFlags(&cfg.Audit)

			opts, err := resolveAuditOptions(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAudit(ctx, cfg, nil, opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.Int("max-pages", domain.DefaultMaxPages, "maximum number of pages to fetch")
	flags.Int("depth", domain.DefaultCrawlDepth, "maximum link depth from the seeds")
	flags.Duration("delay", time.Second, "delay between requests to the same host")
	flags.Bool("ignore-robots", false, "do not honor robots.txt")
	flags.Bool("external", false, "follow links to other hosts")
	flags.String("name", "", "audit name (defaults to the first seed)")
	flags.StringP("format", "f", string(report.FormatTable), "report format: table, json or csv")
	flags.StringP("output", "o", "", "write the report to a file instead of stdout")
	flags.Int("top", report.DefaultTopFindings, "findings shown by the table format")
	return cmd
}

// bindAuditFlags binds the audit flags to their viper keys.
func bindAuditFlags(cmd *cobra.Command) error {
	bindings := map[string]string{
		keyMaxPages:     "max-pages",
		keyDepth:        "depth",
		keyDelay:        "delay",
		keyIgnoreRobots: "ignore-robots",
		keyExternal:     "external",
		keyName:         "name",
		keyFormat:       "format",
		keyOutput:       "output",
		keyTopFindings:  "top",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind %s flag: %w", flag, err)
		}
	}
	if err := viper.BindEnv(keyFormat, "AUDITOR_REPORT_FORMAT"); err != nil {
		return fmt.Errorf("failed to bind AUDITOR_REPORT_FORMAT: %w", err)
	}
	return nil
}

// applyAuditFlags overlays explicitly set flags on the configured run
// defaults. Unset flags leave the configuration untouched.
func applyAuditFlags(cfg *config.AuditConfig) {
	if viper.IsSet(keyMaxPages) {
		cfg.MaxPages = viper.GetInt(keyMaxPages)
	}
	if viper.IsSet(keyDepth) {
		cfg.CrawlDepth = viper.GetInt(keyDepth)
	}
	if viper.IsSet(keyDelay) {
		cfg.CrawlDelay = viper.GetDuration(keyDelay)
	}
	if viper.IsSet(keyIgnoreRobots) {
		cfg.IgnoreRobots = viper.GetBool(keyIgnoreRobots)
	}
	if viper.IsSet(keyExternal) {
		cfg.IncludeExternal = viper.GetBool(keyExternal)
	}
}

func resolveAuditOptions(seeds []string) (auditOptions, error) {
	format, err := report.ParseFormat(viper.GetString(keyFormat))
	if err != nil {
		return auditOptions{}, err
	}
	return auditOptions{
		Seeds:  seeds,
		Name:   viper.GetString(keyName),
		Format: format,
		Output: viper.GetString(keyOutput),
		Top:    viper.GetInt(keyTopFindings),
	}, nil
}

// runAudit executes one audit synchronously and writes its report to
// opts.Output, or stdout when no output file is set. An interrupt cancels
// the run.
func runAudit(
	ctx context.Context,
	cfg *config.Config,
	transport http.RoundTripper,
	opts auditOptions,
	stdout io.Writer,
) (err error) {
	deps, err := newCommandDeps(cfg, transport)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := deps.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	log := deps.Logger
	svc := deps.Service

	run, err := svc.Create(ctx, opts.Name, "", currentUser(), cfg.Audit.RunDefaults(opts.Seeds...))
	if err != nil {
		return err
	}
	if err = svc.Start(ctx, run.ID); err != nil {
		return err
	}
	log.Info("Audit started",
		logger.String("run_id", run.ID),
		logger.Strings("seeds", opts.Seeds),
		logger.Int("max_pages", run.Config.MaxPages),
		logger.Int("crawl_depth", run.Config.CrawlDepth),
	)

	id := run.ID
	run, err = svc.Wait(ctx, id)
	if errors.Is(err, context.Canceled) {
		log.Warn("Interrupted, canceling audit", logger.String("run_id", id))
		if cancelErr := svc.Cancel(context.Background(), id); cancelErr != nil {
			log.Warn("Cancel failed", logger.Error(cancelErr))
		}
		waitCtx, cancel := context.WithTimeout(context.Background(), cancelWaitPeriod)
		defer cancel()
		run, err = svc.Wait(waitCtx, id)
	}
	if err != nil {
		return fmt.Errorf("wait for audit: %w", err)
	}

	results, err := svc.Results(context.Background(), run.ID)
	if err != nil {
		return fmt.Errorf("load audit results: %w", err)
	}
	if err = writeReport(report.Build(run, results), opts, stdout); err != nil {
		return err
	}

	log.Info("Audit finished",
		logger.String("run_id", run.ID),
		logger.String("state", string(run.State)),
		logger.Int("pages_analyzed", run.PagesAnalyzed),
		logger.Int("total_findings", run.TotalFindings),
	)

	if run.State != domain.RunCompleted {
		msg := string(run.State)
		if run.ErrorMessage != nil {
			msg += ": " + *run.ErrorMessage
		}
		return fmt.Errorf("%w: %s", ErrAuditUnsuccessful, msg)
	}
	return nil
}

func writeReport(rep *report.Report, opts auditOptions, stdout io.Writer) error {
	if opts.Output == "" {
		return writeFormatted(stdout, rep, opts)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err = writeFormatted(f, rep, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeFormatted(w io.Writer, rep *report.Report, opts auditOptions) error {
	if opts.Format == report.FormatTable {
		return report.WriteTable(w, rep, opts.Top)
	}
	return report.Write(w, rep, opts.Format)
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
