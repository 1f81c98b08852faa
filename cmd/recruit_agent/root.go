package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/recruit-search/internal/apiclient"
	"github.com/jonathan/recruit-search/internal/config"
	"github.com/jonathan/recruit-search/internal/logging"
	"github.com/jonathan/recruit-search/internal/observability"
	"github.com/jonathan/recruit-search/internal/schemas"
	"github.com/jonathan/recruit-search/internal/session"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath  string
	apiURL      string
	apiToken    string
	logLevel    string
	logFile     string
	metricsFile string
	verbose     bool
	noColor     bool
	strict      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "recruit_agent",
		Short:         "Recruiting search client",
		Long:          "recruit_agent searches candidates, unlocks contacts, manages shortlists and outreach campaigns through the recruiting API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a JSON or TOML config file")
	flags.StringVar(&opts.apiURL, "api-url", "", "Recruiting API base URL (overrides config and "+config.EnvAPIURL+")")
	flags.StringVar(&opts.apiToken, "api-token", "", "Bearer token forwarded to the API")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFile, "log-file", "", "Write JSON logs to this file (rotated)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&opts.strict, "strict", false, "Validate API responses against their JSON schemas")

	cmd.AddCommand(
		newSearchCmd(opts),
		newCandidateCmd(opts),
		newUnlockCmd(opts),
		newShortlistCmd(opts),
		newShortlistedCmd(opts),
		newCampaignsCmd(opts),
		newShellCmd(opts),
		newValidateCmd(),
	)
	return cmd
}

// loadConfig resolves configuration: defaults, then the config file, then
// the environment, then flags.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded.MergeWithDefaults(cfg)
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = o.apiURL
	}
	if flags.Changed("api-token") {
		cfg.APIToken = o.apiToken
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if o.verbose {
		cfg.Verbose = true
	}
	if o.strict {
		cfg.StrictContracts = true
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// runtime is the wiring shared by the commands of one invocation.
type runtime struct {
	cfg         config.Config
	logger      *zap.Logger
	client      *apiclient.Client
	registry    *prometheus.Registry
	printer     *observability.Printer
	metricsFile string
}

func (o *rootOptions) setup(cmd *cobra.Command) (*runtime, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if cfg.Verbose && strings.EqualFold(level, config.DefaultLogLevel) {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		File:    cfg.LogFile,
		Level:   level,
		Console: cmd.ErrOrStderr(),
		Quiet:   !cfg.Verbose,
	})
	if err != nil {
		return nil, err
	}

	clientOpts := apiclient.DefaultOptions()
	clientOpts.BaseURL = cfg.APIURL
	clientOpts.Token = cfg.APIToken
	clientOpts.Timeout = time.Duration(cfg.RequestTimeout)
	clientOpts.RateLimit = rate.Limit(cfg.RateLimitRPS)
	clientOpts.Burst = cfg.RateLimitBurst
	if cfg.StrictContracts {
		clientOpts.Validator = schemas.Default()
	}
	client, err := apiclient.New(clientOpts)
	if err != nil {
		return nil, err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.SetColor(!o.noColor && !color.NoColor)

	logger.Debug("configuration loaded",
		zap.String("api_url", cfg.APIURL),
		zap.Int("page_size", cfg.PageSize),
		zap.Bool("strict_contracts", cfg.StrictContracts))

	return &runtime{
		cfg:         cfg,
		logger:      logger,
		client:      client,
		registry:    prometheus.NewRegistry(),
		printer:     printer,
		metricsFile: o.metricsFile,
	}, nil
}

// newStore creates a session over the API client.
func (rt *runtime) newStore() *session.Store {
	return session.NewStore(rt.client, session.Options{
		PageSize:       rt.cfg.PageSize,
		InitialCredits: rt.cfg.InitialCredits,
		RequestTimeout: time.Duration(rt.cfg.RequestTimeout),
		Stages:         rt.cfg.Stages,
		StageDwell:     time.Duration(rt.cfg.StageDwell),
		ShortlistTTL:   time.Duration(rt.cfg.ShortlistTTL),
		Logger:         rt.logger,
		Metrics:        session.NewMetrics(rt.registry),
	})
}

// close flushes metrics and logs.
func (rt *runtime) close() error {
	defer func() { _ = rt.logger.Sync() }()
	if rt.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(rt.metricsFile, rt.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// withRuntime wraps a command body with runtime setup and teardown.
func withRuntime(opts *rootOptions, run func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		rt, err := opts.setup(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rt.close(); err == nil {
				err = cerr
			}
		}()
		return run(cmd, args, rt)
	}
}
