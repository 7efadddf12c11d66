// Command leadrec fits, queries and evaluates lead recommendation models.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hupe1980/leadrec"
	"github.com/hupe1980/leadrec/codec"
	"github.com/hupe1980/leadrec/dataset"
	"github.com/hupe1980/leadrec/internal/config"
	"github.com/hupe1980/leadrec/internal/logging"
	"github.com/hupe1980/leadrec/metrics/prom"
	"github.com/hupe1980/leadrec/persistence"
	"github.com/hupe1980/leadrec/resource"
)

var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "leadrec:", err)
		os.Exit(1)
	}
}

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg      *config.Config
	log      zerolog.Logger
	slog     *slog.Logger
	registry *prometheus.Registry
	metrics  *prom.Collector
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "leadrec",
		Short: "Recommend market leads that resemble a customer portfolio",
		Long: `leadrec encodes a market dataset into attribute documents, indexes them
with TF-IDF and ranks unseen entries by their mean cosine similarity to a
portfolio of existing customers.

Configuration is read from --config (or $LEADREC_CONFIG) and LEADREC_*
environment variables; flags win over both.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.flushMetrics()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (YAML)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: console or json")
	pf.String("metrics-file", "", "write Prometheus metrics to this file on exit")
	pf.String("store", "", "model store URL: file:///dir, s3://bucket/prefix, minio://host/bucket/prefix")
	pf.String("ddb-table", "", "DynamoDB table for atomic CURRENT commits on s3 stores")

	root.AddCommand(
		newFitCmd(a),
		newPredictCmd(a),
		newEvaluateCmd(a),
		newInspectCmd(a),
		newSchemaCmd(a),
		newModelsCmd(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.File, _ = flags.GetString("metrics-file")
	}
	if flags.Changed("store") {
		cfg.Store.URL, _ = flags.GetString("store")
	}
	if flags.Changed("ddb-table") {
		cfg.Store.DDBTable, _ = flags.GetString("ddb-table")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cfg.Log.Output = cmd.ErrOrStderr()
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger
	a.slog = logging.NewSlogLogger(logger)
	a.registry = prometheus.NewRegistry()
	a.metrics = prom.New(a.registry)
	return nil
}

func (a *app) flushMetrics() error {
	if a.cfg == nil || a.cfg.Metrics.File == "" {
		return nil
	}
	if err := prom.WriteTextfile(a.cfg.Metrics.File, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	a.log.Debug().Str("path", a.cfg.Metrics.File).Msg("metrics written")
	return nil
}

// options translates the configuration into library options.
func (a *app) options() ([]leadrec.Option, error) {
	c, ok := codec.ByName(a.cfg.Artifact.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", a.cfg.Artifact.Codec)
	}
	comp, err := persistence.ParseCompression(a.cfg.Artifact.Compression)
	if err != nil {
		return nil, err
	}

	opts := []leadrec.Option{
		leadrec.WithParams(a.cfg.Params()),
		leadrec.WithBatchSize(a.cfg.Ranker.BatchSize),
		leadrec.WithWorkers(a.cfg.Ranker.Workers),
		leadrec.WithCodec(c),
		leadrec.WithCompression(comp),
		leadrec.WithMetricsCollector(a.metrics),
		leadrec.WithLogger(leadrec.NewLogger(a.slog.Handler())),
	}
	if t := a.cfg.Data.MissingThreshold; t != nil {
		opts = append(opts, leadrec.WithMissingThreshold(*t))
	}
	if a.cfg.Ranker.MemoryLimit > 0 || a.cfg.Artifact.IOLimit > 0 {
		opts = append(opts, leadrec.WithResourceController(resource.NewController(resource.Config{
			MemoryLimitBytes:   a.cfg.Ranker.MemoryLimit,
			IOLimitBytesPerSec: a.cfg.Artifact.IOLimit,
		})))
	}
	return opts, nil
}

func (a *app) csvOptions() []dataset.CSVOption {
	return []dataset.CSVOption{dataset.WithComma([]rune(a.cfg.Data.Comma)[0])}
}

func (a *app) readPortfolios(paths []string) ([][]string, error) {
	out := make([][]string, len(paths))
	for i, p := range paths {
		ids, err := dataset.ReadPortfolioFile(p, a.cfg.Data.IDColumn, a.csvOptions()...)
		if err != nil {
			return nil, err
		}
		out[i] = ids
	}
	return out, nil
}
