package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	httpmetrics "github.com/netopsio/srpulse/internal/interfaces/http"
)

const version = "v1.4.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	// Optional .env seeding for PG_DSN / DB_* before any config resolution.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg(".env loaded")
	}

	httpmetrics.InitializeMetrics()

	rootCmd := &cobra.Command{
		Use:     "srpulse",
		Short:   "Daily service-request analytics engine",
		Version: version,
		Long: `srpulse ingests daily service-request exports and derives rolling
baselines, z-score anomalies, regression trends, period variations, RCA
annotations, executive insights, and resolution statistics, served over a
local read-only HTTP API.`,
	}
	rootCmd.PersistentFlags().String("config", defaultConfigPath, "Pipeline configuration file")
	// Accept snake_case flag spellings so they line up with the config keys.
	rootCmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full daily pipeline",
		Long:  "Ingest (optional), validate, baseline (optional), and derive every analytics table for one target date",
		RunE:  runPipeline,
	}
	runCmd.Flags().String("file", "", "Source SR export to ingest before the analytics stages")
	runCmd.Flags().String("date", "", "Target date (YYYY-MM-DD), defaults to yesterday")
	runCmd.Flags().Bool("baseline", true, "Rebuild baseline artifacts before anomaly detection")
	runCmd.Flags().Bool("no-ingest", false, "Skip ingestion even when --file is set")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load one SR export into complaints_raw",
		Long:  "Decode, normalize, and upsert a delimited SR export without running the analytics stages",
		RunE:  runIngest,
	}
	ingestCmd.Flags().String("file", "", "Source SR export (required)")
	_ = ingestCmd.MarkFlagRequired("file")

	baselineCmd := &cobra.Command{
		Use:   "baseline",
		Short: "Rebuild rolling baseline artifacts",
		Long:  "Recompute the per-dimension rolling baselines from complaints_raw and rewrite the JSON artifacts",
		RunE:  runBaseline,
	}
	baselineCmd.Flags().String("date", "", "Target date (YYYY-MM-DD), defaults to yesterday")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only HTTP API",
		Long:  "Serve /health, /metrics, and the /api/v1 read models over the derived tables",
		RunE:  runServe,
	}
	serveCmd.Flags().String("host", "", "Bind host (defaults to the configured server.host)")
	serveCmd.Flags().Int("port", 0, "Bind port (defaults to the configured server.port)")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a spool directory and pipeline new exports",
		Long:  "Run the full pipeline for every new .csv/.txt file dropped into the spool directory, then archive the file",
		RunE:  runWatch,
	}
	watchCmd.Flags().String("dir", "", "Spool directory to watch (required)")
	_ = watchCmd.MarkFlagRequired("dir")
	watchCmd.Flags().String("date", "", "Fixed target date for every file (YYYY-MM-DD), defaults to yesterday at processing time")
	watchCmd.Flags().Bool("baseline", true, "Rebuild baseline artifacts on every run")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Apply the embedded schema migrations to the configured database",
		RunE:  runMigrate,
	}
	migrateCmd.Flags().Bool("status", false, "Print migration status instead of applying")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
