// Command govtable is a thin operational front-end over the adapter: it
// declares table schemas and runs ad-hoc scans, emitting rows as JSON lines.
// The host SQL engine integrates through pkg/adapter directly; this binary
// exists for smoke-testing credentials, collections, and filters.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicdata/govtable/pkg/adapter"
	"github.com/civicdata/govtable/pkg/config"
	_ "github.com/civicdata/govtable/pkg/govinfo"
	"github.com/civicdata/govtable/pkg/logger"
	"github.com/civicdata/govtable/pkg/query"
	"github.com/civicdata/govtable/pkg/schema"
)

var (
	flagConfig     string
	flagAPIKey     string
	flagBaseURL    string
	flagCollection string
	flagPageSize   int
	flagTimeout    time.Duration
	flagLogLevel   string

	flagSince    string
	flagUntil    string
	flagDocClass string
	flagCongress int
	flagLimit    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "govtable",
		Short: "GovInfo virtual table adapter",
		Long:  "Exposes the GovInfo collections API as a filterable virtual table.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{
				Level:    flagLogLevel,
				Encoding: "json",
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", os.Getenv("GOVINFO_API_KEY"), "GovInfo API key (default $GOVINFO_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "override the API base URL")
	rootCmd.PersistentFlags().StringVar(&flagCollection, "collection", "BILLS", "GovInfo collection code")
	rootCmd.PersistentFlags().IntVar(&flagPageSize, "page-size", 0, "remote page size hint")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "per-request timeout")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the collections table and print rows as JSON lines",
		RunE:  runScan,
	}
	scanCmd.Flags().StringVar(&flagSince, "since", "", "last_modified lower bound (2006-01-02T15:04:05Z)")
	scanCmd.Flags().StringVar(&flagUntil, "until", "", "last_modified upper bound (2006-01-02T15:04:05Z)")
	scanCmd.Flags().StringVar(&flagDocClass, "doc-class", "", "filter on doc_class")
	scanCmd.Flags().IntVar(&flagCongress, "congress", 0, "filter on congress number")
	scanCmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum rows to emit (0 = unlimited)")

	columnsCmd := &cobra.Command{
		Use:   "columns",
		Short: "Print the declared table schema",
		RunE:  runColumns,
	}

	rootCmd.AddCommand(scanCmd, columnsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildConfig assembles the adapter config from the config file (if any) and
// flag overrides.
func buildConfig() (*config.AdapterConfig, error) {
	cfg := config.NewAdapterConfig(flagCollection)
	if flagConfig != "" {
		if err := config.Load(flagConfig, cfg); err != nil {
			return nil, err
		}
	}

	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagPageSize > 0 {
		cfg.PageSize = flagPageSize
	}
	if flagTimeout > 0 {
		cfg.RequestTimeout = flagTimeout
	}
	cfg.Observability.LogLevel = flagLogLevel

	return cfg, nil
}

func runColumns(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	table, err := adapter.Open("govinfo", cfg)
	if err != nil {
		return err
	}
	defer table.Close()

	enc := gojson.NewEncoder(os.Stdout)
	for _, col := range table.Columns() {
		out := map[string]interface{}{
			"name":     col.Name,
			"type":     string(col.Type),
			"filter":   col.Filter.String(),
			"sortable": col.Sortable,
			"required": col.Required,
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	table, err := adapter.Open("govinfo", cfg)
	if err != nil {
		return err
	}
	defer table.Close()

	req := query.Request{Limit: flagLimit}
	if flagSince != "" {
		req.Predicates = append(req.Predicates, query.Predicate{
			Column: "last_modified", Op: query.OpGe, Value: flagSince,
		})
	}
	if flagUntil != "" {
		req.Predicates = append(req.Predicates, query.Predicate{
			Column: "last_modified", Op: query.OpLe, Value: flagUntil,
		})
	}
	if flagDocClass != "" {
		req.Predicates = append(req.Predicates, query.Predicate{
			Column: "doc_class", Op: query.OpEq, Value: flagDocClass,
		})
	}
	if flagCongress > 0 {
		req.Predicates = append(req.Predicates, query.Predicate{
			Column: "congress", Op: query.OpEq, Value: flagCongress,
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sc, err := table.Scan(ctx, req)
	if err != nil {
		return err
	}
	defer sc.Close()

	columns := table.Columns()
	enc := gojson.NewEncoder(os.Stdout)
	for sc.Next(ctx) {
		row := sc.Row()
		out := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			out[col.Name] = formatValue(col.Type, row[i])
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	summary := sc.Summary()
	logger.Get().Info("scan finished",
		zap.Int64("rows_emitted", summary.RowsEmitted),
		zap.Int64("rows_skipped", summary.RowsSkipped),
		zap.Int64("pages_fetched", summary.PagesFetched))
	return nil
}

// formatValue renders temporal values in their declared wire format so output
// round-trips cleanly.
func formatValue(t schema.FieldType, v interface{}) interface{} {
	ts, ok := v.(time.Time)
	if !ok {
		return v
	}
	if t == schema.FieldTypeDate {
		return ts.Format(schema.DateFormat)
	}
	return ts.UTC().Format(schema.DatetimeFormat)
}
