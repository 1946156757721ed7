// hybridquery runs a SPARQL-shaped query against a static endpoint and a
// reference time-series backend, printing the combined result as a table.
//
// Grounded on cmd/datalog/main.go's shape (parse flags, open a backend,
// run a query or an interactive loop, render results) but built on
// spf13/cobra rather than the teacher's bare flag package, since cobra is
// already the CLI framework this module's go.mod carries; pgtofu (another
// pack repo) shows the same cobra root-command-plus-flags style this
// borrows for subcommand/flag wiring.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wbrown/hybridgraph/backend"
	"github.com/wbrown/hybridgraph/backend/bucketagg"
	"github.com/wbrown/hybridgraph/backend/memframe"
	"github.com/wbrown/hybridgraph/orchestrator"
	"github.com/wbrown/hybridgraph/pushdown"
	"github.com/wbrown/hybridgraph/rewritecache"
	"github.com/wbrown/hybridgraph/staticsparql"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hybridquery",
		Short: "Run a hybrid SPARQL/time-series query",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		endpoint       string
		backendName    string
		pointsPath     string
		interval       time.Duration
		queryText      string
		queryFile      string
		cachePath      string
		verbose        bool
		disableGroupBy bool
		disableValues  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a query and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := resolveQueryText(queryText, queryFile)
			if err != nil {
				return err
			}

			logger, err := newLogger(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			points, err := loadPoints(pointsPath)
			if err != nil {
				return fmt.Errorf("loading points: %w", err)
			}

			be, err := newBackend(backendName, points, interval)
			if err != nil {
				return err
			}

			static := staticsparql.NewHTTPExecutor(endpoint, staticsparql.WithLogger(logger))

			settings := pushdown.Default().
				WithGroupBy(!disableGroupBy).
				WithValueConditions(!disableValues)

			opts := []orchestrator.Option{
				orchestrator.WithLogger(logger),
				orchestrator.WithPushdownSettings(settings),
			}
			if cachePath != "" {
				cache, err := rewritecache.Open(cachePath, logger)
				if err != nil {
					return fmt.Errorf("opening rewrite cache: %w", err)
				}
				defer cache.Close()
				opts = append(opts, orchestrator.WithRewriteCache(cache))
			}

			orc := orchestrator.New(static, be, opts...)
			result, err := orc.Execute(cmd.Context(), text)
			if err != nil {
				return err
			}
			defer result.Release()

			return renderTable(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "static SPARQL endpoint URL")
	cmd.Flags().StringVar(&backendName, "backend", "memframe", "time-series backend: memframe or bucketagg")
	cmd.Flags().StringVar(&pointsPath, "points", "", "CSV file of id,timestamp,value rows for the reference backend")
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "bucket width for the bucketagg backend")
	cmd.Flags().StringVar(&queryText, "query", "", "query text")
	cmd.Flags().StringVar(&queryFile, "query-file", "", "path to a file containing query text")
	cmd.Flags().StringVar(&cachePath, "cache", "", "Badger directory for the rewrite plan cache (disabled if empty)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	cmd.Flags().BoolVar(&disableGroupBy, "no-groupby-pushdown", false, "disable complex GROUP BY pushdown")
	cmd.Flags().BoolVar(&disableValues, "no-value-pushdown", false, "disable pushing ?value filters into the backend")
	cmd.MarkFlagRequired("endpoint")

	return cmd
}

func resolveQueryText(inline, path string) (string, error) {
	if inline != "" && path != "" {
		return "", fmt.Errorf("specify only one of --query or --query-file")
	}
	if inline != "" {
		return inline, nil
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(b), nil
	}
	return "", fmt.Errorf("one of --query or --query-file is required")
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	return cfg.Build()
}

func newBackend(name string, points []point, interval time.Duration) (backend.Queryable, error) {
	switch name {
	case "memframe":
		pts := make([]memframe.Point, len(points))
		for i, p := range points {
			pts[i] = memframe.Point{ID: p.ID, Timestamp: p.Timestamp, Value: p.Value}
		}
		return memframe.New(pts), nil
	case "bucketagg":
		pts := make([]bucketagg.Point, len(points))
		for i, p := range points {
			pts[i] = bucketagg.Point{ID: p.ID, Timestamp: p.Timestamp, Value: p.Value}
		}
		return bucketagg.New(pts, interval), nil
	default:
		return nil, fmt.Errorf("unrecognized backend %q (want memframe or bucketagg)", name)
	}
}
