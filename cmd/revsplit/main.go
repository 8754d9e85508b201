package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/revsplit/internal/analytics"
	"github.com/andresuchdata/revsplit/internal/domain"
	"github.com/andresuchdata/revsplit/internal/export"
	"github.com/andresuchdata/revsplit/internal/ingest"
	"github.com/andresuchdata/revsplit/internal/repository/postgres"
	"github.com/andresuchdata/revsplit/internal/service"
	"github.com/andresuchdata/revsplit/pkg/logger"
)

func newFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Sales export to read (.csv or .xlsx)",
		Required: true,
	}
}

func newFilterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "start", Usage: "Inclusive start date (day.month)"},
		&cli.StringFlag{Name: "end", Usage: "Inclusive end date (day.month)"},
	}
}

func newProcessorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "cutoff",
			Usage:   "First row index excluded from price learning (0 disables)",
			Value:   analytics.DefaultLearningCutoffRowIndex,
			EnvVars: []string{"APP_LEARNING_CUTOFF_ROW_INDEX"},
		},
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "Goroutines used to allocate rows",
			Value:   1,
			EnvVars: []string{"APP_ANALYTICS_WORKERS"},
		},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		logger.Log.Warn().Err(err).Msg("could not load .env file")
	}

	app := &cli.App{
		Name:  "revsplit",
		Usage: "Split multi-product sales totals into per-product revenue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				EnvVars: []string{"APP_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "analyze",
				Usage:  "Print the dashboard for a sales export as JSON",
				Flags:  append(append([]cli.Flag{newFileFlag()}, newFilterFlags()...), newProcessorFlags()...),
				Action: runAnalyze,
			},
			{
				Name:  "export",
				Usage: "Write the per-line revenue breakdown of a sales export",
				Flags: append(append([]cli.Flag{
					newFileFlag(),
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output path, stdout when empty",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "csv or xlsx, inferred from --out when empty",
					},
					&cli.StringFlag{
						Name:  "method",
						Usage: "Only rows allocated by this method (single, learned, learned_residual, quantity_share)",
					},
				}, newFilterFlags()...), newProcessorFlags()...),
				Action: runExport,
			},
			{
				Name:  "import",
				Usage: "Store a sales export in the database",
				Flags: []cli.Flag{
					newFileFlag(),
					&cli.StringFlag{
						Name:     "db-url",
						Usage:    "Database connection string",
						Required: true,
						EnvVars:  []string{"DATABASE_URL"},
					},
				},
				Action: runImport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("revsplit failed")
	}
}

func newProcessor(c *cli.Context) *analytics.Processor {
	return analytics.NewProcessor(analytics.Config{
		LearningCutoffRowIndex: c.Int("cutoff"),
		Workers:                c.Int("workers"),
		Now:                    time.Now,
		Logger:                 logger.Component("analytics"),
	})
}

func readRows(path string) ([]domain.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ingest.Read(path, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

func filterFrom(c *cli.Context) domain.DateFilter {
	return domain.DateFilter{Start: c.String("start"), End: c.String("end")}
}

func runAnalyze(c *cli.Context) error {
	rows, err := readRows(c.String("file"))
	if err != nil {
		return err
	}

	data, err := newProcessor(c).Process(rows, filterFrom(c))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func runExport(c *cli.Context) error {
	rows, err := readRows(c.String("file"))
	if err != nil {
		return err
	}

	allocs, err := newProcessor(c).Allocations(rows, filterFrom(c))
	if err != nil {
		return err
	}
	allocs, err = export.FilterMethod(allocs, c.String("method"))
	if err != nil {
		return err
	}

	out := c.String("out")
	format := exportFormat(c.String("format"), out)

	if out == "" {
		return export.Write(c.App.Writer, format, allocs)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := export.Write(f, format, allocs); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out, err)
	}

	logger.Log.Info().Str("path", out).Int("rows", len(allocs)).Msg("wrote breakdown")
	return nil
}

func exportFormat(format, out string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	if strings.EqualFold(filepath.Ext(out), ".xlsx") {
		return export.FormatXLSX
	}
	return export.FormatCSV
}

func runImport(c *cli.Context) error {
	db, err := postgres.Open("pgx", c.String("db-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.EnsureSchema(c.Context, db); err != nil {
		return err
	}

	path := c.String("file")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	svc := service.NewDashboardService(postgres.NewDatasetRepository(db), nil, nil, nil)
	ds, err := svc.ImportDataset(c.Context, path, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "imported %s (%d rows) as %s\n", ds.Filename, ds.RowCount, ds.ID)
	return nil
}
