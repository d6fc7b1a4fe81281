// Command botscope classifies GitHub contributors as humans, bots,
// organizations or invalid accounts from their public activity.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/alimgiray/botscope/internal/classifier"
	"github.com/alimgiray/botscope/internal/models"
	"github.com/alimgiray/botscope/internal/predictor"
	"github.com/alimgiray/botscope/internal/report"
	"github.com/alimgiray/botscope/internal/repositories"
	"github.com/alimgiray/botscope/internal/services"
	"github.com/alimgiray/botscope/pkg/config"
	"github.com/alimgiray/botscope/pkg/database"
	"github.com/alimgiray/botscope/pkg/logger"
)

const minTokenLength = 40

var errNoLogins = errors.New("provide either contributor names or an input file")

type options struct {
	inputFile     string
	key           string
	minEvents     int
	minConfidence float64
	maxQueries    int
	stopMetric    string
	workers       int
	format        string
	output        string
	incremental   bool
	verbose       bool
	dbPath        string
	modelPath     string
	logLevel      string
	logFormat     string
	logins        []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := config.Load(); err != nil {
		fmt.Fprintf(stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	cfg := config.AppConfig
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger.Configure(opts.logLevel, opts.logFormat, stderr)

	logins, err := collectLogins(opts)
	if errors.Is(err, errNoLogins) {
		fmt.Fprintln(stderr, "Error: Provide either contributor names or an input file.")
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if format.NeedsFile() && opts.output == "" {
		fmt.Fprintf(stderr, "Error: Output path must be specified for %s format.\n", format)
		return 1
	}
	writer, err := report.NewWriter(format, opts.verbose)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if len(opts.key) < minTokenLength {
		fmt.Fprintln(stderr, "Warning: A valid GitHub API key is recommended for higher rate limits.")
	}

	model, err := predictor.LoadFile(opts.modelPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	service, closeDB, err := buildService(cfg, opts, model)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeDB()

	emit := func(rows []report.Row) error {
		if format.NeedsFile() {
			return report.SaveFile(opts.output, writer, rows)
		}
		return writer.Write(stdout, rows)
	}

	var mu sync.Mutex
	var saveErr error
	done := make(map[int]report.Row)
	onResult := func(index int, result *models.ClassificationResult) {
		if !opts.incremental {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done[index] = report.RowsFromResults([]*models.ClassificationResult{result})[0]
		if err := emit(rowsInOrder(done)); err != nil && saveErr == nil {
			saveErr = err
		}
	}

	_, results, runErr := service.Run(ctx, logins, opts.verbose, onResult)
	if runErr != nil {
		logger.WithError(runErr).Warn("classification interrupted")
	}

	if !opts.incremental {
		if err := emit(report.RowsFromResults(results)); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	} else if saveErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", saveErr)
		return 1
	}

	if runErr != nil {
		return 1
	}
	return 0
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("botscope", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: botscope [flags] [login ...]")
		fmt.Fprintln(stderr, "Identify bot contributors based on their activity sequences in GitHub.")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.inputFile, "input-file", "", "Path to a text file of login names (one per line)")
	fs.StringVar(&opts.key, "key", cfg.GitHub.Token, "GitHub API key (required for more than 60 queries per hour)")
	fs.IntVar(&opts.minEvents, "min-events", cfg.Classifier.MinEvents, "Min number of events required (1-300)")
	fs.Float64Var(&opts.minConfidence, "min-confidence", cfg.Classifier.MinConfidence, "Confidence threshold to stop querying (0-1)")
	fs.IntVar(&opts.maxQueries, "max-queries", cfg.Classifier.MaxQueries, "Max event queries per contributor (1-3)")
	fs.StringVar(&opts.stopMetric, "stop-metric", cfg.Classifier.StopMetric, "Value compared with the threshold: confidence or probability")
	fs.IntVar(&opts.workers, "workers", cfg.Workers.Classify, "Number of contributors classified concurrently")
	fs.StringVar(&opts.format, "format", string(report.FormatTerminal), "Output format: term, csv, json or xlsx")
	fs.StringVar(&opts.output, "output", "", "Path to save the results")
	fs.BoolVar(&opts.incremental, "incremental", false, "Report results as soon as each contributor is done")
	fs.BoolVar(&opts.verbose, "verbose", cfg.Classifier.IncludeFeatures, "Include the extracted features")
	fs.StringVar(&opts.dbPath, "db", "", "SQLite database to store the outcomes in")
	fs.StringVar(&opts.modelPath, "model", cfg.Model.Path, "Path to the model artifact")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.logins = fs.Args()

	if opts.minEvents < 1 || opts.minEvents > 300 {
		return nil, fmt.Errorf("-min-events must be within [1, 300], got %d", opts.minEvents)
	}
	if opts.minConfidence < 0 || opts.minConfidence > 1 {
		return nil, fmt.Errorf("-min-confidence must be within [0, 1], got %v", opts.minConfidence)
	}
	if opts.maxQueries < 1 || opts.maxQueries > 3 {
		return nil, fmt.Errorf("-max-queries must be within [1, 3], got %d", opts.maxQueries)
	}
	if opts.workers < 1 {
		return nil, fmt.Errorf("-workers must be at least 1, got %d", opts.workers)
	}

	return opts, nil
}

// collectLogins merges positional logins with the input file, in that order
func collectLogins(opts *options) ([]string, error) {
	logins := append([]string{}, opts.logins...)

	if opts.inputFile != "" {
		f, err := os.Open(opts.inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			logins = append(logins, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
	}

	logins = services.CleanLogins(logins)
	if len(logins) == 0 {
		return nil, errNoLogins
	}
	return logins, nil
}

func buildService(cfg *config.Config, opts *options, model *predictor.Model) (*services.ClassificationService, func(), error) {
	ghCfg := cfg.GitHub
	ghCfg.Token = opts.key
	github, err := services.NewGitHubService(ghCfg)
	if err != nil {
		return nil, nil, err
	}

	rate := cfg.Budget.RatePerHour
	if opts.key == "" && rate > 60 {
		rate = 60
	}
	budget := classifier.NewQueryBudget(rate, cfg.Budget.Burst, cfg.Budget.Limit)

	orchestrator, err := classifier.NewOrchestrator(github, github, model, budget, classifier.Options{
		MinEvents:       opts.minEvents,
		MinConfidence:   opts.minConfidence,
		MaxQueries:      opts.maxQueries,
		IncludeFeatures: opts.verbose,
		StopMetric:      classifier.StopMetric(opts.stopMetric),
	})
	if err != nil {
		return nil, nil, err
	}

	if opts.dbPath == "" {
		return services.NewClassificationService(orchestrator, opts.workers, nil, nil, nil), func() {}, nil
	}

	db, err := database.Open(opts.dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	service := services.NewClassificationService(orchestrator, opts.workers,
		repositories.NewBatchRepository(db),
		repositories.NewClassificationRepository(db),
		nil,
	)
	return service, func() { db.Close() }, nil
}

func rowsInOrder(done map[int]report.Row) []report.Row {
	indexes := make([]int, 0, len(done))
	for i := range done {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	rows := make([]report.Row, 0, len(indexes))
	for _, i := range indexes {
		rows = append(rows, done[i])
	}
	return rows
}
