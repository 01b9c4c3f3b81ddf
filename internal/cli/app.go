package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/stoik/email-fraud-classifier/internal/adapters/dataset"
	"github.com/stoik/email-fraud-classifier/internal/adapters/storage"
	"github.com/stoik/email-fraud-classifier/internal/application"
	"github.com/stoik/email-fraud-classifier/internal/config"
	"github.com/stoik/email-fraud-classifier/internal/logging"
	"github.com/stoik/email-fraud-classifier/internal/ports"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"

	configFlag   = "config"
	logLevelFlag = "log-level"
	dbFlag       = "db"
	noStoreFlag  = "no-store"
	strictFlag   = "strict"
	dataFlag     = "data"
)

var version = "v0.0.1-default"

// Execute creates and runs the CLI application.
func Execute() {
	if err := NewCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// app carries what Before resolves to every command
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	storage ports.Storage
	strict  bool
	out     io.Writer
}

// NewCommand builds the root command
func NewCommand() *urfave.Command {
	a := &app{}
	return &urfave.Command{
		Name:    "fraud-classifier",
		Version: version,
		Usage:   "Classify emails as fraudulent or legitimate",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  configFlag,
				Usage: "Path to a YAML config file (default: $FRAUD_CLASSIFIER_CONFIG)",
			},
			&urfave.StringFlag{
				Name:  logLevelFlag,
				Usage: "Log level [debug, info, warn, error]",
			},
			&urfave.StringFlag{
				Name:  dbFlag,
				Usage: "Path to the SQLite history database",
			},
			&urfave.BoolFlag{
				Name:  noStoreFlag,
				Usage: "Do not record training runs and predictions",
			},
			&urfave.BoolFlag{
				Name:  strictFlag,
				Usage: "Fail on dataset errors instead of using the demonstration corpus",
			},
		},
		Commands: []*urfave.Command{
			a.loadCmd(),
			a.trainCmd(),
			a.predictCmd(),
			a.historyCmd(),
			a.serveCmd(),
		},
		Before: a.before,
		After:  a.after,
	}
}

func (a *app) before(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String(configFlag))
	if err != nil {
		return ctx, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.IsSet(logLevelFlag) {
		cfg.LogLevel = cmd.String(logLevelFlag)
	}
	if cmd.IsSet(dbFlag) {
		cfg.Storage.SQLitePath = cmd.String(dbFlag)
		cfg.Storage.DatabaseURL = ""
	}

	a.cfg = cfg
	a.strict = cmd.Bool(strictFlag)
	a.logger = logging.New(cfg.LogLevel)
	a.out = cmd.Root().Writer
	if a.out == nil {
		a.out = os.Stdout
	}

	if cmd.Bool(noStoreFlag) {
		return ctx, nil
	}
	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return ctx, err
	}
	a.storage = store
	return ctx, nil
}

func (a *app) after(_ context.Context, _ *urfave.Command) error {
	if a.storage != nil {
		return a.storage.Close()
	}
	return nil
}

// openStorage picks Postgres when a database URL is configured, SQLite otherwise
func openStorage(ctx context.Context, cfg config.StorageConfig) (ports.Storage, error) {
	var (
		store ports.Storage
		err   error
	)
	switch {
	case cfg.DatabaseURL != "":
		store, err = storage.NewPostgresStore(cfg.DatabaseURL)
	case cfg.SQLitePath != "":
		store, err = storage.NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := store.InitSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func (a *app) newService(autoTrain bool) *application.ClassificationService {
	return application.NewClassificationService(
		dataset.NewCSVSource(a.cfg.Dataset.Dir, a.logger),
		a.storage,
		application.ServiceOptions{
			Pipeline:   a.cfg.PipelineOptions(),
			Strict:     a.strict,
			AutoTrain:  autoTrain,
			DemoCorpus: dataset.DemoCorpus,
		},
		a.logger,
	)
}

func newDataFlag() *urfave.StringFlag {
	return &urfave.StringFlag{
		Name:  dataFlag,
		Usage: "Dataset to load before training (default: dataset.path from config)",
	}
}

// dataPath returns --data when set, else the configured dataset path
func (a *app) dataPath(cmd *urfave.Command) string {
	if path := cmd.String(dataFlag); path != "" {
		return path
	}
	return a.cfg.Dataset.Path
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) encode(format string, v any) error {
	if format == formatYAML || format == "yml" {
		return yaml.NewEncoder(a.out).Encode(v)
	}
	e := json.NewEncoder(a.out)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
