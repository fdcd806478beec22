package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/starmap/internal/catalog"
	"github.com/cory-johannsen/starmap/internal/config"
	"github.com/cory-johannsen/starmap/internal/mapserver"
	"github.com/cory-johannsen/starmap/internal/observability"
	"github.com/cory-johannsen/starmap/internal/storage"
)

// errLocalOnly is returned by commands that need the catalog in-process.
var errLocalOnly = errors.New("this command needs a local catalog and cannot be used with --server")

type callFunc func(ctx context.Context, method string, req map[string]any) (map[string]any, error)

// app holds state shared by every subcommand for one invocation.
type app struct {
	out io.Writer

	configPath string
	envFile    string
	serverAddr string
	catalogDir string
	sqlitePath string
	verbose    bool

	logger  *zap.Logger
	catalog *catalog.Catalog
	call    callFunc
	closers []func()
}

func run(ctx context.Context, args []string, out io.Writer) error {
	a := &app{out: out}
	defer a.close()
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "starmap",
		Short:         "Query the star map: nearby stars, travel times and jump routes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "config file (default: built-in defaults and STARMAP_ environment)")
	f.StringVar(&a.envFile, "env-file", ".env", "optional dotenv file")
	f.StringVar(&a.serverAddr, "server", "", "query a running starmapd at host:port instead of a local catalog")
	f.StringVar(&a.catalogDir, "catalog", "", "star system directory (overrides catalog.dir)")
	f.StringVar(&a.sqlitePath, "sqlite", "", "store saved routes in this SQLite file (overrides storage settings)")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		a.nearbyCmd(),
		a.travelCmd(),
		a.planCmd(),
		a.statsCmd(),
		a.routesCmd(),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.catalogDir != "" {
		cfg.Catalog.Dir = a.catalogDir
	}
	if a.sqlitePath != "" {
		cfg.Storage.Driver = "sqlite"
		cfg.Storage.SQLitePath = a.sqlitePath
	}

	// Command output goes to stdout; logs stay quiet on stderr unless asked for.
	cfg.Logging = config.LoggingConfig{Level: "warn", Format: "console"}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if a.logger, err = observability.NewLogger(cfg.Logging); err != nil {
		return err
	}
	a.closers = append(a.closers, func() { _ = a.logger.Sync() })

	if a.serverAddr != "" {
		return a.connect()
	}
	return a.loadLocal(ctx, cfg)
}

func (a *app) connect() error {
	conn, err := grpc.NewClient(a.serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", a.serverAddr, err)
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })
	client := mapserver.NewClient(conn)
	a.call = func(ctx context.Context, method string, req map[string]any) (map[string]any, error) {
		return client.Call(ctx, method, req)
	}
	return nil
}

func (a *app) loadLocal(ctx context.Context, cfg config.Config) error {
	a.catalog = catalog.New(a.logger)
	source := &catalog.DirSource{
		Dir:          cfg.Catalog.Dir,
		OverridesDir: cfg.Catalog.OverridesDir,
		Workers:      cfg.Catalog.LoadWorkers,
		Logger:       a.logger,
	}
	if err := a.catalog.Load(ctx, source); err != nil {
		return err
	}

	store, closeStore, err := storage.Open(ctx, cfg, a.logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closeStore)

	var opts []mapserver.Option
	if store != nil {
		opts = append(opts, mapserver.WithStore(store))
	}
	srv := mapserver.NewServer(a.catalog, a.logger, opts...)
	a.call = func(ctx context.Context, method string, req map[string]any) (map[string]any, error) {
		return mapserver.Invoke(ctx, srv, method, req)
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// print writes v to the command output as YAML.
func (a *app) print(v any) error {
	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// query calls method and prints the response.
func (a *app) query(ctx context.Context, method string, req map[string]any) error {
	resp, err := a.call(ctx, method, req)
	if err != nil {
		return err
	}
	return a.print(resp)
}
