package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/agents"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/api"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/knowledge"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/lockfile"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/messaging"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/scheduler"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/seed"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/store"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/twiliosms"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for ChaseFlow state data
	DefaultStateDir = "/var/lib/chaseflow"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "chaseflow.db"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Start the service
	if err := run(flags); err != nil {
		slog.Error("ChaseFlow failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("ChaseFlow exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL   string
	StateDir      string
	APIAddr       string
	PollInterval  time.Duration
	SMSSimulation bool
	ProvidersFile string
	SeedDemoData  bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir      *string
	dbDSN         *string
	apiAddr       *string
	pollInterval  *time.Duration
	providersFile *string
	smsSimulation *bool
	seedDemoData  *bool
}

// initializeLogger sets up structured logging. CHASEFLOW_LOG_LEVEL selects
// the level; anything unrecognized falls back to debug.
func initializeLogger() {
	level := slog.LevelDebug
	switch strings.ToLower(os.Getenv("CHASEFLOW_LOG_LEVEL")) {
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      os.Getenv("CHASEFLOW_STATE_DIR"),
		APIAddr:       os.Getenv("API_ADDR"),
		PollInterval:  util.ParseDurationEnv("CHASEFLOW_POLL_INTERVAL", scheduler.DefaultPollInterval),
		SMSSimulation: util.ParseBoolEnv("CHASEFLOW_SMS_SIMULATION", true),
		ProvidersFile: os.Getenv("CHASEFLOW_PROVIDERS_FILE"),
		SeedDemoData:  util.ParseBoolEnv("CHASEFLOW_SEED_DEMO_DATA", true),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CHASEFLOW_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("CHASEFLOW_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"CHASEFLOW_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"CHASEFLOW_POLL_INTERVAL", config.PollInterval,
		"CHASEFLOW_SMS_SIMULATION", config.SMSSimulation,
		"CHASEFLOW_PROVIDERS_FILE_SET", config.ProvidersFile != "",
		"CHASEFLOW_SEED_DEMO_DATA", config.SeedDemoData)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for ChaseFlow data (overrides $CHASEFLOW_STATE_DIR)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN for the chase store (overrides $DATABASE_URL)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		pollInterval:  flag.Duration("poll-interval", config.PollInterval, "chase loop poll interval (overrides $CHASEFLOW_POLL_INTERVAL)"),
		providersFile: flag.String("providers-file", config.ProvidersFile, "YAML file of provider response profiles (overrides $CHASEFLOW_PROVIDERS_FILE)"),
		smsSimulation: flag.Bool("sms-simulation", config.SMSSimulation, "log outbound messages instead of sending via Twilio (overrides $CHASEFLOW_SMS_SIMULATION)"),
		seedDemoData:  flag.Bool("seed-demo-data", config.SeedDemoData, "populate an empty store with demo data (overrides $CHASEFLOW_SEED_DEMO_DATA)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"pollInterval", *flags.pollInterval,
		"providersFile", *flags.providersFile,
		"smsSimulation", *flags.smsSimulation,
		"seedDemoData", *flags.seedDemoData)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	// Ensure state directory exists if we're using a file-based DSN
	if !strings.Contains(*flags.dbDSN, "postgres://") && !strings.Contains(*flags.dbDSN, "host=") {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
		slog.Debug("State directory created successfully", "state_dir", stateDir)
	}
	return nil
}

// buildStore constructs the chase store for the configured DSN.
func buildStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if dsn == "" {
		slog.Debug("No database DSN provided, will use in-memory store")
		return store.NewInMemoryStore(), nil
	}
	// Check if it's a PostgreSQL DSN using the shared detection function
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	// Assume SQLite for file paths
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// buildProviderDirectory loads the provider knowledge base, overlaying the
// optional YAML file on the builtin profiles.
func buildProviderDirectory(flags Flags) (*knowledge.Directory, error) {
	directory := knowledge.NewDirectory()
	if *flags.providersFile != "" {
		if err := directory.LoadFile(*flags.providersFile); err != nil {
			return nil, fmt.Errorf("failed to load providers file: %w", err)
		}
		slog.Debug("Provider directory loaded from file", "path", *flags.providersFile, "providers", directory.Len())
	}
	return directory, nil
}

// buildDeliveryService selects the outbound delivery stack. Simulation mode
// logs every message; otherwise SMS goes through Twilio and the remaining
// channels stay simulated.
func buildDeliveryService(flags Flags) (messaging.Service, error) {
	if *flags.smsSimulation {
		slog.Debug("Message delivery running in simulation mode")
		return messaging.NewSimulator(), nil
	}
	client, err := twiliosms.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to configure Twilio client: %w", err)
	}
	dispatcher := messaging.NewDispatcher(messaging.NewSimulator())
	dispatcher.Register(models.ChannelSMS, messaging.NewSMSService(client))
	slog.Debug("Twilio SMS delivery configured")
	return dispatcher, nil
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}

// run wires the modules together and serves until a shutdown signal arrives
// or the API server fails.
func run(flags Flags) error {
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Error("Failed to release lock file", "error", err)
		}
	}()

	st, err := buildStore(flags)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	directory, err := buildProviderDirectory(flags)
	if err != nil {
		return err
	}

	delivery, err := buildDeliveryService(flags)
	if err != nil {
		return err
	}

	// Agent activity lands in the store and on the WebSocket feed.
	hub := api.NewHub()
	storeSink := agents.SinkFunc(func(ctx context.Context, rec models.ActivityRecord) error {
		return st.RecordActivity(rec)
	})
	orchestrator := agents.NewOrchestrator(directory, agents.WithSink(agents.MultiSink(storeSink, hub)))

	if *flags.seedDemoData {
		seeded, err := seed.SeedIfEmpty(st, seed.NewGenerator())
		if err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
		if seeded {
			slog.Info("Demo dataset seeded into empty store")
		}
	}

	runner := scheduler.NewRunner(st, orchestrator, delivery)
	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddEvery(*flags.pollInterval, func() {
		if err := runner.RunTick(context.Background()); err != nil {
			slog.Error("Chase tick failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule chase loop: %w", err)
	}

	srv := api.NewServer(st, orchestrator, runner, hub, buildAPIOptions(flags)...)

	slog.Info("Bootstrapping ChaseFlow with configured modules")
	slog.Debug("Final configuration",
		"state_dir", *flags.stateDir,
		"dsn_set", *flags.dbDSN != "",
		"api_addr", *flags.apiAddr,
		"poll_interval", *flags.pollInterval,
		"sms_simulation", *flags.smsSimulation,
		"seed_demo_data", *flags.seedDemoData)

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Run()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case err := <-errs:
		if err != nil {
			return err
		}
		slog.Info("API server stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
