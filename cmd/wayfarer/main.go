// Wayfarer is a generative travel-planning service.
//
// It turns trip criteria into structured itinerary documents via the
// Gemini API, rewrites saved documents under budget or situation
// changes, and answers free-form traveler questions through a panel of
// concierge personas. Configuration is loaded from a single YAML file
// discovered automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	wayfarer serve                 Start the API server
//	wayfarer init [dir]            Initialize a working directory with defaults
//	wayfarer plan <destination>    Generate an itinerary (for testing)
//	wayfarer ask <question>        Ask the concierge a single question
//	wayfarer version               Print version and build information
//	wayfarer -o json version       Output version information as JSON
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/wayfarerhq/wayfarer/internal/api"
	"github.com/wayfarerhq/wayfarer/internal/backoff"
	"github.com/wayfarerhq/wayfarer/internal/buildinfo"
	"github.com/wayfarerhq/wayfarer/internal/config"
	"github.com/wayfarerhq/wayfarer/internal/llm"
	"github.com/wayfarerhq/wayfarer/internal/persona"
	"github.com/wayfarerhq/wayfarer/internal/plan"
	"github.com/wayfarerhq/wayfarer/internal/store"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// main constructs the OS-level environment (context, stdio, argv) and
// delegates immediately to [run]. This keeps os.Exit, os.Stdout, and
// os.Args out of the application logic so the full startup-to-shutdown
// lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the wayfarer command. All OS-level
// dependencies are injected: ctx controls process lifetime, stdout and
// stderr receive all output, and args is os.Args[1:]. Arguments are
// parsed by hand; the flag package relies on package-level globals
// which interfere with calling run concurrently from tests, and the
// argument surface here is small.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "plan":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: wayfarer plan <destination> [args]")
		}
		return runPlan(ctx, stdout, configPath, cmdArgs)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: wayfarer ask <question>")
		}
		return runAsk(ctx, stdout, configPath, cmdArgs)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	// Print fields in a stable order for human readability.
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w. It is called when
// wayfarer is invoked with no arguments, or with -h / --help.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Wayfarer - Generative Travel Planner")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: wayfarer [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                Start the API server")
	fmt.Fprintln(w, "  init [dir]           Initialize a working directory (default: .)")
	fmt.Fprintln(w, "  plan <destination>   Generate an itinerary (for testing)")
	fmt.Fprintln(w, "      [-days N] [-budget tier] [-party arrangement] [-interests a,b]")
	fmt.Fprintln(w, "  ask <question>       Ask the concierge a single question")
	fmt.Fprintln(w, "  version              Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/wayfarer/config.yaml, /etc/wayfarer/config.yaml")
	return nil
}

// bootClient loads config and constructs the Gemini client plus the
// retry policy shared by the pipeline and the persona router.
func bootClient(configPath string, logger *slog.Logger) (*config.Config, string, llm.Client, backoff.Policy, error) {
	cfgPath, err := config.FindConfig(configPath)
	if err != nil {
		return nil, "", nil, backoff.Policy{}, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, "", nil, backoff.Policy{}, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	client, err := llm.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, logger)
	if err != nil {
		return nil, "", nil, backoff.Policy{}, err
	}

	policy := backoff.Policy{
		MaxRetries:     cfg.Retry.MaxRetries,
		InitialDelay:   cfg.Retry.InitialDelay(),
		MaxDelay:       cfg.Retry.MaxDelay(),
		AttemptTimeout: cfg.Retry.AttemptTimeout(),
	}
	return cfg, cfgPath, client, policy, nil
}

// runPlan handles the "wayfarer plan <destination>" subcommand. It runs
// one generation against the live model and prints the document as
// indented JSON. Useful for smoke tests without starting the server.
func runPlan(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	logger := newLogger(stdout, slog.LevelWarn)

	criteria := plan.Criteria{
		Destination:  args[0],
		DurationDays: 3,
		BudgetTier:   plan.BudgetMedium,
		Arrangement:  plan.TravelSolo,
	}
	for i := 1; i < len(args); i++ {
		switch {
		case args[i] == "-days" && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				return fmt.Errorf("invalid -days value: %q", args[i+1])
			}
			criteria.DurationDays = n
			i++
		case args[i] == "-budget" && i+1 < len(args):
			criteria.BudgetTier = plan.BudgetTier(args[i+1])
			i++
		case args[i] == "-party" && i+1 < len(args):
			criteria.Arrangement = plan.TravelerArrangement(args[i+1])
			i++
		case args[i] == "-interests" && i+1 < len(args):
			criteria.Interests = strings.Split(args[i+1], ",")
			i++
		default:
			return fmt.Errorf("unknown plan argument: %s", args[i])
		}
	}

	_, _, client, policy, err := bootClient(configPath, logger)
	if err != nil {
		return err
	}

	doc, err := plan.NewPipeline(client, policy, logger).Generate(ctx, criteria)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// runAsk handles the "wayfarer ask <question>" subcommand. It routes a
// single question through the persona router and prints the reply.
func runAsk(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	logger := newLogger(stdout, slog.LevelWarn)
	question := strings.Join(args, " ")

	_, _, client, policy, err := bootClient(configPath, logger)
	if err != nil {
		return err
	}

	reply, err := persona.NewRouter(client, policy, logger).Ask(ctx, question, "")
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintf(stdout, "[%s] %s\n", reply.PersonaName, reply.Text)
	return nil
}

// runServe handles the "wayfarer serve" subcommand. It is the primary
// operating mode: loads config, opens the trip database, constructs the
// pipeline and persona router, starts the API server, and blocks until
// a shutdown signal arrives.
//
// The shutdown sequence is:
//  1. SIGINT or SIGTERM cancels the context
//  2. The HTTP server drains in-flight requests
//  3. The trip database is closed via defer
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo)
	logger.Info("starting Wayfarer", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "branch", buildinfo.GitBranch, "built", buildinfo.BuildTime)

	cfgPath, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	// Reconfigure the logger now that we know the desired level. The
	// initial Info-level logger covers only the startup banner.
	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = newLogger(stdout, level)
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"model", cfg.Gemini.Model,
	)

	client, err := llm.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, logger)
	if err != nil {
		return err
	}

	// Startup credential check. A bad key should fail the process here,
	// not surface as retry exhaustion on the first user request.
	pingCtx, pingCancel := context.WithTimeout(ctx, 15*time.Second)
	err = client.Ping(pingCtx)
	pingCancel()
	if err != nil {
		return fmt.Errorf("gemini ping: %w", err)
	}
	logger.Info("gemini reachable", "model", cfg.Gemini.Model)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	dbPath := cfg.DataDir + "/wayfarer.db"
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("open trip database %s: %w", dbPath, err)
	}
	defer db.Close()

	trips, err := store.NewTripStore(db)
	if err != nil {
		return fmt.Errorf("init trip store: %w", err)
	}
	logger.Info("trip database opened", "path", dbPath)

	policy := backoff.Policy{
		MaxRetries:     cfg.Retry.MaxRetries,
		InitialDelay:   cfg.Retry.InitialDelay(),
		MaxDelay:       cfg.Retry.MaxDelay(),
		AttemptTimeout: cfg.Retry.AttemptTimeout(),
	}

	pipeline := plan.NewPipeline(client, policy, logger)
	router := persona.NewRouter(client, policy, logger)

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, pipeline, router, trips, logger)
	if cfg.ShareURL != "" {
		server.SetShareURL(cfg.ShareURL)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}
