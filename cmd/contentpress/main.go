package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/contentpress/internal/buildlog"
	"git.home.luguber.info/inful/contentpress/internal/config"
	"git.home.luguber.info/inful/contentpress/internal/errors"
	"git.home.luguber.info/inful/contentpress/internal/locale"
	"git.home.luguber.info/inful/contentpress/internal/logfields"
	"git.home.luguber.info/inful/contentpress/internal/metrics"
	"git.home.luguber.info/inful/contentpress/internal/pipeline"
	"git.home.luguber.info/inful/contentpress/internal/resolver"
	"git.home.luguber.info/inful/contentpress/internal/server"
	"git.home.luguber.info/inful/contentpress/internal/store"
	"git.home.luguber.info/inful/contentpress/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Show version and exit"`

	Build struct {
		Output  string `short:"o" help:"Output directory override"`
		NoCache bool   `help:"Bypass the render cache"`
	} `cmd:"" help:"Build the site from the content directory"`

	Check struct {
		JSON bool `help:"Emit the reference report as JSON"`
	} `cmd:"" help:"Parse and resolve references without writing output"`

	Route struct {
		ID     string `arg:"" help:"Document id"`
		Locale string `arg:"" help:"Requested locale"`
	} `cmd:"" help:"Show which variant a (id, locale) pair routes to"`

	Serve struct {
		Addr string `help:"Listen address override"`
	} `cmd:"" help:"Build and serve the site with live rebuild on change"`

	Normalize struct{} `cmd:"" help:"Add missing title and slug keys to content front matter"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Vars{"version": version.Version})

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "build":
		cfg := mustLoadConfig()
		if CLI.Build.Output != "" {
			cfg.Output.Directory = CLI.Build.Output
		}
		if err := runBuild(cfg, CLI.Build.NoCache); err != nil {
			slog.Error("Build failed", logfields.Error(err))
			os.Exit(1)
		}
	case "check":
		cfg := mustLoadConfig()
		if err := runCheck(cfg, CLI.Check.JSON); err != nil {
			slog.Error("Check failed", logfields.Error(err))
			os.Exit(1)
		}
	case "route <id> <locale>":
		cfg := mustLoadConfig()
		if err := runRoute(cfg, CLI.Route.ID, CLI.Route.Locale); err != nil {
			slog.Error("Route failed", logfields.Error(err))
			os.Exit(1)
		}
	case "serve":
		cfg := mustLoadConfig()
		if CLI.Serve.Addr != "" {
			cfg.Server.Addr = CLI.Serve.Addr
		}
		if err := runServe(cfg); err != nil {
			slog.Error("Serve failed", logfields.Error(err))
			os.Exit(1)
		}
	case "normalize":
		cfg := mustLoadConfig()
		if err := runNormalize(cfg); err != nil {
			slog.Error("Normalize failed", logfields.Error(err))
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", logfields.Error(err))
			os.Exit(1)
		}
		fmt.Printf("Configuration file created: %s\n", CLI.Config)
	default:
		slog.Error("Unknown command", slog.String("command", ctx.Command()))
		os.Exit(1)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}
	return cfg
}

func newBuilder(cfg *config.Config, recorder metrics.Recorder, noCache bool) (*pipeline.Builder, func()) {
	opts := []pipeline.Option{pipeline.WithRecorder(recorder)}
	cleanup := func() {}

	if cfg.Cache.Enabled && !noCache {
		cache, err := store.NewRenderCache(cfg.Cache.Dir)
		if err != nil {
			slog.Warn("Render cache unavailable", logfields.Error(err))
		} else {
			opts = append(opts, pipeline.WithRenderCache(cache))
		}
	}

	if cfg.Links.Events != nil && cfg.Links.Events.Enabled {
		publisher, err := resolver.NewNATSPublisher(cfg.Links.Events)
		if err != nil {
			slog.Warn("Link event publisher unavailable", logfields.Error(err))
		} else {
			opts = append(opts, pipeline.WithEventPublisher(publisher))
			cleanup = func() { _ = publisher.Close() }
		}
	}

	return pipeline.New(cfg, opts...), cleanup
}

func recordBuild(cfg *config.Config, result *pipeline.Result) {
	if cfg.Server.RecordDB == "" || result == nil {
		return
	}
	log, err := buildlog.Open(cfg.Server.RecordDB)
	if err != nil {
		slog.Warn("Build record store unavailable", logfields.Error(err))
		return
	}
	defer func() { _ = log.Close() }()

	ctx := context.Background()
	if err := log.RecordBuild(ctx, buildlog.BuildRecord{
		BuildID:   result.BuildID,
		StartedAt: result.StartedAt,
		Duration:  result.Duration,
		Outcome:   result.Outcome,
		Documents: result.Corpus.Len(),
		Dangling:  len(result.Report.Dangling()),
	}); err != nil {
		slog.Warn("Failed to record build", logfields.Error(err))
		return
	}
	if err := log.RecordReport(ctx, result.BuildID, result.Report); err != nil {
		slog.Warn("Failed to record report", logfields.Error(err))
	}
}

func runBuild(cfg *config.Config, noCache bool) error {
	builder, cleanup := newBuilder(cfg, metrics.NoopRecorder{}, noCache)
	defer cleanup()

	result, err := builder.Build(context.Background())
	recordBuild(cfg, result)
	if err != nil {
		return err
	}

	if err := pipeline.WriteSite(result, cfg.Output); err != nil {
		return err
	}

	fmt.Printf("Build %s: %s (%d documents, %d dangling references, %d failures) in %s\n",
		result.BuildID, result.Outcome, result.Corpus.Len(),
		len(result.Report.Dangling()), len(result.Failures),
		result.Duration.Round(time.Millisecond))
	return nil
}

func runCheck(cfg *config.Config, asJSON bool) error {
	builder, cleanup := newBuilder(cfg, metrics.NoopRecorder{}, true)
	defer cleanup()

	result, err := builder.Build(context.Background())
	if err != nil && result == nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Report)
	}

	for _, entry := range result.Report.Entries {
		fmt.Printf("%-9s %s -> %s\n", entry.Status, entry.SourceID, entry.TargetSlug)
	}
	for _, failure := range result.Failures {
		fmt.Printf("broken    %s [%s/%s]: %v\n", failure.Key,
			errors.GetCategory(failure.Err), errors.GetSeverity(failure.Err), failure.Err)
	}
	return err
}

func runNormalize(cfg *config.Config) error {
	report, err := store.NewLoader(cfg.Content.Dir, cfg.Content.Locales).Normalize()
	if err != nil {
		return err
	}
	for _, fe := range report.Errors {
		fmt.Printf("skipped   %s: %v\n", fe.Path, fe.Err)
	}
	fmt.Printf("Normalized %d of %d content units (%d skipped)\n",
		report.Rewritten, report.Checked, len(report.Errors))
	return nil
}

func runRoute(cfg *config.Config, id, requested string) error {
	corpus, _, err := store.NewLoader(cfg.Content.Dir, cfg.Content.Locales).Load()
	if err != nil {
		return err
	}
	router, err := locale.NewRouter(corpus, cfg.Content.FallbackLocale)
	if err != nil {
		return err
	}

	doc, err := router.Route(id, requested)
	if err != nil {
		return errors.WrapError(err, errors.CategoryLocale, "route document")
	}
	fmt.Printf("%s@%s -> %s (%q, slug %s)\n", id, requested, doc.Locale, doc.Title, doc.Slug)
	return nil
}

func runServe(cfg *config.Config) error {
	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	builder, cleanup := newBuilder(cfg, recorder, false)
	defer cleanup()

	srv := server.New(cfg, builder.Build, registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Rebuild(ctx); err != nil {
		return err
	}

	if cfg.Server.Watch {
		go func() {
			if err := srv.Watch(ctx); err != nil {
				slog.Error("Watcher stopped", logfields.Error(err))
			}
		}()
	}

	interval, err := time.ParseDuration(cfg.Server.RebuildInterval)
	if err != nil {
		interval = 0
	}
	shutdownScheduler, err := srv.SchedulePeriodicRebuild(ctx, interval)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownScheduler() }()

	return srv.ListenAndServe(ctx)
}
