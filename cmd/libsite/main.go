package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"

	"github.com/serma100000/Union-Beach-Library/internal/audit"
	"github.com/serma100000/Union-Beach-Library/internal/capture"
	"github.com/serma100000/Union-Beach-Library/internal/config"
	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
	"github.com/serma100000/Union-Beach-Library/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	auditURL   string
	chrome     bool
	once       bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("libsite starting", "version", "0.1.0")
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"locale", conf.Locale,
		"refresh", conf.RefreshCron,
		"content_path", conf.ContentPath,
		"feed_count", len(conf.Feeds),
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.auditURL != "" {
		os.Exit(runAudit(ctx, flags.auditURL, flags.chrome))
	}

	app := newApp(conf)

	ctrl, feedErrs, err := app.load(ctx)
	if err != nil {
		appLog.Error("failed to load events", err)
		os.Exit(1)
	}

	if flags.once {
		if err := app.writeCalendar(os.Stdout, ctrl); err != nil {
			appLog.Error("failed to export calendar", err)
			os.Exit(1)
		}
		return
	}

	srv, err := web.NewServer(conf, ctrl)
	if err != nil {
		appLog.Error("failed to build web server", err)
		os.Exit(1)
	}
	srv.SetController(ctrl, len(feedErrs))

	sched := cron.New(cron.WithLocation(app.loc))
	if _, err := sched.AddFunc(conf.RefreshCron, func() {
		next, errs, err := app.load(ctx)
		if err != nil {
			appLog.Error("scheduled reload failed; keeping current events", err)
			return
		}
		srv.SetController(next, len(errs))
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer func() {
		<-sched.Stop().Done()
	}()

	if err := srv.Run(ctx); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}
	appLog.Info("libsite exiting")
}

// runAudit checks every page under baseURL and returns the exit code.
func runAudit(ctx context.Context, baseURL string, chrome bool) int {
	fetch := audit.HTTPFetcher(nil)
	if chrome {
		fetch = audit.ChromeFetcher(capture.SnapshotOptions{Timeout: 30 * time.Second})
	}

	findings, err := audit.Run(ctx, baseURL, fetch)
	for _, f := range findings {
		fmt.Println(f.String())
	}
	if err != nil {
		appLog.Error("audit incomplete", err)
		return 2
	}
	if len(findings) > 0 {
		appLog.Warn("audit found problems", "count", len(findings))
		return 1
	}
	appLog.Info("audit passed", "pages", len(audit.Pages))
	return 0
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.auditURL, "audit", "", "Audit the site at this base URL and exit")
	flag.BoolVar(&cfg.chrome, "chrome", false, "With -audit, snapshot pages in headless Chromium")
	flag.BoolVar(&cfg.once, "once", false, "Load events once, write them as iCalendar to stdout and exit")

	flag.Parse()

	return cfg
}
