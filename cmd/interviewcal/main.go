package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"interviewcal/internal/api"
	"interviewcal/internal/capture"
	"interviewcal/internal/config"
	"interviewcal/internal/events"
	"interviewcal/internal/ics"
	appLog "interviewcal/internal/log"
	"interviewcal/internal/lookup"
	"interviewcal/internal/period"
	"interviewcal/internal/placement"
	"interviewcal/internal/refresh"
	"interviewcal/internal/render"
	"interviewcal/internal/session"
	"interviewcal/internal/view"
	"interviewcal/internal/web"
	"interviewcal/internal/wizard"
)

const version = "0.1.0"

var exit = os.Exit

type flagConfig struct {
	configPath string
	envFile    string
	listen     string
	snapshot   string
	unit       string
	once       bool
}

func main() {
	flags := parseFlags()

	if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		appLog.Warn("failed to load env file", "path", flags.envFile, "error", err.Error())
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		fatal("failed to load config", err, "config_path", flags.configPath)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	defer appLog.Sync()

	appLog.Info("interviewcal starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"api", conf.API.BaseURL,
		"overlays", len(conf.Overlays),
		"drop_stale", conf.DropStaleFetches,
		"snapshot", flags.snapshot,
		"once", flags.once,
	)

	loc, err := conf.Location()
	if err != nil {
		appLog.Warn("unknown timezone, using local time", "timezone", conf.Timezone)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	sess, err := session.Load(conf.SessionFile)
	if err != nil {
		fatal("failed to load session", err, "path", conf.SessionFile)
	}

	sched := refresh.New(ctx, loc)
	client := api.New(conf.API.BaseURL,
		api.WithTokenSource(sess),
		api.WithTimeout(conf.APITimeout()),
	)

	cal := period.New(conf.WeekStartDay(), loc)
	views := view.NewStore(cal)
	cache := events.NewStore(views, client, events.WithDropStale(conf.DropStaleFetches))
	overlays := ics.NewOverlays(
		ics.NewFetcher(filepath.Join(conf.CacheDir, "ics"), conf.APITimeout()),
		ics.FeedsFromConfig(conf.Overlays),
		loc,
	)
	searcher := lookup.New(client, conf.Debounce())
	defer searcher.Close()

	renderer, err := render.New()
	if err != nil {
		fatal("failed to parse templates", err)
	}

	stopWatch := cache.Watch(ctx, views)
	defer stopWatch()
	unsubscribe := views.Subscribe(func(st view.State) {
		go refreshOverlays(ctx, overlays, st.Window)
	})
	defer unsubscribe()

	previewPath := flags.snapshot
	srv := web.NewServer(web.Deps{
		Config:   conf,
		View:     views,
		Events:   cache,
		Actions:  events.NewActions(client, cache),
		Wizard:   wizard.New(client, cache),
		Lookup:   searcher,
		Overlays: overlays,
		Renderer: renderer,
		Engine: placement.Engine{
			Palette:         conf.Palette,
			PastColor:       conf.PastColor,
			DefaultDuration: conf.DefaultDuration(),
			Location:        loc,
			Now:             sched.Now,
		},
		Session:     sess,
		PreviewPath: previewPath,
		Clock:       sched.Now,
	})

	jobs := []refresh.Job{
		{Name: "session", Spec: conf.RefreshCron, Run: func(context.Context) error { return sess.Reload() }},
		{Name: "events", Spec: conf.RefreshCron, Run: cache.Fetch},
		{Name: "overlays", Spec: conf.RefreshCron, Run: func(ctx context.Context) error {
			return overlays.Refresh(ctx, views.Get().Window.Bounds())
		}},
	}
	if previewPath != "" {
		unit, err := period.ParseUnit(flags.unit)
		if err != nil {
			fatal("invalid snapshot unit", err, "unit", flags.unit)
		}
		pageURL := localURL(conf.Listen) + web.SnapshotPath(unit)
		jobs = append(jobs, refresh.Job{Name: "snapshot", Spec: conf.RefreshCron, Run: func(ctx context.Context) error {
			return capture.Snapshot(ctx, capture.Options{URL: pageURL, Output: previewPath})
		}})
	}
	for _, j := range jobs {
		if err := sched.Add(j); err != nil {
			fatal("invalid refresh schedule", err)
		}
	}

	httpSrv := &http.Server{
		Addr:              conf.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLog.Info("http server listening", "addr", conf.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("http server failed", err)
			cancel()
		}
	}()

	// Every job runs once up front so the first page is already populated.
	sched.RunAll()

	if flags.once {
		shutdown(httpSrv)
		appLog.Info("interviewcal exiting")
		return
	}

	if err := sched.Start(); err != nil {
		fatal("failed to start scheduler", err)
	}

	<-ctx.Done()

	<-sched.Stop().Done()
	shutdown(httpSrv)
	appLog.Info("interviewcal exiting")
}

// fatal logs err, flushes the log and exits; deferred calls do not run.
func fatal(msg string, err error, kv ...any) {
	appLog.Error(msg, err, kv...)
	appLog.Sync()
	exit(1)
}

func refreshOverlays(ctx context.Context, o *ics.Overlays, w period.Window) {
	if err := o.Refresh(ctx, w.Bounds()); err != nil {
		appLog.Warn("overlay refresh incomplete", "error", err.Error())
	}
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLog.Error("http server shutdown failed", err)
	}
}

// localURL turns a listen address into a URL the snapshot browser can reach.
func localURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.envFile, "env", ".env", "Path to an optional .env file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Write a PNG of the calendar page here on every refresh")
	flag.StringVar(&cfg.unit, "snapshot-unit", string(period.Week), "Unit of the snapshotted page (day, week, month)")
	flag.BoolVar(&cfg.once, "once", false, "Run every refresh job once and exit")

	flag.Parse()

	return cfg
}
