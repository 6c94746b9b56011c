package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/uzhanitsoft/qarzdorlik/internal/api"
	"github.com/uzhanitsoft/qarzdorlik/internal/config"
	"github.com/uzhanitsoft/qarzdorlik/internal/dashboard"
	"github.com/uzhanitsoft/qarzdorlik/internal/extractor"
	"github.com/uzhanitsoft/qarzdorlik/internal/logger"
	"github.com/uzhanitsoft/qarzdorlik/internal/notifier"
	"github.com/uzhanitsoft/qarzdorlik/internal/recorder"
	"github.com/uzhanitsoft/qarzdorlik/internal/scheduler"
)

func main() {
	config.LoadEnvironment()
	logger.Init()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}

	rootCmd := &cobra.Command{
		Use:   "qarzdorlik",
		Short: "Debt dashboard for sales agents",
		Long:  `qarzdorlik ingests agent debt spreadsheets, keeps a daily history and serves it over HTTP and Telegram.`,
		Run: func(cmd *cobra.Command, args []string) {
			serve(loadConfig(cfgPath))
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", cfgPath, "Path to the YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the scheduler",
		Run: func(cmd *cobra.Command, args []string) {
			serve(loadConfig(cfgPath))
		},
	}

	importCmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Ingest spreadsheets from disk into the data file",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := importFiles(loadConfig(cfgPath), args); err != nil {
				logger.Fatal("Import failed: %v", err)
			}
		},
	}

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print the recorded daily snapshots, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			printHistory(loadConfig(cfgPath), limit)
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the newest N days (0 shows all)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("Failed to execute command: %v", err)
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config validation: %v", err)
	}
	return cfg
}

func newExtractor(cfg *config.Config) *extractor.Extractor {
	ex, err := extractor.New(extractor.Columns{
		Name: cfg.Columns.Name,
		USD:  cfg.Columns.USD,
		UZS:  cfg.Columns.UZS,
	})
	if err != nil {
		logger.Fatal("column layout: %v", err)
	}
	return ex
}

// openRecorder falls back to the noop archive when the database is
// unreachable; the dashboard works without it.
func openRecorder(cfg *config.Config) recorder.Recorder {
	rec, err := recorder.Open(cfg.Database.SQLitePath, cfg.Database.PostgresDSN)
	if err != nil {
		logger.Warn("init archive failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return rec
}

// app holds the wired components of a running server.
type app struct {
	rec   recorder.Recorder
	store *dashboard.Store
	tn    *notifier.TelegramNotifier
	sched *scheduler.Scheduler
	srv   *http.Server
}

// newApp builds every component before anything is started, so the bot
// never sees a half-wired scheduler.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{rec: openRecorder(cfg)}

	hooks := []dashboard.Option{
		dashboard.WithWorkers(cfg.Ingest.Workers),
		dashboard.WithHook(recorder.IngestHook(a.rec)),
		dashboard.WithHook(api.MetricsHook()),
	}
	if cfg.BotEnabled() {
		a.tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		a.sched = scheduler.NewScheduler(ctx, nil, a.tn, cfg.Telegram.MiniAppURL)
		if cfg.Telegram.ChatID != "" {
			hooks = append(hooks, dashboard.WithHook(a.sched.UploadHook()))
		}
	}

	a.store = dashboard.NewStore(cfg.Storage.DataFile, newExtractor(cfg), hooks...)
	api.SeedMetrics(a.store.Data())

	if a.sched != nil {
		a.sched.Source = a.store
		if cfg.Telegram.ChatID != "" {
			if err := a.sched.RegisterDigest(cfg.Schedule.DigestCron); err != nil {
				a.rec.Close()
				return nil, fmt.Errorf("register cron tasks: %w", err)
			}
		}
	}

	a.srv = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(api.NewHandler(a.store, cfg.Server.AdminPassword)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func serve(cfg *config.Config) {
	logger.Info("qarzdorlik starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logger.Fatal("%v", err)
	}
	defer a.rec.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening on :%s", cfg.Server.Port)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	})

	if a.sched != nil {
		a.sched.Start()
		defer a.sched.Stop()

		g.Go(func() error {
			a.tn.StartPolling(gctx, a.sched.HandleCommand)
			return nil
		})
		logger.Info("telegram polling started")
	} else {
		logger.Info("BOT_TOKEN not set, telegram bot disabled")
	}

	logger.Info("qarzdorlik is running. Press Ctrl+C to stop.")
	if err := g.Wait(); err != nil {
		logger.Error("%v", err)
	}
	logger.Info("qarzdorlik stopped")
}

func importFiles(cfg *config.Config, paths []string) error {
	rec := openRecorder(cfg)
	defer rec.Close()

	store := dashboard.NewStore(cfg.Storage.DataFile, newExtractor(cfg),
		dashboard.WithWorkers(cfg.Ingest.Workers),
		dashboard.WithHook(recorder.IngestHook(rec)),
	)

	files := make([]extractor.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, extractor.File{Name: filepath.Base(p), Data: data})
	}

	res, err := store.Ingest(context.Background(), files)
	if err != nil {
		return err
	}
	for _, a := range res.Agents {
		fmt.Printf("%-30s %5d debtors  USD %s  UZS %s\n", a.Name, a.DebtorCount, notifier.FormatUSD(a.TotalUSD), notifier.FormatUZS(a.TotalUZS))
	}
	for _, f := range res.Failed {
		fmt.Printf("skipped %s: %v\n", f.File, f.Err)
	}
	logger.Info("%d agents imported into %s", len(res.Agents), cfg.Storage.DataFile)
	return nil
}

func printHistory(cfg *config.Config, limit int) {
	store := dashboard.NewStore(cfg.Storage.DataFile, newExtractor(cfg))
	view := store.History(limit)
	if view.Count == 0 {
		fmt.Println("no snapshots recorded")
		return
	}
	for _, e := range view.History {
		fmt.Printf("%s  agents %3d  debtors %5d  USD %s  UZS %s\n", e.Date, e.AgentCount, e.TotalDebtors, notifier.FormatUSD(e.TotalUSD), notifier.FormatUZS(e.TotalUZS))
	}
}
