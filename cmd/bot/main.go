package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"SwapSentinel/internal/analyzer"
	"SwapSentinel/internal/collector"
	"SwapSentinel/internal/config"
	"SwapSentinel/internal/cycle"
	"SwapSentinel/internal/display"
	"SwapSentinel/internal/logger"
	"SwapSentinel/internal/metrics"
	"SwapSentinel/internal/notifier"
	"SwapSentinel/internal/policy"
	"SwapSentinel/internal/recorder"
	"SwapSentinel/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		once    bool
	)

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "SwapSentinel - LLM-driven perpetual swap analysis",
		Long: `SwapSentinel polls OKX market data on a fixed interval, asks an LLM for a
BUY/SELL/HOLD recommendation, stores every analysis and emails high-confidence
directional signals. It runs one diagnostic cycle before entering the loop.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfgPath, once, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", defaultPath, "YAML configuration file (optional)")
	cmd.Flags().BoolVar(&once, "once", false, "Run the diagnostic cycle and exit")
	return cmd
}

func run(ctx context.Context, cfgPath string, once bool, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Configuration errors abort before any network activity.
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.File, cfg.Log.Dir)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	log.Info("SwapSentinel starting", zap.String("inst_id", cfg.Trading.InstID))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Recorder
	if cfg.Metrics.ListenAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		go m.Serve(ctx, cfg.Metrics.ListenAddr, log)
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	src := collector.NewOKXSource(cfg.Exchange.BaseURL, cfg.Exchange.Timeout, cfg.Proxy, cfg.Exchange.Simulated, collector.Options{
		CandleBar:     cfg.Trading.CandleBar,
		CandleLimit:   cfg.Trading.CandleLimit,
		OrderBookSize: cfg.Trading.OrderBookSize,
		TradesLimit:   cfg.Trading.TradesLimit,
	}, log)
	log.Info("market data source ready", zap.String("source", src.Name()), zap.Bool("simulated", cfg.Exchange.Simulated))

	engine := analyzer.NewEngine(analyzer.Options{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		Proxy:       cfg.Proxy,
	}, log)

	email := notifier.NewEmailNotifier(notifier.SMTPOptions{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Sender,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.Sender,
		To:       cfg.SMTP.Receiver,
		SSL:      cfg.SMTP.SSL,
		Timeout:  cfg.SMTP.Timeout,
	}, log)

	var (
		alerts    notifier.Notifier = email
		publisher scheduler.Publisher
		channels  = []string{"email"}
	)
	if cfg.Telegram.BotToken != "" {
		tg, err := notifier.NewTelegramMirror(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		if err != nil {
			log.Warn("telegram mirror disabled", zap.Error(err))
		} else {
			alerts = notifier.NewFanout(email, log, tg)
			publisher = tg
			channels = append(channels, "telegram")
			go tg.StartPolling(ctx, scheduler.StatusCommand(store))
		}
	}

	th := policy.Thresholds{Confidence: cfg.Trading.ConfidenceThreshold}
	console := display.New(out, cfg.Trading.InstID, th)
	sched := scheduler.New(
		cycle.New(src, engine, store, alerts, m, log),
		store, console, publisher,
		scheduler.Options{
			InstID:     cfg.Trading.InstID,
			Interval:   cfg.Trading.Interval,
			Thresholds: th,
			StatusCron: cfg.Schedule.StatusCron,
		}, log)

	log.Info("running diagnostic analysis")
	if _, err := sched.RunOnce(ctx); err != nil {
		console.DiagnosticFailed(err)
		return fmt.Errorf("diagnostic cycle: %w", err)
	}
	if once {
		return nil
	}

	console.Banner(cfg.Trading.Interval, channels)
	if err := sched.Run(ctx); err != nil {
		return err
	}
	log.Info("SwapSentinel stopped")
	return nil
}

func openStore(cfg *config.Config, log *zap.Logger) (recorder.Recorder, error) {
	if cfg.Database.Path == "" {
		log.Warn("no database path configured, analyses are kept in memory only")
		return recorder.NewMemoryRecorder(), nil
	}
	store, err := recorder.NewSQLiteRecorder(cfg.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}
