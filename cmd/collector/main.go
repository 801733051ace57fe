package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"queueWatch/internal/config"
	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/application/usecase"
	"queueWatch/internal/modules/queue/infrastructure"
	"queueWatch/internal/shared/logging"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	_, closeLog, err := logging.Setup(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: true,
		Directory: cfg.Logging.Directory,
		Name:      "collector",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	dailyLog := infrastructure.NewDailyLog(cfg.Storage.LogDirectory, cfg.Location)
	remote, err := infrastructure.NewRemoteSink(infrastructure.RemoteSinkConfig{
		URL:      cfg.Remote.URL,
		Secret:   cfg.Remote.Secret,
		AuthMode: cfg.Remote.AuthMode,
		Timeout:  cfg.Remote.Timeout,
		TokenTTL: cfg.Remote.TokenTTL,
	})
	if err != nil {
		slog.Error("remote sink setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("collector starting",
		slog.String("dataDir", dailyLog.Dir()),
		slog.String("remote", remote.URL()),
		slog.Bool("remoteEnabled", remote.Enabled()),
		slog.String("timezone", cfg.Location.String()),
	)
	if !remote.Enabled() {
		slog.Warn("API_SECRET not set, remote writes will be skipped")
	}
	logStats(dailyLog, "local log at startup")

	sinks := []port.NamedSink{
		{Name: "local", Sink: port.SinkFunc(dailyLog.Append)},
		{Name: "remote", Sink: port.SinkFunc(remote.Send)},
	}
	if cfg.Kafka.Publish {
		publisher := infrastructure.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Remote.Timeout)
		defer publisher.Close()
		sinks = append(sinks, port.NamedSink{Name: "kafka", Sink: port.SinkFunc(publisher.Publish)})
		slog.Info("kafka publisher enabled", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("topic", publisher.Topic()))
	}

	source := infrastructure.NewProviderClient(infrastructure.ProviderConfig{
		URL:           cfg.Provider.URL,
		Search:        cfg.Provider.Search,
		TargetStoreID: cfg.Provider.TargetStoreID,
		Timeout:       cfg.Provider.Timeout,
	})
	scheduler := usecase.NewScheduler(usecase.NewCollector(source), sinks, usecase.SchedulerConfig{
		Interval:    cfg.Collector.Interval,
		Window:      cfg.Collector.Window,
		MaxRuntime:  cfg.Collector.MaxRuntime,
		Location:    cfg.Location,
		GracePeriod: cfg.Collector.GracePeriod,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary := scheduler.Run(ctx)

	attrs := []any{
		slog.String("reason", string(summary.Reason)),
		slog.String("elapsed", summary.Elapsed().Round(time.Second).String()),
		slog.Int("ticks", summary.TicksStarted),
		slog.Int("skipped", summary.TicksSkipped),
		slog.Int("collected", summary.Collected),
		slog.Int("empty", summary.Empty),
	}
	for name, counts := range summary.Sinks {
		attrs = append(attrs, slog.Group(name,
			slog.Int("ok", counts.Succeeded),
			slog.Int("failed", counts.Failed),
			slog.Int("disabled", counts.Disabled),
		))
	}
	slog.Info("collector finished", attrs...)
	logStats(dailyLog, "local log at exit")
}

func logStats(dailyLog *infrastructure.DailyLog, msg string) {
	stats, err := dailyLog.Stats()
	if err != nil {
		slog.Warn("local log stats unavailable", slog.Any("error", err))
		return
	}
	attrs := []any{
		slog.Int("files", stats.Files),
		slog.String("size", humanize.Bytes(uint64(stats.TotalBytes))),
	}
	if stats.Files > 0 {
		attrs = append(attrs, slog.String("from", stats.FirstDate), slog.String("to", stats.LastDate))
	}
	slog.Info(msg, attrs...)
}
