package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/iwtcode/servoSweep/internal/adapters/channels"
	"github.com/iwtcode/servoSweep/internal/adapters/feeds"
	"github.com/iwtcode/servoSweep/internal/adapters/handlers"
	"github.com/iwtcode/servoSweep/internal/adapters/repositories/postgres"
	"github.com/iwtcode/servoSweep/internal/adapters/sinks"
	"github.com/iwtcode/servoSweep/internal/config"
	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/iwtcode/servoSweep/internal/interfaces"
	"github.com/iwtcode/servoSweep/internal/middleware/logging"
	"github.com/iwtcode/servoSweep/internal/observability"
	"github.com/iwtcode/servoSweep/internal/services/clock"
	"github.com/iwtcode/servoSweep/internal/services/kafka"
	"github.com/iwtcode/servoSweep/internal/services/state"
	"github.com/iwtcode/servoSweep/internal/services/sweep"
	"github.com/iwtcode/servoSweep/internal/services/telemetry"
	"github.com/iwtcode/servoSweep/internal/usecases"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

// New создает новый экземпляр fx.App
func New() *fx.App {
	return fx.New(Options())
}

// Options собирает граф зависимостей приложения
func Options() fx.Option {
	return fx.Options(
		ConfigModule,
		LoggingModule,
		MetricsModule,
		StateModule,
		OutputModule,
		ServiceModule,
		UsecaseModule,
		HttpServerModule,
		// Хуки остановки выполняются в обратном порядке: сначала HTTP и фиды,
		// затем планировщики и запись строк
		fx.Invoke(InvokeShutdown),
		fx.Invoke(InvokeTelemetryFeed),
		fx.Invoke(InvokeHttpServer),
		fx.Invoke(InvokeStaticDiscovery),
	)
}

// --- Модули FX ---

func ProvideSweepPlan(cfg *config.AppConfig) (*models.SweepPlan, error) {
	return config.LoadSweepPlan(cfg.Sweep.PlanPath)
}

var ConfigModule = fx.Module("config_module",
	fx.Provide(
		config.LoadConfiguration,
		ProvideSweepPlan,
	),
)

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "ServoSweepApp")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
)

func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideMetrics(reg *prometheus.Registry) *observability.Metrics {
	return observability.NewMetrics(reg)
}

func ProvideGatherer(reg *prometheus.Registry) prometheus.Gatherer {
	return reg
}

var MetricsModule = fx.Module("metrics_module",
	fx.Provide(
		ProvideRegistry,
		ProvideMetrics,
		ProvideGatherer,
	),
)

var StateModule = fx.Module("state_module",
	fx.Provide(
		state.NewStore,
		clock.Real,
	),
)

// ProvideCommandChannel выбирает канал команд по COMMAND_CHANNEL.
func ProvideCommandChannel(cfg *config.AppConfig, logger *logging.Logger) interfaces.CommandChannel {
	if cfg.Sweep.CommandChannel == config.ChannelKafka {
		logger.Info("Commands are published to Kafka", "broker", cfg.Kafka.Broker, "topic", cfg.Kafka.CommandTopic)
		return channels.NewKafka(kafka.NewKafkaProducer(cfg.Kafka.Broker, cfg.Kafka.CommandTopic))
	}
	logger.Warn("Commands are only logged (dry run)")
	return channels.NewLog(logger)
}

// ProvideRowSink собирает приёмники строк по ROW_SINKS.
func ProvideRowSink(cfg *config.AppConfig, logger *logging.Logger) (interfaces.RowSink, error) {
	var out []interfaces.RowSink
	for _, name := range cfg.Telemetry.Sinks {
		switch name {
		case config.SinkCSV:
			sink, err := sinks.NewCSV(cfg.Telemetry.LogFilePath)
			if err != nil {
				return nil, err
			}
			logger.Info("Telemetry rows are written to CSV", "path", cfg.Telemetry.LogFilePath)
			out = append(out, sink)
		case config.SinkKafka:
			logger.Info("Telemetry rows are published to Kafka", "topic", cfg.Kafka.RowTopic)
			out = append(out, sinks.NewKafka(kafka.NewKafkaProducer(cfg.Kafka.Broker, cfg.Kafka.RowTopic)))
		case config.SinkPostgres:
			repo, err := postgres.NewRepository(cfg, logger)
			if err != nil {
				return nil, err
			}
			logger.Info("Telemetry rows are stored in Postgres", "db_name", cfg.Database.DBName)
			out = append(out, sinks.NewRepository(repo))
		default:
			return nil, fmt.Errorf("unknown row sink %q", name)
		}
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return sinks.NewMulti(out...), nil
}

var OutputModule = fx.Module("output_module",
	fx.Provide(
		ProvideCommandChannel,
		ProvideRowSink,
	),
)

func ProvideCoordinator(
	plan *models.SweepPlan,
	cfg *config.AppConfig,
	channel interfaces.CommandChannel,
	store *state.Store,
	clk clock.Clock,
	logger *logging.Logger,
	metrics *observability.Metrics,
) *sweep.Coordinator {
	return sweep.NewCoordinator(plan.Devices, channel, store, clk, logger, metrics, sweep.Options{
		DefaultDwell: cfg.Sweep.DefaultDwell,
		SendTimeout:  cfg.Sweep.CommandTimeout,
	})
}

func ProvideAggregator(
	cfg *config.AppConfig,
	store *state.Store,
	sink interfaces.RowSink,
	clk clock.Clock,
	logger *logging.Logger,
	metrics *observability.Metrics,
) *telemetry.Aggregator {
	return telemetry.NewAggregator(store, sink, clk, logger, metrics, cfg.Telemetry.Interval, cfg.Telemetry.QueueSize)
}

var ServiceModule = fx.Module("service_module",
	fx.Provide(
		ProvideCoordinator,
		ProvideAggregator,
	),
)

func ProvideUsecases(
	store *state.Store,
	coordinator *sweep.Coordinator,
	aggregator *telemetry.Aggregator,
	channel interfaces.CommandChannel,
	sink interfaces.RowSink,
	clk clock.Clock,
	metrics *observability.Metrics,
	logger *logging.Logger,
) interfaces.Usecases {
	return usecases.NewUsecases(usecases.Deps{
		Store:       store,
		Coordinator: coordinator,
		Aggregator:  aggregator,
		Channel:     channel,
		Sink:        sink,
		Clock:       clk,
		Metrics:     metrics,
		Logger:      logger.WithPrefix("USECASE"),
	})
}

var UsecaseModule = fx.Module("usecases_module",
	fx.Provide(ProvideUsecases),
)

var HttpServerModule = fx.Module("http_server_module",
	fx.Provide(
		handlers.NewHandler,
		handlers.ProvideRouter,
	),
)

// InvokeShutdown останавливает прогон и закрывает каналы при остановке приложения.
func InvokeShutdown(lc fx.Lifecycle, uc interfaces.Usecases, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping sweep and telemetry logging...")
			err := uc.Shutdown(ctx)
			if cerr := logger.Close(); cerr != nil && err == nil {
				err = cerr
			}
			return err
		},
	})
}

// InvokeTelemetryFeed подписывается на топик телеметрии, если он задан.
func InvokeTelemetryFeed(lc fx.Lifecycle, cfg *config.AppConfig, uc interfaces.Usecases, logger *logging.Logger) {
	if cfg.Kafka.FeedTopic == "" {
		return
	}
	reader := feeds.NewKafkaReader(cfg.Kafka.Broker, cfg.Kafka.FeedTopic, cfg.Kafka.GroupID)
	feed := feeds.NewKafkaTelemetry(reader, uc, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Subscribing to telemetry topic", "topic", cfg.Kafka.FeedTopic, "group", cfg.Kafka.GroupID)
			feed.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return feed.Stop()
		},
	})
}

// InvokeStaticDiscovery сообщает устройства из DISCOVERY_IDS после старта.
func InvokeStaticDiscovery(lc fx.Lifecycle, cfg *config.AppConfig, uc interfaces.Usecases, logger *logging.Logger) {
	discovery := feeds.NewStaticDiscovery(cfg.Sweep.DiscoveryIDs, uc, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, announced := discovery.Announce(ctx); !announced {
				logger.Info("DISCOVERY_IDS is empty, waiting for POST /api/v1/discovery")
			}
			return nil
		},
	})
}

// InvokeHttpServer запускает HTTP-сервер.
func InvokeHttpServer(lc fx.Lifecycle, cfg *config.AppConfig, h http.Handler, logger *logging.Logger) {
	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("HTTP Server is starting", "address", serverAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
