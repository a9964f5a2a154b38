package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/ufo-survivor/internal/api"
	"github.com/annel0/ufo-survivor/internal/auth"
	"github.com/annel0/ufo-survivor/internal/config"
	"github.com/annel0/ufo-survivor/internal/eventbus"
	"github.com/annel0/ufo-survivor/internal/logging"
	"github.com/annel0/ufo-survivor/internal/network"
	"github.com/annel0/ufo-survivor/internal/observability"
	"github.com/annel0/ufo-survivor/internal/session"
	"github.com/annel0/ufo-survivor/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV UFO_CONFIG)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки конфигурации: %v", err)
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.Info("🛸 Запуск UFO Survivor сервера...")
	gin.SetMode(gin.ReleaseMode)

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry, err := observability.InitTelemetry(context.Background(), cfg.Telemetry)
	if err != nil {
		logging.Warn("⚠️ Трассировка отключена: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === ХРАНИЛИЩЕ РЕКОРДА ===
	scores, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Ошибка открытия хранилища %s: %v", cfg.Storage.Driver, err)
	}
	logging.Info("💾 Хранилище рекорда: %s", cfg.Storage.Driver)

	// === МЕТРИКИ ===
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// === ШИНА СОБЫТИЙ ===
	bus, err := newEventBus(cfg.EventBus)
	if err != nil {
		log.Fatalf("❌ Ошибка создания шины событий: %v", err)
	}
	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("⚠️ Не удалось подписать логгер событий: %v", err)
	}
	busMetrics := eventbus.NewMetricsExporter(bus, registry)
	busMetrics.Start()

	webhooks := api.NewOutboundWebhookManager(uuid.NewString())
	webhooks.AddFromConfig(cfg.Webhooks)
	if len(cfg.Webhooks) > 0 {
		if _, err := webhooks.Attach(bus); err != nil {
			logging.Warn("⚠️ Webhook'и не подключены к шине: %v", err)
		}
	}

	// === СЕССИИ ===
	sessions := session.NewManager(cfg.Game, cfg.Server.MaxSessions, scores, bus, session.NewMetrics(registry))
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	// === REST API ===
	restServer := api.NewRestServer(api.Config{
		Port:        fmt.Sprintf(":%d", cfg.Server.GetHTTPPort()),
		ServiceName: cfg.Telemetry.ServiceName,
		Sessions:    sessions,
		Tokens:      tokens,
		Scores:      scores,
		Webhooks:    webhooks,
		Registry:    registry,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ REST API остановлен с ошибкой: %v", err)
		}
	}()

	// === KCP ===
	kcpServer := network.NewServer(
		fmt.Sprintf(":%d", cfg.Server.GetKCPPort()),
		sessions, tokens, cfg.Server.SnapshotRate, network.NewMetrics(registry),
	)
	if err := kcpServer.Start(); err != nil {
		log.Fatalf("❌ Ошибка запуска KCP сервера: %v", err)
	}

	// Отдельный порт для Prometheus
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()),
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("❌ Сервер метрик остановлен с ошибкой: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены и готовы принимать соединения")
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetHTTPPort())
	logging.Info("   🎮 KCP: %s (снимков в секунду: %d)", kcpServer.Addr(), cfg.Server.SnapshotRate)
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", cfg.Server.GetMetricsPort())
	logging.Info("   📣 Шина событий: %s", cfg.EventBus.Driver)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	timeout := time.Duration(cfg.Server.ShutdownTimeout * float64(time.Second))
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := restServer.Stop(ctx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := kcpServer.Stop(); err != nil {
		logging.Error("❌ Ошибка остановки KCP сервера: %v", err)
	}

	// Забеги закрываются до шины, чтобы game_over дошёл до подписчиков
	sessions.CloseAll()

	busMetrics.Stop()
	if err := bus.Close(); err != nil {
		logging.Error("❌ Ошибка закрытия шины событий: %v", err)
	}
	webhooks.Close()

	if err := scores.Close(); err != nil {
		logging.Error("❌ Ошибка закрытия хранилища: %v", err)
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logging.Error("❌ Ошибка остановки сервера метрик: %v", err)
	}
	if err := shutdownTelemetry(ctx); err != nil {
		logging.Error("❌ Ошибка остановки трассировки: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}

// newEventBus выбирает реализацию шины по конфигурации
func newEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	switch cfg.Driver {
	case "jetstream":
		retention := time.Duration(cfg.Retention) * time.Hour
		bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, retention)
		if err != nil {
			return nil, err
		}
		logging.Info("📡 JetStream %s, стрим %s", cfg.URL, cfg.Stream)
		return bus, nil
	default:
		return eventbus.NewMemoryBus(1024), nil
	}
}
