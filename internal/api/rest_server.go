package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/ufo-survivor/internal/auth"
	"github.com/annel0/ufo-survivor/internal/logging"
	"github.com/annel0/ufo-survivor/internal/middleware"
	"github.com/annel0/ufo-survivor/internal/session"
	"github.com/annel0/ufo-survivor/internal/storage"
	"github.com/annel0/ufo-survivor/internal/vec"
	"github.com/annel0/ufo-survivor/internal/world"
	"github.com/annel0/ufo-survivor/internal/world/progression"
)

// Version — версия сервера в /api/server
const Version = "v0.1.0"

// RestServer представляет REST API сервер управления забегами
type RestServer struct {
	router     *gin.Engine
	httpServer *http.Server
	sessions   *session.Manager
	tokens     *auth.TokenIssuer
	scores     storage.HighScoreRepo
	webhooks   *OutboundWebhookManager
	metrics    *ServerMetrics
	logger     *logging.Logger
}

// Config содержит зависимости REST сервера
type Config struct {
	Port        string                  // адрес для запуска сервера, например ":8088"
	ServiceName string                  // имя сервиса в трассировках и метриках
	Sessions    *session.Manager        // менеджер забегов
	Tokens      *auth.TokenIssuer       // выпуск токенов управления
	Scores      storage.HighScoreRepo   // хранилище рекорда
	Webhooks    *OutboundWebhookManager // исходящие webhook'и, может быть nil
	Registry    *prometheus.Registry    // реестр метрик для /metrics
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.ServiceName == "" {
		config.ServiceName = "ufo-survivor"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.NewRequestLogger(nil).Handler())

	promMw := middleware.NewPrometheusMiddleware("rest_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Registry)

	rs := &RestServer{
		router:   router,
		sessions: config.Sessions,
		tokens:   config.Tokens,
		scores:   config.Scores,
		webhooks: config.Webhooks,
		metrics:  NewServerMetrics(),
		logger:   logging.GetServerLogger(),
	}
	rs.httpServer = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(corsMiddleware())

	api := rs.router.Group("/api")
	{
		api.POST("/runs", rs.handleCreateRun)
		api.GET("/runs", rs.handleListRuns)
		api.GET("/runs/:id", rs.handleGetRun)
		api.GET("/runs/:id/upgrades", rs.handleGetUpgrades)

		api.GET("/highscore", rs.handleHighScore)
		api.GET("/server", rs.handleServerInfo)
		api.GET("/webhooks", rs.handleGetWebhooks)
	}

	// Управление забегом требует токена этого забега
	control := api.Group("/runs/:id")
	control.Use(rs.runTokenMiddleware())
	{
		control.DELETE("", rs.handleDeleteRun)
		control.POST("/intent", rs.handleIntent)
		control.POST("/shoot", rs.handleShoot)
		control.POST("/upgrade", rs.handleUpgrade)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RunView — состояние забега в ответах API
type RunView struct {
	RunID    string          `json:"run_id"`
	Phase    string          `json:"phase"`
	Token    string          `json:"token,omitempty"`
	Snapshot *world.Snapshot `json:"snapshot"`
}

// IntentRequest задаёт движение: либо скорость (vx, vy), либо направление (dx, dy)
type IntentRequest struct {
	VX *float64 `json:"vx"`
	VY *float64 `json:"vy"`
	DX *float64 `json:"dx"`
	DY *float64 `json:"dy"`
}

// UpgradeRequest выбирает улучшение по индексу
type UpgradeRequest struct {
	Option *int `json:"option" binding:"required"`
}

// respondError переводит ошибки сессии в HTTP статусы
func (rs *RestServer) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Внутренняя ошибка сервера"
	switch {
	case errors.Is(err, session.ErrRunNotFound):
		status, message = http.StatusNotFound, "Забег не найден"
	case errors.Is(err, session.ErrSessionClosed):
		status, message = http.StatusGone, "Забег закрыт"
	case errors.Is(err, session.ErrTooManySessions):
		status, message = http.StatusServiceUnavailable, "Слишком много забегов"
	case errors.Is(err, progression.ErrInvalidUpgrade):
		status, message = http.StatusUnprocessableEntity, "Улучшение недоступно"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusRequestTimeout, "Запрос отменён"
	default:
		_ = c.Error(err)
	}
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

func (rs *RestServer) session(c *gin.Context) (*session.Session, bool) {
	s, err := rs.sessions.Get(c.Param("id"))
	if err != nil {
		rs.respondError(c, err)
		return nil, false
	}
	return s, true
}

// handleCreateRun начинает забег и выдаёт токен управления
func (rs *RestServer) handleCreateRun(c *gin.Context) {
	ctx := c.Request.Context()
	s, err := rs.sessions.Create(ctx)
	if err != nil {
		rs.respondError(c, err)
		return
	}

	token, err := rs.tokens.Issue(s.ID())
	if err != nil {
		_ = rs.sessions.Close(s.ID())
		rs.respondError(c, err)
		return
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		rs.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Забег создан",
		Data:    RunView{RunID: s.ID(), Phase: snap.PhaseName(), Token: token, Snapshot: snap},
	})
}

// handleListRuns возвращает сводку по всем забегам
func (rs *RestServer) handleListRuns(c *gin.Context) {
	ctx := c.Request.Context()
	runs := make([]session.Info, 0)
	for _, s := range rs.sessions.List() {
		info, err := s.Info(ctx)
		if errors.Is(err, session.ErrSessionClosed) {
			continue
		}
		if err != nil {
			rs.respondError(c, err)
			return
		}
		runs = append(runs, info)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список забегов",
		Data:    runs,
	})
}

// handleGetRun возвращает снимок забега
func (rs *RestServer) handleGetRun(c *gin.Context) {
	s, ok := rs.session(c)
	if !ok {
		return
	}
	snap, err := s.Snapshot(c.Request.Context())
	if err != nil {
		rs.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние забега",
		Data:    RunView{RunID: s.ID(), Phase: snap.PhaseName(), Snapshot: snap},
	})
}

// handleGetUpgrades возвращает меню улучшений и число ожидающих выборов
func (rs *RestServer) handleGetUpgrades(c *gin.Context) {
	s, ok := rs.session(c)
	if !ok {
		return
	}
	info, err := s.Info(c.Request.Context())
	if err != nil {
		rs.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Меню улучшений",
		Data: gin.H{
			"phase":   info.Phase,
			"pending": info.Pending,
			"options": progression.Options(),
		},
	})
}

// handleDeleteRun прерывает забег
func (rs *RestServer) handleDeleteRun(c *gin.Context) {
	if err := rs.sessions.Close(c.Param("id")); err != nil {
		rs.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Забег закрыт"})
}

// handleIntent задаёт движение игрока
func (rs *RestServer) handleIntent(c *gin.Context) {
	var req IntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}
	s, ok := rs.session(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case req.DX != nil || req.DY != nil:
		err = s.SetDirection(ctx, vec.Vec2Float{X: deref(req.DX), Y: deref(req.DY)})
	case req.VX != nil || req.VY != nil:
		err = s.SetIntent(ctx, vec.Vec2Float{X: deref(req.VX), Y: deref(req.VY)})
	default:
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Нужны vx/vy или dx/dy"})
		return
	}
	if err != nil {
		rs.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Намерение принято"})
}

// handleShoot запрашивает ручной выстрел
func (rs *RestServer) handleShoot(c *gin.Context) {
	s, ok := rs.session(c)
	if !ok {
		return
	}
	fired, err := s.Shoot(c.Request.Context())
	if err != nil {
		rs.respondError(c, err)
		return
	}
	message := "Выстрел"
	if !fired {
		message = "Выстрел проигнорирован"
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: message, Data: gin.H{"fired": fired}})
}

// handleUpgrade применяет выбранное улучшение
func (rs *RestServer) handleUpgrade(c *gin.Context) {
	var req UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}
	s, ok := rs.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := s.ChooseUpgrade(ctx, *req.Option); err != nil {
		rs.respondError(c, err)
		return
	}
	info, err := s.Info(ctx)
	if err != nil {
		rs.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Улучшение применено",
		Data:    gin.H{"phase": info.Phase, "pending": info.Pending},
	})
}

// handleHighScore возвращает текущий рекорд
func (rs *RestServer) handleHighScore(c *gin.Context) {
	score, err := rs.scores.Load(c.Request.Context())
	if err != nil {
		rs.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Рекорд",
		Data:    gin.H{"key": storage.HighScoreKey, "score": score},
	})
}

// handleServerInfo возвращает сводку о процессе
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    rs.metrics.Collect(rs.sessions.Len()),
	})
}

// handleGetWebhooks возвращает настроенные исходящие webhook'и
func (rs *RestServer) handleGetWebhooks(c *gin.Context) {
	hooks := []OutboundWebhook{}
	if rs.webhooks != nil {
		hooks = rs.webhooks.GetWebhooks()
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Исходящие webhook'и", Data: hooks})
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает HTTP сервер; блокирует до Stop
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.httpServer.Addr)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop выполняет graceful shutdown
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpServer.Shutdown(ctx)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
