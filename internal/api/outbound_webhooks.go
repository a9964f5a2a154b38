package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/annel0/ufo-survivor/internal/config"
	"github.com/annel0/ufo-survivor/internal/eventbus"
	"github.com/annel0/ufo-survivor/internal/logging"
)

// OutboundWebhook представляет исходящий webhook
type OutboundWebhook struct {
	ID           uint64     `json:"id"`
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Secret       string     `json:"-"`
	Events       []string   `json:"events"` // События, на которые подписан
	Active       bool       `json:"active"`
	Timeout      int        `json:"timeout"` // Таймаут в секундах
	RetryCount   int        `json:"retry_count"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsed     *time.Time `json:"last_used,omitempty"`
	FailureCount int        `json:"failure_count"`
}

// OutboundWebhookEvent представляет событие для отправки
type OutboundWebhookEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	RunID     string          `json:"run_id"`
	Timestamp int64           `json:"timestamp"`
	ServerID  string          `json:"server_id"`
	Data      json.RawMessage `json:"data"`
}

// OutboundWebhookManager пересылает события забегов на внешние URL
type OutboundWebhookManager struct {
	webhooks   map[uint64]*OutboundWebhook
	eventQueue chan OutboundWebhookEvent
	mu         sync.RWMutex
	nextID     uint64
	httpClient *http.Client
	serverID   string
	retryDelay time.Duration
	wg         sync.WaitGroup
	closeOnce  sync.Once
	logger     *logging.Logger
}

// NewOutboundWebhookManager создает новый менеджер исходящих webhook'ов
func NewOutboundWebhookManager(serverID string) *OutboundWebhookManager {
	manager := &OutboundWebhookManager{
		webhooks:   make(map[uint64]*OutboundWebhook),
		eventQueue: make(chan OutboundWebhookEvent, 1000), // Буфер для событий
		nextID:     1,
		serverID:   serverID,
		retryDelay: time.Second,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logging.GetComponentLogger("webhooks"),
	}

	manager.wg.Add(1)
	go manager.eventWorker()

	return manager
}

// AddWebhook добавляет новый webhook
func (owm *OutboundWebhookManager) AddWebhook(webhook OutboundWebhook) *OutboundWebhook {
	owm.mu.Lock()
	defer owm.mu.Unlock()

	webhook.ID = owm.nextID
	owm.nextID++
	webhook.CreatedAt = time.Now()
	webhook.Active = true

	if webhook.Timeout == 0 {
		webhook.Timeout = 30
	}

	owm.webhooks[webhook.ID] = &webhook
	return &webhook
}

// AddFromConfig регистрирует получателей из конфигурации
func (owm *OutboundWebhookManager) AddFromConfig(targets []config.WebhookConfig) {
	for _, t := range targets {
		owm.AddWebhook(OutboundWebhook{
			Name:       t.Name,
			URL:        t.URL,
			Secret:     t.Secret,
			Events:     t.Events,
			Timeout:    t.TimeoutSeconds,
			RetryCount: t.RetryCount,
		})
	}
}

// GetWebhooks возвращает копии всех webhook'ов в порядке добавления
func (owm *OutboundWebhookManager) GetWebhooks() []OutboundWebhook {
	owm.mu.RLock()
	defer owm.mu.RUnlock()

	webhooks := make([]OutboundWebhook, 0, len(owm.webhooks))
	for id := uint64(1); id < owm.nextID; id++ {
		if w, ok := owm.webhooks[id]; ok {
			webhooks = append(webhooks, *w)
		}
	}
	return webhooks
}

// Attach подписывает менеджер на шину событий
func (owm *OutboundWebhookManager) Attach(bus eventbus.EventBus) (eventbus.Subscription, error) {
	return bus.Subscribe(context.Background(), eventbus.Filter{}, func(_ context.Context, env *eventbus.Envelope) {
		owm.SendEvent(env)
	})
}

// SendEvent ставит событие шины в очередь отправки
func (owm *OutboundWebhookManager) SendEvent(env *eventbus.Envelope) {
	if !owm.hasSubscribers(env.EventType) {
		return
	}
	event := OutboundWebhookEvent{
		EventID:   env.ID,
		EventType: env.EventType,
		RunID:     env.CorrelationID,
		Timestamp: env.Timestamp.Unix(),
		ServerID:  owm.serverID,
		Data:      json.RawMessage(env.Payload),
	}

	select {
	case owm.eventQueue <- event:
		owm.logger.Debug("📤 Событие %s добавлено в очередь webhook'ов", event.EventType)
	default:
		owm.logger.Warn("⚠️  Очередь webhook'ов переполнена, событие %s пропущено", event.EventType)
	}
}

// Close дожидается отправки событий из очереди
func (owm *OutboundWebhookManager) Close() {
	owm.closeOnce.Do(func() {
		close(owm.eventQueue)
		owm.wg.Wait()
	})
}

func (owm *OutboundWebhookManager) hasSubscribers(eventType string) bool {
	owm.mu.RLock()
	defer owm.mu.RUnlock()
	for _, w := range owm.webhooks {
		if w.Active && isSubscribedToEvent(w, eventType) {
			return true
		}
	}
	return false
}

// eventWorker обрабатывает события из очереди
func (owm *OutboundWebhookManager) eventWorker() {
	defer owm.wg.Done()
	for event := range owm.eventQueue {
		owm.processEvent(event)
	}
}

// processEvent отправляет одно событие всем подписанным webhook'ам
func (owm *OutboundWebhookManager) processEvent(event OutboundWebhookEvent) {
	owm.mu.RLock()
	webhooks := make([]*OutboundWebhook, 0)
	for _, webhook := range owm.webhooks {
		if webhook.Active && isSubscribedToEvent(webhook, event.EventType) {
			webhooks = append(webhooks, webhook)
		}
	}
	owm.mu.RUnlock()

	var wg sync.WaitGroup
	for _, webhook := range webhooks {
		wg.Add(1)
		go func(w *OutboundWebhook) {
			defer wg.Done()
			owm.sendToWebhook(w, event)
		}(webhook)
	}
	wg.Wait()
}

// isSubscribedToEvent проверяет, подписан ли webhook на событие
func isSubscribedToEvent(webhook *OutboundWebhook, eventType string) bool {
	for _, subscribedEvent := range webhook.Events {
		if subscribedEvent == eventType || subscribedEvent == "*" {
			return true
		}
	}
	return false
}

// sendToWebhook отправляет событие конкретному webhook'у
func (owm *OutboundWebhookManager) sendToWebhook(webhook *OutboundWebhook, event OutboundWebhookEvent) {
	jsonData, err := json.Marshal(event)
	if err != nil {
		owm.logger.Error("❌ Ошибка маршалинга события для webhook %s: %v", webhook.Name, err)
		return
	}

	success := false
	for attempt := 0; attempt <= webhook.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * owm.retryDelay)
		}
		err := owm.post(webhook, event, jsonData)
		if err == nil {
			success = true
			owm.logger.Debug("✅ Событие %s отправлено в webhook %s", event.EventType, webhook.Name)
			break
		}
		owm.logger.Warn("⚠️  Попытка %d/%d для webhook %s: %v", attempt+1, webhook.RetryCount+1, webhook.Name, err)
	}

	// Обновляем статистику
	owm.mu.Lock()
	now := time.Now()
	webhook.LastUsed = &now
	if !success {
		webhook.FailureCount++
	}
	owm.mu.Unlock()
}

func (owm *OutboundWebhookManager) post(webhook *OutboundWebhook, event OutboundWebhookEvent, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(webhook.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "UFO-Survivor-Server/1.0")
	req.Header.Set("X-Event-Type", event.EventType)
	req.Header.Set("X-Server-ID", event.ServerID)
	if webhook.Secret != "" {
		req.Header.Set("X-Webhook-Signature", generateSignature(body, webhook.Secret))
	}

	resp, err := owm.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// generateSignature генерирует HMAC подпись
func generateSignature(data []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
