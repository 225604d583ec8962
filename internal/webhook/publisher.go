package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
)

const (
	webhookQueueKey = "incident_events"
)

// Типы событий жизненного цикла инцидента
const (
	EventIncidentSpawned  = "incident.spawned"
	EventIncidentResolved = "incident.resolved"
	EventIncidentFailed   = "incident.failed"
)

// WebhookEvent - структура для данных вебхука
type WebhookEvent struct {
	ID        uuid.UUID        `json:"id"`
	Type      string           `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Incident  *models.Incident `json:"incident"`
}

// NewIncidentEvent собирает событие жизненного цикла инцидента
func NewIncidentEvent(eventType string, incident *models.Incident, at time.Time) WebhookEvent {
	return WebhookEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: at,
		Incident:  incident,
	}
}

// WebhookPublisher - интерфейс для публикации вебхуков
type WebhookPublisher interface {
	Publish(ctx context.Context, event WebhookEvent) error
}

// RedisWebhookPublisher - реализация WebhookPublisher, использующая Redis
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// Используем LPUSH для добавления события в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}
