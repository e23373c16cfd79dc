package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"estate-listing/pkg/goroutinepool"
	"estate-listing/pkg/logger"
	"estate-listing/pkg/monitoring"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// SearchEvent 一次首页搜索
type SearchEvent struct {
	Filters    map[string]interface{} `json:"filters"`
	Page       int                    `json:"page"`
	TotalItems int64                  `json:"total_items"`
	UserID     uint                   `json:"user_id,omitempty"`
	ClientIP   string                 `json:"client_ip,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// SearchEventService publishes search events to RabbitMQ and records them in MongoDB.
// A nil *SearchEventService or one without a channel only records to MongoDB.
type SearchEventService struct {
	conn    *amqp.Connection
	channel amqpChannel
	queue   string
	mu      sync.Mutex
}

// NewSearchEventService 连接 RabbitMQ 并声明队列。url 为空时不发布消息。
func NewSearchEventService(url, queue string) (*SearchEventService, error) {
	if url == "" {
		return &SearchEventService{}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}

	return &SearchEventService{
		conn:    conn,
		channel: ch,
		queue:   q.Name,
	}, nil
}

// Publish 发布一条搜索事件
func (s *SearchEventService) Publish(event SearchEvent) error {
	if s == nil || s.channel == nil {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel.Publish(
		"",      // exchange
		s.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Body:         body,
		})
}

// Record hands the event to the goroutine pool so the request never waits on the broker.
func (s *SearchEventService) Record(event SearchEvent) {
	monitoring.SaveSearchMetric(monitoring.SearchMetric{
		OccurredAt: event.OccurredAt,
		Filters:    event.Filters,
		Page:       event.Page,
		TotalItems: event.TotalItems,
		UserID:     event.UserID,
		ClientIP:   event.ClientIP,
	})

	if s == nil || s.channel == nil {
		return
	}

	err := goroutinepool.Submit(func(ctx context.Context) error {
		if err := s.Publish(event); err != nil {
			monitoring.RecordSearchEvent("amqp", "failed")
			logger.L().Warn("search event publish failed", zap.Error(err))
			return err
		}
		monitoring.RecordSearchEvent("amqp", "published")
		return nil
	})
	if err != nil {
		monitoring.RecordSearchEvent("amqp", "dropped")
		logger.L().Warn("search event dropped", zap.Error(err))
	}
}

// Close 关闭通道与连接
func (s *SearchEventService) Close() error {
	if s == nil || s.channel == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.channel.Close(); err != nil {
		return err
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
