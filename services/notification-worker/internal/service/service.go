package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kay-kewl/shop-platform/internal/rabbitmq"
	"github.com/kay-kewl/shop-platform/internal/requestid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type NotificationService struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *NotificationService {
	return &NotificationService{logger: logger}
}

func (s *NotificationService) StartConsumer(ctx context.Context, rabbitManager *rabbitmq.ConnectionManager) {
	s.logger.Info("Waiting for RabbitMQ connection...")
	rabbitManager.WaitUntilReady()
	s.logger.Info("RabbitMQ connection is ready. Starting consumer...")

	ch, err := rabbitManager.GetChannel()
	if err != nil {
		s.logger.Error("Failed to get channel", "error", err)
		return
	}
	defer ch.Close()

	if err := s.setupTopology(ch); err != nil {
		s.logger.Error("Failed to setup RabbitMQ topology", "error", err)
		return
	}

	msgs, err := ch.Consume("notification_queue", "", false, false, false, false, nil)
	if err != nil {
		s.logger.Error("Failed to start consuming messages", "error", err)
		return
	}

	s.logger.Info("Consumer started. Waiting for messages...")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Context cancelled, stopping consumer...")
			return
		case msg, ok := <-msgs:
			if !ok {
				s.logger.Warn("Message channel closed. Exiting consumer loop.")
				return
			}

			s.processMessage(ctx, msg)
			msg.Ack(false)
		}
	}
}

func (s *NotificationService) processMessage(ctx context.Context, msg amqp.Delivery) {
	// restore the request id the storefront recorded with the outbox event
	if reqID, ok := msg.Headers["x-request-id"].(string); ok && reqID != "" {
		ctx = requestid.With(ctx, reqID)
	}

	switch msg.RoutingKey {
	case "member.registered":
		var event struct {
			MemberID int64  `json:"member_id"`
			Email    string `json:"email"`
			Name     string `json:"name"`
		}
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to unmarshal member event, discarding", "error", err)
			return
		}
		s.logger.InfoContext(ctx, "Simulating welcome email",
			"member_id", event.MemberID, "email", event.Email)
	case "product.created":
		var event struct {
			ProductID  int64  `json:"product_id"`
			Name       string `json:"name"`
			PriceCents int64  `json:"price_cents"`
		}
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to unmarshal product event, discarding", "error", err)
			return
		}
		s.logger.InfoContext(ctx, "Simulating catalog sync notification",
			"product_id", event.ProductID, "name", event.Name)
	default:
		s.logger.WarnContext(ctx, "Unknown event", "routing_key", msg.RoutingKey)
	}
}

func (s *NotificationService) setupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare("shop_events", "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err := ch.QueueDeclare("notification_dlq", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare dlq: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": "notification_dlq",
	}
	q, err := ch.QueueDeclare("notification_queue", true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	s.logger.Info("Binding queue to routing keys...")
	eventsToBind := []string{
		"member.registered",
		"product.created",
	}

	for _, eventKey := range eventsToBind {
		err = ch.QueueBind(q.Name, eventKey, "shop_events", false, nil)
		if err != nil {
			return fmt.Errorf("failed to bind queue to key %s: %w", eventKey, err)
		}
	}

	return nil
}
