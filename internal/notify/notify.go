// Package notify hands booking confirmations to the downstream mailer.
// Delivery is best-effort; a send failure never fails the booking.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Confirmation struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientName   string    `json:"patient_name"`
	PatientEmail  string    `json:"patient_email"`
	DoctorName    string    `json:"doctor_name"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	QueuedAt      time.Time `json:"queued_at"`
}

type Notifier interface {
	SendBookingConfirmation(ctx context.Context, c Confirmation) error
}

// RedisNotifier pushes confirmation payloads onto a Redis list consumed by
// the mailer process.
type RedisNotifier struct {
	client *redis.Client
	queue  string
}

func NewRedisNotifier(client *redis.Client, queue string) *RedisNotifier {
	return &RedisNotifier{client: client, queue: queue}
}

func (n *RedisNotifier) SendBookingConfirmation(ctx context.Context, c Confirmation) error {
	if c.QueuedAt.IsZero() {
		c.QueuedAt = time.Now()
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}

	if err := n.client.LPush(ctx, n.queue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue confirmation: %w", err)
	}

	return nil
}

// Nop discards notifications. Used by workers and tests.
type Nop struct{}

func (Nop) SendBookingConfirmation(context.Context, Confirmation) error { return nil }
