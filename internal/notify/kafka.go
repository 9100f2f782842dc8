package notify

import (
	"context"
	"fmt"
	"swiftattend/internal/config"
	"swiftattend/internal/kafka"
	"time"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

var _ Publisher = (*kafka.Producer)(nil)

// Kafka publishes registration and check-in events keyed by participant id.
type Kafka struct {
	Publisher Publisher
	Topics    config.TopicConfig
	Timeout   time.Duration
}

// publishContext detaches from the caller so a finished request does not
// cancel its publish; Timeout still bounds it.
func (k *Kafka) publishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), k.Timeout)
}

func NewKafka(p Publisher, topics config.TopicConfig) *Kafka {
	return &Kafka{Publisher: p, Topics: topics, Timeout: 5 * time.Second}
}

func (k *Kafka) NotifyRegistration(ctx context.Context, r Registration) error {
	ctx, cancel := k.publishContext(ctx)
	defer cancel()
	if err := k.Publisher.PublishJSON(ctx, k.Topics.Registrations, r.ParticipantID, r); err != nil {
		return fmt.Errorf("publish registration %s: %w", r.ParticipantID, err)
	}
	return nil
}

func (k *Kafka) NotifyCheckIn(ctx context.Context, c CheckIn) error {
	ctx, cancel := k.publishContext(ctx)
	defer cancel()
	if err := k.Publisher.PublishJSON(ctx, k.Topics.CheckIns, c.ParticipantID, c); err != nil {
		return fmt.Errorf("publish check-in %s: %w", c.ParticipantID, err)
	}
	return nil
}
