package repository

import (
	"context"

	"StratCore/internal/domain/models"
	drepo "StratCore/internal/domain/repository"
	pkgkafka "StratCore/pkg/kafka"
)

// KafkaSelectionPublisher notifies the execution loop of new selections
// over a Kafka topic, keyed by user so per-user ordering holds.
type KafkaSelectionPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSelectionPublisher(producer *pkgkafka.Producer, topic string) drepo.SelectionPublisher {
	return &KafkaSelectionPublisher{producer: producer, topic: topic}
}

func (p *KafkaSelectionPublisher) PublishSelection(ctx context.Context, r *models.SelectionRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.UserID), map[string]interface{}{
		"user_id":           r.UserID,
		"selected_strategy": r.SelectedStrategyID,
		"regime":            string(r.Regime),
		"btc_trend":         string(r.BTCTrend),
		"total_score":       r.TotalScore,
		"created_at":        r.CreatedAt.UnixMilli(),
	})
}

func (p *KafkaSelectionPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
