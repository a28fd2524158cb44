package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// Consumers is the number of group members started by Run.
	Consumers int
}

// KafkaQueue publishes jobs to a topic and consumes them in a consumer group.
// Jobs are keyed by artwork id so one artwork's jobs stay on one partition.
type KafkaQueue struct {
	cfg    KafkaConfig
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaQueue(cfg KafkaConfig, log *zap.Logger) *KafkaQueue {
	if cfg.Consumers <= 0 {
		cfg.Consumers = 1
	}
	return &KafkaQueue{
		cfg: cfg,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		log: log,
	}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.ArtworkID),
		Value: payload,
	})
	if errors.Is(err, io.ErrClosedPipe) {
		return ErrQueueClosed
	}
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

func (q *KafkaQueue) Run(ctx context.Context, h Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.cfg.Consumers; i++ {
		g.Go(func() error { return q.consume(ctx, h) })
	}
	return g.Wait()
}

func (q *KafkaQueue) consume(ctx context.Context, h Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: q.cfg.Brokers,
		Topic:   q.cfg.Topic,
		GroupID: q.cfg.GroupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.log.Error("error reading job", zap.Error(err))
			continue
		}

		var job Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			q.log.Error("dropping malformed job", zap.Int64("offset", msg.Offset), zap.Error(err))
		} else if err := h(ctx, job); err != nil {
			q.log.Error("analysis job failed",
				zap.String("job_id", job.ID),
				zap.String("artwork_id", job.ArtworkID),
				zap.Error(err))
		}

		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			q.log.Error("failed to commit job offset", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}

var _ Queue = (*KafkaQueue)(nil)
