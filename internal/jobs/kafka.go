package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/good-yellow-bee/projectboard/internal/metrics"
)

// KafkaConfig configures a Kafka-backed queue.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// messageWriter is the subset of *kafka.Writer used by KafkaQueue.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// messageReader is the subset of *kafka.Reader used by KafkaQueue.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaQueue publishes jobs to a topic and consumes them in a consumer group,
// so several server processes can share the work.
type KafkaQueue struct {
	writer messageWriter
	reader messageReader

	mu     sync.RWMutex
	closed bool
}

// NewKafkaQueue creates a queue for cfg. The writer is asynchronous so
// Enqueue never waits on the broker.
func NewKafkaQueue(cfg KafkaConfig) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "projectboard-jobs"
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Printf("kafka: failed to publish %d job(s): %v", len(msgs), err)
			}
		},
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})

	return newKafkaQueue(writer, reader), nil
}

func newKafkaQueue(w messageWriter, r messageReader) *KafkaQueue {
	return &KafkaQueue{writer: w, reader: r}
}

// Enqueue publishes job keyed by user so a user's jobs stay ordered.
func (q *KafkaQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	value, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.UserID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	metrics.JobsEnqueuedTotal.WithLabelValues(string(job.Kind)).Inc()
	return nil
}

// Run consumes jobs until ctx is cancelled. Messages are committed after
// the handler returns, whatever the result, so a failing job is not retried.
func (q *KafkaQueue) Run(ctx context.Context, h Handler) error {
	for {
		msg, err := q.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch job: %w", err)
		}

		var job Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			log.Printf("kafka: skipping malformed job at offset %d: %v", msg.Offset, err)
		} else {
			process(ctx, h, job)
		}

		if err := q.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit job: %w", err)
		}
	}
}

// Close flushes pending writes and closes both connections.
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true

	var errs []error
	if err := q.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close kafka writer: %w", err))
	}
	if err := q.reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close kafka reader: %w", err))
	}
	return errors.Join(errs...)
}
