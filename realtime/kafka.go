package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// KafkaPublisher appends every event to one topic keyed by room, so consumers
// see events of a room in order. Sends are asynchronous; delivery failures
// come back on the producer's error channel and are logged.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	log      *slog.Logger
	done     chan struct{}
}

func NewKafkaProducer(brokers []string) (sarama.AsyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Flush.Frequency = 50 * time.Millisecond
	return sarama.NewAsyncProducer(brokers, cfg)
}

func NewKafkaPublisher(producer sarama.AsyncProducer, topic string, log *slog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{producer: producer, topic: topic, log: log, done: make(chan struct{})}
	go p.drainErrors()
	return p
}

func (p *KafkaPublisher) drainErrors() {
	defer close(p.done)
	for perr := range p.producer.Errors() {
		room := ""
		if perr.Msg != nil && perr.Msg.Key != nil {
			if key, err := perr.Msg.Key.Encode(); err == nil {
				room = string(key)
			}
		}
		p.log.Warn("kafka publish failed", "action", "broadcast", "topic", p.topic, "room", room, "error", perr.Err)
	}
}

// Publish queues the event on the producer. It only blocks while the
// producer's input buffer is full, and never past ctx.
func (p *KafkaPublisher) Publish(ctx context.Context, room string, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(room),
		Value:     sarama.ByteEncoder(data),
		Headers:   []sarama.RecordHeader{{Key: []byte("event"), Value: []byte(evt.Name)}},
		Timestamp: time.Now(),
	}
	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue kafka message: %w", ctx.Err())
	}
}

// Close flushes buffered messages and waits until their errors are logged.
func (p *KafkaPublisher) Close() error {
	p.producer.AsyncClose()
	<-p.done
	return nil
}
