package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openchatd/identity/internal/domain/event"
)

// Publisher writes auth events as JSON messages, keyed by user id when the
// event has one, else by email. Trace context is propagated in the headers.
type Publisher struct {
	w     *kafka.Writer
	topic string
	log   *zap.Logger
}

func NewPublisher(brokers []string, topic string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
		log:   log.With(zap.String("component", "kafka.publisher"), zap.String("topic", topic)),
	}
}

func (p *Publisher) Publish(ctx context.Context, e event.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}

	tr := otel.Tracer("kafka.publisher")
	ctx, span := tr.Start(ctx, "kafka.produce "+p.topic, trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingOperationPublish,
		),
	)
	defer span.End()

	hdrs := headerCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, hdrs)

	key := e.UserID
	if key == "" {
		key = e.Email
	}

	msg := kafka.Message{Key: []byte(key), Value: value, Headers: hdrs.toKafka()}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.log.Error("kafka write failed", zap.String("type", string(e.Type)), zap.Error(err))
		return err
	}
	p.log.Debug("event published", zap.String("type", string(e.Type)))
	return nil
}

func (p *Publisher) Close() error { return p.w.Close() }

type headerCarrier map[string]string

func (c headerCarrier) Get(k string) string { return c[k] }
func (c headerCarrier) Set(k, v string)     { c[k] = v }
func (c headerCarrier) Keys() []string {
	ks := make([]string, 0, len(c))
	for k := range c {
		ks = append(ks, k)
	}
	return ks
}

func (c headerCarrier) toKafka() []kafka.Header {
	hs := make([]kafka.Header, 0, len(c))
	for k, v := range c {
		hs = append(hs, kafka.Header{Key: k, Value: []byte(v)})
	}
	return hs
}
