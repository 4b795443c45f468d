package audit

import (
	"context"
	"encoding/json"

	"github.com/twmb/franz-go/pkg/kgo"

	dErrors "signet/pkg/domain-errors"
)

// DefaultTopic is where decision events land unless the host overrides it.
const DefaultTopic = "signet.decisions"

// KafkaPublisher ships decision events to Kafka. Events are keyed by client
// id so one client's decisions stay ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

type KafkaOption func(*KafkaPublisher)

func WithTopic(topic string) KafkaOption {
	return func(p *KafkaPublisher) {
		p.topic = topic
	}
}

func NewKafkaPublisher(client *kgo.Client, opts ...KafkaOption) *KafkaPublisher {
	p := &KafkaPublisher{client: client, topic: DefaultTopic}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	stamp(&event)
	raw, err := json.Marshal(event)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "serialize audit event", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.ClientID),
		Value: raw,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "publish audit event", err)
	}
	return nil
}
