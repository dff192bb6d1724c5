package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"wallet-service/src/internal/model"
	"wallet-service/src/internal/usecase"
	"wallet-service/src/pkg/log"

	"github.com/IBM/sarama"
	"github.com/spf13/viper"
)

// TopUpConsumer listens for payment-collection events and confirms the
// matching top up. The event only carries the reference; Verify re-checks
// the provider before crediting, so a forged or replayed event cannot mint
// money.
type TopUpConsumer struct {
	Log     log.Log
	UseCase *usecase.TopUpUseCase

	group  sarama.ConsumerGroup
	topics []string
}

func NewTopUpConsumer(v *viper.Viper, logger log.Log, useCase *usecase.TopUpUseCase) (*TopUpConsumer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_0_0_0
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	brokers := v.GetStringSlice("kafka.consumer.brokers")
	groupID := v.GetString("kafka.consumer.group_id")
	if groupID == "" {
		groupID = "wallet-service"
	}

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	topic := v.GetString("kafka.consumer.topup_topic")
	if topic == "" {
		topic = "payment-collection-events"
	}

	return &TopUpConsumer{
		Log:     logger,
		UseCase: useCase,
		group:   group,
		topics:  []string{topic},
	}, nil
}

// Start blocks consuming until the context is cancelled.
func (c *TopUpConsumer) Start(ctx context.Context) error {
	for {
		if err := c.group.Consume(ctx, c.topics, c); err != nil {
			c.Log.Error("topup-consumer", fmt.Sprintf("consume error: %v", err), "Start", "")
		}
		if ctx.Err() != nil {
			return c.group.Close()
		}
	}
}

func (c *TopUpConsumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *TopUpConsumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *TopUpConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		c.handleEvent(session.Context(), message.Value)
		session.MarkMessage(message, "")
	}
	return nil
}

// handleEvent confirms the top up named by a single collection event. Every
// message is consumed exactly once: a malformed or incomplete event is
// dropped after logging, never retried, because Verify stays replayable
// through the reconciler sweep.
func (c *TopUpConsumer) handleEvent(ctx context.Context, value []byte) {
	var event model.CollectionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		c.Log.Error("topup-consumer", fmt.Sprintf("malformed collection event: %v", err), "handleEvent", string(value))
		return
	}
	if event.Reference == "" {
		return
	}

	result := c.UseCase.Verify(ctx, &model.TopUpVerifyRequest{Reference: event.Reference})
	if result.Error != nil {
		c.Log.Error("topup-consumer", fmt.Sprintf("failed to confirm top up: %s", result.Error.Message), "handleEvent", event.Reference)
	}
}
