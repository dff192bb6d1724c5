package kafka

import (
	"fmt"

	"wallet-service/src/pkg/log"

	k "gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

type kafkaProducer struct {
	producer *k.Producer
	log      log.Log
}

// NewProducer creates a confluent producer and drains its delivery reports
// in the background.
func NewProducer(cfg *k.ConfigMap, logger log.Log) (Producer, error) {
	producer, err := k.NewProducer(cfg)
	if err != nil {
		return nil, err
	}

	p := &kafkaProducer{
		producer: producer,
		log:      logger,
	}

	go p.handleEvents()

	return p, nil
}

func (p *kafkaProducer) handleEvents() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *k.Message:
			if ev.TopicPartition.Error != nil {
				p.log.Error("kafka-producer", fmt.Sprintf("delivery failed: %v", ev.TopicPartition.Error), "handleEvents", "")
			}
		case k.Error:
			p.log.Error("kafka-producer", ev.Error(), "handleEvents", "")
		}
	}
}

func (p *kafkaProducer) Publish(message *k.Message) error {
	return p.producer.Produce(message, nil)
}

func (p *kafkaProducer) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}
