package messaging

import (
	"wallet-service/src/internal/model"
	kafka "wallet-service/src/pkg/kafka/confluent"
	"wallet-service/src/pkg/log"
)

type TransactionProducer struct {
	SettlementProducer Producer[*model.TransactionEvent]
	TopUpProducer      Producer[*model.TransactionEvent]
	UnresolvedProducer Producer[*model.ReconciliationEvent]
}

func NewTransactionProducer(producer kafka.Producer, log log.Log) *TransactionProducer {
	return &TransactionProducer{
		SettlementProducer: Producer[*model.TransactionEvent]{
			Producer: producer,
			Topic:    "wallet-transaction-settled",
			Log:      log,
		},
		TopUpProducer: Producer[*model.TransactionEvent]{
			Producer: producer,
			Topic:    "wallet-topup-settled",
			Log:      log,
		},
		UnresolvedProducer: Producer[*model.ReconciliationEvent]{
			Producer: producer,
			Topic:    "wallet-reconciliation-unresolved",
			Log:      log,
		},
	}
}

func (p *TransactionProducer) SendSettled(event *model.TransactionEvent) error {
	return p.SettlementProducer.Send(event)
}

func (p *TransactionProducer) SendTopUpSettled(event *model.TransactionEvent) error {
	return p.TopUpProducer.Send(event)
}

func (p *TransactionProducer) SendUnresolved(event *model.ReconciliationEvent) error {
	return p.UnresolvedProducer.Send(event)
}
