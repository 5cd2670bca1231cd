package service

import (
	"github.com/IBM/sarama"
	jsoniter "github.com/json-iterator/go"

	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/pkg/kafka"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Auditor publishes catalog mutation events to Kafka. A nil Auditor or a nil
// producer is a no-op: audit publishing never fails a mutation.
type Auditor struct {
	producer sarama.SyncProducer
	log      *zap.Logger
}

func NewAuditor(producer sarama.SyncProducer, log *zap.Logger) *Auditor {
	return &Auditor{
		producer: producer,
		log:      log.Named("audit"),
	}
}

func (a *Auditor) Publish(event model.AuditEvent) {
	if a == nil || a.producer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		a.log.Warn("audit marshal", zap.Error(err))
		return
	}
	msg := &sarama.ProducerMessage{Topic: kafka.AuditTopic, Value: sarama.StringEncoder(data)}
	if _, _, err := a.producer.SendMessage(msg); err != nil {
		a.log.Warn("audit publish", zap.Error(err))
	}
}
