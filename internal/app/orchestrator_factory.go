package app

import (
	"github.com/AndresRojas2002/library-manager/internal/messaging/kafka"
	"github.com/AndresRojas2002/library-manager/internal/service/lending"
)

// createOrchestrator создаёт lending orchestrator с или без Kafka
// в зависимости от наличия kafka producer.
func createOrchestrator(deps *Dependencies, kafkaProducer *kafka.Producer) lending.Orchestrator {
	lendingDeps := lending.Deps{
		Books:    deps.Books,
		Users:    deps.Users,
		Loans:    deps.Loans,
		Store:    deps.Store,
		Outbox:   deps.Outbox,
		Timeline: deps.Timeline,
	}
	logger := deps.Logger.WithField("layer", "lending")

	if kafkaProducer != nil {
		return lending.NewOrchestratorWithKafka(lendingDeps, kafkaProducer, logger)
	}
	return lending.NewOrchestrator(lendingDeps, logger)
}
