package integration

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type Env struct {
	PG      *postgres.PostgresContainer
	Kafka   *kafka.KafkaContainer
	PGURL   string
	Brokers []string
	Cancel  context.CancelFunc
}

func Setup(ctx context.Context) (*Env, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		cancel()
		return nil, err
	}

	kafkaC, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("test-cluster"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	brokers, err := kafkaC.Brokers(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	return &Env{
		PG:      pgC,
		Kafka:   kafkaC,
		PGURL:   pgURL,
		Brokers: brokers,
		Cancel:  cancel,
	}, nil
}

func (e *Env) Teardown(ctx context.Context) {
	e.Cancel()
	_ = e.Kafka.Terminate(ctx)
	_ = e.PG.Terminate(ctx)
}
