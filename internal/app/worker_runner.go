package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/dig"

	"moto-dispatch/internal/cache"
	"moto-dispatch/internal/logx"
	"moto-dispatch/internal/transport/kafka"
)

// WorkerRunner runs the delivery events consumer
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun consumes until the container context is cancelled
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

func workerRun(
	ctx context.Context,
	logger logx.Logger,
	consumer *kafka.Consumer,
	redis *cache.Redis,
) error {
	if consumer == nil {
		return fmt.Errorf("kafka consumer is nil: set KAFKA_BROKERS for the worker")
	}
	defer closeWorker(logger, consumer, redis)

	logger.Info("dispatch-worker started")
	return consumer.Run(ctx)
}

func closeWorker(logger logx.Logger, kafkaConsumer *kafka.Consumer, redis *cache.Redis) {
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Close(); err != nil {
			logger.Error("kafka close error", logx.Err(err))
		}
	}
	if err := redis.Close(); err != nil {
		logger.Error("redis close error", logx.Err(err))
	}
}
