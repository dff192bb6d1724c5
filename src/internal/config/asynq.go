package config

import (
	"context"
	"fmt"

	"wallet-service/src/internal/usecase"
	"wallet-service/src/pkg/log"

	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
)

func asynqRedisOpt(v *viper.Viper) asynq.RedisClientOpt {
	host := v.GetString("redis.host")
	if host == "" {
		host = "127.0.0.1"
	}

	port := v.GetInt("redis.port")
	if port == 0 {
		port = 6379
	}

	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	}
}

func NewAsynqClient(v *viper.Viper) *asynq.Client {
	return asynq.NewClient(asynqRedisOpt(v))
}

func NewAsynqServer(v *viper.Viper, logger log.Log) *asynq.Server {
	concurrency := v.GetInt("asynq.concurrency")
	if concurrency == 0 {
		concurrency = 10
	}

	return asynq.NewServer(asynqRedisOpt(v), asynq.Config{
		Concurrency: concurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("asynq", fmt.Sprintf("task %s failed: %v", task.Type(), err), "worker", "")
		}),
	})
}

// NewAsynqScheduler registers the periodic sweep that picks up pending
// entries whose reconcile task was lost.
func NewAsynqScheduler(v *viper.Viper, logger log.Log) *asynq.Scheduler {
	scheduler := asynq.NewScheduler(asynqRedisOpt(v), nil)

	interval := v.GetString("reconciler.sweep_interval")
	if interval == "" {
		interval = "@every 5m"
	}
	if _, err := scheduler.Register(interval, usecase.NewSweepPendingTask()); err != nil {
		logger.Error("asynq", fmt.Sprintf("failed to register sweep schedule: %v", err), "scheduler", "")
	}

	return scheduler
}
