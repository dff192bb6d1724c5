package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"wallet-service/src/internal/config"
	deliveryMessaging "wallet-service/src/internal/delivery/messaging"
	"wallet-service/src/pkg/log"

	"github.com/hibiken/asynq"
)

func main() {

	viperConfig := config.NewViper()
	viperConfig.SetDefault("log.level", "DEBUG")
	viperConfig.SetDefault("app.name", "WALLET_SERVICE")
	viperConfig.SetDefault("web.port", 8080)
	log.InitLogger(viperConfig)
	config.NewKafkaConfig(viperConfig)
	logger := log.GetLogger()
	config.LoadRedisConfig(viperConfig, logger)
	db := config.NewDatabase(viperConfig, logger)
	redisClient := config.NewRedis()
	producer := config.NewKafkaProducer(viperConfig, logger)
	validate := config.NewValidator(viperConfig)
	app := config.NewFiber(viperConfig)

	asynqClient := config.NewAsynqClient(viperConfig)
	asynqServer := config.NewAsynqServer(viperConfig, logger)
	asynqScheduler := config.NewAsynqScheduler(viperConfig, logger)
	asynqMux := asynq.NewServeMux()

	result := config.Bootstrap(&config.BootstrapConfig{
		DB:          db,
		App:         app,
		Log:         logger,
		Validate:    validate,
		Config:      viperConfig,
		Producer:    producer,
		Redis:       redisClient,
		AsynqClient: asynqClient,
		Async:       asynqMux,
	})

	go func() {
		if err := asynqServer.Run(asynqMux); err != nil {
			logger.Error("main", fmt.Sprintf("asynq server stopped: %v", err), "main", "")
		}
	}()
	go func() {
		if err := asynqScheduler.Run(); err != nil {
			logger.Error("main", fmt.Sprintf("asynq scheduler stopped: %v", err), "main", "")
		}
	}()

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	if viperConfig.GetBool("kafka.consumer.enabled") {
		consumer, err := deliveryMessaging.NewTopUpConsumer(viperConfig, logger, result.TopUpUseCase)
		if err != nil {
			logger.Error("main", fmt.Sprintf("Failed to start top up consumer: %v", err), "main", "")
		} else {
			go func() {
				if err := consumer.Start(consumerCtx); err != nil {
					logger.Error("main", fmt.Sprintf("Top up consumer stopped: %v", err), "main", "")
				}
			}()
		}
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	go func() {
		<-quit
		logger.Info("main", "Server wallet-service is shutting down...", "graceful", "")

		_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		consumerCancel()
		asynqServer.Shutdown()
		asynqScheduler.Shutdown()
		if err := app.Shutdown(); err != nil {
			logger.Error("main", fmt.Sprintf("Error during shutdown: %v", err), "graceful", "")
		}
		close(done)
	}()

	webPort := viperConfig.GetInt("web.port")
	if err := app.Listen(fmt.Sprintf(":%d", webPort)); err != nil {
		logger.Error("main", fmt.Sprintf("Failed to start server: %v", err), "main", "")
	}

	<-done
	logger.Info("main", fmt.Sprintf("Server %s stopped", viperConfig.GetString("app.name")), "graceful", "")
}
