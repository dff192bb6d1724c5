package config

import (
	"context"

	"wallet-service/src/internal/delivery/http"
	"wallet-service/src/internal/delivery/http/middleware"
	"wallet-service/src/internal/delivery/http/route"
	"wallet-service/src/internal/gateway/messaging"
	"wallet-service/src/internal/repository"
	"wallet-service/src/internal/usecase"
	"wallet-service/src/pkg/databases/mysql"
	kafkaPkgConfluent "wallet-service/src/pkg/kafka/confluent"
	"wallet-service/src/pkg/log"
	redisModule "wallet-service/src/pkg/redis"
	"wallet-service/src/pkg/token"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

type BootstrapConfig struct {
	DB          mysql.DBInterface
	App         *fiber.App
	Log         log.Log
	Validate    *validator.Validate
	Config      *viper.Viper
	Producer    kafkaPkgConfluent.Producer
	Redis       redis.UniversalClient
	AsynqClient *asynq.Client
	Async       *asynq.ServeMux
}

// BootstrapResult exposes the pieces main needs beyond route setup.
type BootstrapResult struct {
	TopUpUseCase *usecase.TopUpUseCase
}

func Bootstrap(config *BootstrapConfig) *BootstrapResult {
	// setup repositories
	walletRepository := repository.NewWalletRepository(config.DB)
	ledgerRepository := repository.NewLedgerRepository(config.DB)
	transactionProducer := messaging.NewTransactionProducer(config.Producer, config.Log)

	// setup gateways
	billingClient := NewBillingClient(config.Config, config.Log)
	collectionClient := NewCollectionClient(config.Config, config.Log)

	// setup secure action gate
	var gate usecase.SecureActionGate
	if config.Config.GetString("secure_gate.mode") == "pin" {
		gate = token.NewPinGate(func(ctx context.Context, userID string) (string, error) {
			account, err := walletRepository.FindAccount(ctx, userID)
			if err != nil {
				return "", err
			}
			return account.PinHash.String, nil
		})
	} else {
		gate = token.NewActionGate(config.Config)
	}

	dedup := redisModule.NewLocker(config.Redis)

	// setup use cases
	purchaseUseCase := usecase.NewPurchaseUseCase(
		config.Log,
		config.Validate,
		walletRepository,
		ledgerRepository,
		billingClient,
		gate,
		dedup,
		config.Config,
		transactionProducer,
		config.AsynqClient,
	)

	topUpUseCase := usecase.NewTopUpUseCase(
		config.Log,
		config.Validate,
		walletRepository,
		ledgerRepository,
		collectionClient,
		transactionProducer,
	)

	reconcilerUseCase := usecase.NewReconcilerUseCase(
		config.Log,
		walletRepository,
		ledgerRepository,
		billingClient,
		collectionClient,
		transactionProducer,
		config.Config,
	)

	// setup controller
	walletController := http.NewWalletController(purchaseUseCase, config.Log)
	topUpController := http.NewTopUpController(topUpUseCase, config.Log)
	// setup middleware
	authMiddleware := middleware.VerifyBearer(config.Config)
	config.Async.HandleFunc(usecase.TypeReconcileEntry, reconcilerUseCase.HandleReconcileTask)
	config.Async.HandleFunc(usecase.TypeSweepPending, reconcilerUseCase.HandleSweepTask)
	routeConfig := route.RouteConfig{
		App:              config.App,
		WalletController: walletController,
		TopUpController:  topUpController,
		AuthMiddleware:   authMiddleware,
	}
	routeConfig.Setup()

	return &BootstrapResult{TopUpUseCase: topUpUseCase}
}
