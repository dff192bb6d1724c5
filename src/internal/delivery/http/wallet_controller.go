package http

import (
	"wallet-service/src/internal/delivery/http/middleware"
	"wallet-service/src/internal/model"
	"wallet-service/src/internal/usecase"
	"wallet-service/src/pkg/log"
	"wallet-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletController struct {
	Log     log.Log
	UseCase *usecase.PurchaseUseCase
}

func NewWalletController(useCase *usecase.PurchaseUseCase, logger log.Log) *WalletController {
	return &WalletController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *WalletController) Purchase(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.PurchaseRequest)
	request.UserID = auth.Metadata.UserID
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("WalletController.Purchase", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	result := c.UseCase.Purchase(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Purchase", fiber.StatusOK, ctx)
}

func (c *WalletController) VerifyMeter(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.VerifyMeterRequest)
	request.UserID = auth.Metadata.UserID
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("WalletController.VerifyMeter", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	result := c.UseCase.VerifyMeter(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Verify Meter", fiber.StatusOK, ctx)
}

func (c *WalletController) GetBalance(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	result := c.UseCase.GetBalance(ctx.Context(), auth.Metadata.UserID)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Get Balance", fiber.StatusOK, ctx)
}

func (c *WalletController) ListTransactions(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := &model.ListTransactionsRequest{
		UserID: auth.Metadata.UserID,
		Limit:  ctx.QueryInt("limit"),
		Offset: ctx.QueryInt("offset"),
	}
	result := c.UseCase.ListTransactions(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "List Transactions", fiber.StatusOK, ctx)
}
