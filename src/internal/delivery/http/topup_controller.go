package http

import (
	"wallet-service/src/internal/delivery/http/middleware"
	"wallet-service/src/internal/model"
	"wallet-service/src/internal/usecase"
	"wallet-service/src/pkg/log"
	"wallet-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type TopUpController struct {
	Log     log.Log
	UseCase *usecase.TopUpUseCase
}

func NewTopUpController(useCase *usecase.TopUpUseCase, logger log.Log) *TopUpController {
	return &TopUpController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *TopUpController) Initialize(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.TopUpInitializeRequest)
	request.UserID = auth.Metadata.UserID
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("TopUpController.Initialize", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	result := c.UseCase.Initialize(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Initialize Top Up", fiber.StatusOK, ctx)
}

func (c *TopUpController) Verify(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := &model.TopUpVerifyRequest{
		UserID:    auth.Metadata.UserID,
		Reference: ctx.Params("reference"),
	}
	result := c.UseCase.Verify(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Verify Top Up", fiber.StatusOK, ctx)
}
