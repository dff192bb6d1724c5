package route

import (
	"wallet-service/src/internal/delivery/http"
	"wallet-service/src/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	App              *fiber.App
	WalletController *http.WalletController
	TopUpController  *http.TopUpController
	AuthMiddleware   fiber.Handler
}

func (c *RouteConfig) Setup() {
	c.App.Use(middleware.NewLogger())
	c.App.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.SendString("OK")
	})
	c.SetupAuthRoute()
}

func (c *RouteConfig) SetupAuthRoute() {
	c.App.Use(c.AuthMiddleware)
	c.App.Post("/wallet/v1/purchase", c.WalletController.Purchase)
	c.App.Post("/wallet/v1/meter/verify", c.WalletController.VerifyMeter)
	c.App.Get("/wallet/v1/balance", c.WalletController.GetBalance)
	c.App.Get("/wallet/v1/transactions", c.WalletController.ListTransactions)
	c.App.Post("/wallet/v1/topup", c.TopUpController.Initialize)
	c.App.Get("/wallet/v1/topup/verify/:reference", c.TopUpController.Verify)
}
