package middleware

import (
	"encoding/json"
	"strings"

	"wallet-service/src/pkg/token"
	"wallet-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

const userLocalKey = "auth"

// VerifyBearer validates the Authorization bearer token and stores the
// decoded claim in the request locals for GetUser.
func VerifyBearer(v *viper.Viper) fiber.Handler {
	secret := []byte(v.GetString("jwt.secret"))

	return func(ctx *fiber.Ctx) error {
		header := ctx.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return utils.Response(nil, "missing bearer token", fiber.StatusUnauthorized, ctx)
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !parsed.Valid {
			return utils.Response(nil, "invalid token", fiber.StatusUnauthorized, ctx)
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return utils.Response(nil, "invalid token", fiber.StatusUnauthorized, ctx)
		}

		var claim token.Claim
		raw2, _ := json.Marshal(claims)
		if err := json.Unmarshal(raw2, &claim); err != nil || claim.Metadata.UserID == "" {
			return utils.Response(nil, "invalid token claims", fiber.StatusUnauthorized, ctx)
		}

		ctx.Locals(userLocalKey, &claim)
		return ctx.Next()
	}
}

// GetUser returns the claim stored by VerifyBearer; only call it behind the
// auth middleware.
func GetUser(ctx *fiber.Ctx) *token.Claim {
	claim, ok := ctx.Locals(userLocalKey).(*token.Claim)
	if !ok {
		return &token.Claim{}
	}
	return claim
}
