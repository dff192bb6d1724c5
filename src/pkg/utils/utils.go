package utils

import (
	"encoding/json"
	"strconv"

	httpError "wallet-service/src/pkg/http-error"

	"github.com/gofiber/fiber/v2"
)

// Result is the envelope every usecase returns to its controller.
type Result struct {
	Data  interface{}
	Error *httpError.CommonError
}

type responseBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Response(data interface{}, message string, code int, ctx *fiber.Ctx) error {
	return ctx.Status(code).JSON(responseBody{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ResponseError(err interface{}, ctx *fiber.Ctx) error {
	switch e := err.(type) {
	case *httpError.CommonError:
		return ctx.Status(e.Code).JSON(responseBody{Success: false, Message: e.Message})
	case error:
		return ctx.Status(fiber.StatusBadRequest).JSON(responseBody{Success: false, Message: e.Error()})
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(responseBody{Success: false, Message: "Internal Server Error"})
	}
}

// ConvertString renders any value as a string for log metadata.
func ConvertString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case error:
		return s.Error()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func ConvertInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
