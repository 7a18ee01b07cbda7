package public

import (
	"errors"

	handlershared "github.com/checkout-next/internal/http/handlers/shared"
	"github.com/checkout-next/internal/http/response"
	"github.com/checkout-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义需要特殊响应码的业务错误。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

// 其余业务错误按大类映射，见 RespondServiceError
var authErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "invalid email or password"},
}

var sessionErrorRules = []mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeUnauthorized, msg: "unauthorized"},
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	handlershared.RespondServiceError(c, err, fallbackMsg)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}
