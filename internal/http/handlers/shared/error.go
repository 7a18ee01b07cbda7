package shared

import (
	"github.com/checkout-next/internal/http/response"
	"github.com/checkout-next/internal/logger"
	"github.com/checkout-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，原始错误只写日志不下发
func RespondError(c *gin.Context, code int, msg string, err error) {
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"message", msg,
			"path", c.FullPath(),
			"error", err,
		)
	}
	response.Error(c, code, msg)
}

var kindCodes = map[service.ErrorKind]int{
	service.KindNotFound:   response.CodeNotFound,
	service.KindBadRequest: response.CodeBadRequest,
	service.KindConflict:   response.CodeConflict,
	service.KindInternal:   response.CodeInternal,
}

// RespondServiceError 按业务错误大类映射响应码
// 内部错误只返回通用文案，原因写日志
func RespondServiceError(c *gin.Context, err error, fallbackMsg string) {
	svcErr, ok := service.AsError(err)
	if !ok {
		RespondError(c, response.CodeInternal, fallbackMsg, err)
		return
	}
	code, known := kindCodes[svcErr.Kind]
	if !known || code == response.CodeInternal {
		RespondError(c, response.CodeInternal, svcErr.Message, err)
		return
	}
	response.ErrorWithReason(c, code, svcErr.PublicMessage(), string(svcErr.Reason))
}
