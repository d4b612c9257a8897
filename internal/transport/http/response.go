package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tryon-client/internal/platform/errors"
)

// APIResponse 定义统一的接口返回结构体
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

// RespondSuccess 返回成功响应
func RespondSuccess(c *gin.Context, httpStatus int, data interface{}, message string) {
	if message == "" {
		message = "ok"
	}

	resp := APIResponse{
		Success: true,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	}

	c.JSON(httpStatus, resp)
}

// RespondError 返回失败响应
func RespondError(c *gin.Context, httpStatus int, message string, data interface{}) {
	resp := APIResponse{
		Success: false,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	}

	c.JSON(httpStatus, resp)
}

// RespondFailure 按错误类型选择状态码，消息原样取自 errors.Detail
func RespondFailure(c *gin.Context, err error) {
	_ = c.Error(err)
	RespondError(c, StatusFor(err), errors.Detail(err), nil)
}

// StatusFor 错误类型到 HTTP 状态码的映射。远程拒绝沿用远程状态码。
func StatusFor(err error) int {
	switch {
	case errors.IsKind(err, errors.KindAsset), errors.IsKind(err, errors.KindDomain):
		return http.StatusBadRequest
	case errors.IsKind(err, errors.KindRemote), errors.IsKind(err, errors.KindStatus), errors.IsKind(err, errors.KindAudit):
		if code := errors.StatusCode(err); code >= 400 && code < 600 {
			return code
		}
		return http.StatusBadGateway
	case errors.IsKind(err, errors.KindNetwork), errors.IsKind(err, errors.KindTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
