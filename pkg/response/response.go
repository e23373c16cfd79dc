package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 统一错误码定义
const (
	SUCCESS           = 200
	ERROR             = 500
	INVALID_PARAMS    = 20001
	AUTH_ERROR        = 20002
	NOT_FOUND         = 20003
	FORBIDDEN         = 20004
	TOO_MANY_REQUESTS = 20005
	INTERNAL_ERROR    = 20006
)

// 错误码消息映射
var codeMsg = map[int]string{
	SUCCESS:           "OK",
	ERROR:             "Server error",
	INVALID_PARAMS:    "The given data was invalid.",
	AUTH_ERROR:        "Unauthenticated.",
	NOT_FOUND:         "Not found.",
	FORBIDDEN:         "Forbidden.",
	TOO_MANY_REQUESTS: "Too many requests.",
	INTERNAL_ERROR:    "Server error",
}

// 错误码对应的 HTTP 状态
var codeStatus = map[int]int{
	SUCCESS:           http.StatusOK,
	ERROR:             http.StatusInternalServerError,
	INVALID_PARAMS:    http.StatusUnprocessableEntity,
	AUTH_ERROR:        http.StatusUnauthorized,
	NOT_FOUND:         http.StatusNotFound,
	FORBIDDEN:         http.StatusForbidden,
	TOO_MANY_REQUESTS: http.StatusTooManyRequests,
	INTERNAL_ERROR:    http.StatusInternalServerError,
}

// Response 统一响应结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Errors    interface{} `json:"errors,omitempty"`
	OriginUrl string      `json:"originUrl"`
}

// GetMsg 获取错误码对应的消息
func GetMsg(code int) string {
	msg, exist := codeMsg[code]
	if exist {
		return msg
	}
	return codeMsg[ERROR]
}

// Status 获取错误码对应的 HTTP 状态
func Status(code int) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	resp := Response{
		Code:      SUCCESS,
		Message:   GetMsg(SUCCESS),
		Data:      data,
		OriginUrl: c.Request.URL.Path,
	}
	c.Set("response", resp)
	c.JSON(http.StatusOK, resp)
}

// Error 错误响应
func Error(c *gin.Context, code int, message ...string) {
	ErrorWithData(c, code, nil, message...)
}

// ErrorWithData 带字段错误的错误响应
func ErrorWithData(c *gin.Context, code int, errs interface{}, message ...string) {
	msg := GetMsg(code)
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}

	resp := Response{
		Code:      code,
		Message:   msg,
		Errors:    errs,
		OriginUrl: c.Request.URL.Path,
	}
	c.Set("response", resp)
	c.JSON(Status(code), resp)
}

// Abort 中断请求并返回错误
func Abort(c *gin.Context, code int, message ...string) {
	Error(c, code, message...)
	c.Abort()
}
