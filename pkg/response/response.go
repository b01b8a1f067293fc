package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 200 成功响应
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// Created 201 创建成功
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// BadRequest 400 参数错误
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Message: message})
}

// Unauthorized 401 未认证
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{Success: false, Message: message})
}

// Forbidden 403 无权限
func Forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, Response{Success: false, Message: message})
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{Success: false, Message: message})
}

// Conflict 409 资源冲突（并发抢占失败等）
func Conflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, Response{Success: false, Message: message})
}

// Unavailable 503 下游依赖不可用
func Unavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, Response{Success: false, Message: message})
}

// InternalError 500 服务内部错误
func InternalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
}

// BindError 将 binding 校验错误转换为可读的 400 响应
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		BadRequest(c, "field '"+fe.Field()+"' failed on '"+fe.Tag()+"' validation")
		return
	}
	BadRequest(c, err.Error())
}
