package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/booking-platform/internal/model"
	"github.com/d60-Lab/booking-platform/pkg/response"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 登录换取 token
// @Summary 登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "Login successful", gin.H{"token": token, "user": user})
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=ADMIN CUSTOMER"`
}

// CreateUser 管理员创建用户
// @Summary 创建用户
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body createUserRequest true "用户信息"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	role := model.RoleCustomer
	if req.Role != "" {
		role = model.UserRole(req.Role)
	}
	user, err := h.authService.CreateUser(c.Request.Context(), req.Username, req.Email, req.Password, role)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, "User created successfully", user)
}
