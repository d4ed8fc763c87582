package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// AuthHandler processes registration, login and profile.
type AuthHandler struct {
	facade AuthFacade
	resp   Responder
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade, resp Responder) *AuthHandler {
	return &AuthHandler{facade: facade, resp: resp}
}

// Register handles POST /api/users/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.Fail(c, "Register", malformedBody(err))
		return
	}

	user, token, err := h.facade.Register(c.Request.Context(), model.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.resp.Fail(c, "Register", err)
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{User: toUserResponse(user), Token: token})
}

// Login handles POST /api/users/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.Fail(c, "Login", malformedBody(err))
		return
	}

	user, token, err := h.facade.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.resp.Fail(c, "Login", err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{User: toUserResponse(user), Token: token})
}

// Profile handles GET /api/users/profile.
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.facade.Profile(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.resp.Fail(c, "Profile", err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}
