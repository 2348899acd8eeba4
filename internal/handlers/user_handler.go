package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealdesk/internal/models"
	"dealdesk/internal/services"
)

type UserHandler struct {
	service services.UserService
	logger  *zap.Logger
}

func NewUserHandler(service services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// @Summary      Create user
// @Description  Admin only. Role defaults to rep
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        user  body      models.CreateUserRequest  true  "User"
// @Success      201   {object}  models.User
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Info("user created", zap.String("user_id", user.ID), zap.String("by", currentUserID(c)))
	c.JSON(http.StatusCreated, user)
}

// @Summary      List users
// @Tags         Users
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	listResponse(c, users)
}

// @Summary      Get user
// @Tags         Users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Update user
// @Description  Admin only. A password change revokes the user's refresh token
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "User id"
// @Param        user  body      models.UserPatch  true  "Fields to change"
// @Success      200   {object}  models.User
// @Security     BearerAuth
// @Router       /users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var patch models.UserPatch
	if !bindJSON(c, &patch) {
		return
	}
	user, err := h.service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Delete user
// @Description  Admin only
// @Tags         Users
// @Param        id   path      string  true  "User id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
