package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealdesk/internal/models"
	"dealdesk/internal/services"
)

// WebhookHandler exposes stored webhook subscriptions. Admin only.
type WebhookHandler struct {
	Service services.WebhookService
	Logger  *zap.Logger
}

func NewWebhookHandler(service services.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Service: service, Logger: logger}
}

// @Summary      Register webhook
// @Description  Admin only. Webhooks are stored, not delivered. A secret is generated when none is given
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        webhook  body      models.CreateWebhookRequest  true  "Webhook"
// @Success      201      {object}  models.Webhook
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Security     BearerAuth
// @Router       /webhooks [post]
func (h *WebhookHandler) Create(c *gin.Context) {
	var req models.CreateWebhookRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.Service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// @Summary      List webhooks
// @Tags         Webhooks
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /webhooks [get]
func (h *WebhookHandler) List(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	listResponse(c, items)
}

// @Summary      Get webhook
// @Tags         Webhooks
// @Produce      json
// @Param        id   path      string  true  "Webhook id"
// @Success      200  {object}  models.Webhook
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /webhooks/{id} [get]
func (h *WebhookHandler) GetByID(c *gin.Context) {
	w, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// @Summary      Update webhook
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        id     path      string               true  "Webhook id"
// @Param        patch  body      models.WebhookPatch  true  "Fields to change"
// @Success      200    {object}  models.Webhook
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Security     BearerAuth
// @Router       /webhooks/{id} [patch]
func (h *WebhookHandler) Update(c *gin.Context) {
	var patch models.WebhookPatch
	if !bindJSON(c, &patch) {
		return
	}
	w, err := h.Service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// @Summary      Delete webhook
// @Tags         Webhooks
// @Param        id   path  string  true  "Webhook id"
// @Success      204
// @Security     BearerAuth
// @Router       /webhooks/{id} [delete]
func (h *WebhookHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
