package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealdesk/internal/models"
	"dealdesk/internal/services"
)

type ContactHandler struct {
	Service services.ContactService
	Logger  *zap.Logger
}

func NewContactHandler(service services.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{Service: service, Logger: logger}
}

// @Summary      Create contact
// @Tags         Contacts
// @Accept       json
// @Produce      json
// @Param        contact  body      models.ContactPatch  true  "Contact"
// @Success      201      {object}  models.Contact
// @Failure      400      {object}  map[string]string
// @Security     BearerAuth
// @Router       /contacts [post]
func (h *ContactHandler) Create(c *gin.Context) {
	var in models.ContactPatch
	if !bindJSON(c, &in) {
		return
	}
	contact, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// @Summary      List contacts
// @Tags         Contacts
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	listResponse(c, items)
}

// @Summary      Get contact
// @Tags         Contacts
// @Produce      json
// @Param        id   path      string  true  "Contact id"
// @Success      200  {object}  models.Contact
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /contacts/{id} [get]
func (h *ContactHandler) GetByID(c *gin.Context) {
	contact, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// @Summary      Update contact
// @Tags         Contacts
// @Accept       json
// @Produce      json
// @Param        id     path      string               true  "Contact id"
// @Param        patch  body      models.ContactPatch  true  "Fields to change"
// @Success      200    {object}  models.Contact
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Security     BearerAuth
// @Router       /contacts/{id} [patch]
func (h *ContactHandler) Update(c *gin.Context) {
	var patch models.ContactPatch
	if !bindJSON(c, &patch) {
		return
	}
	contact, err := h.Service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// @Summary      Delete contact
// @Tags         Contacts
// @Param        id   path  string  true  "Contact id"
// @Success      204
// @Security     BearerAuth
// @Router       /contacts/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type OrganizationHandler struct {
	Service services.OrganizationService
	Logger  *zap.Logger
}

func NewOrganizationHandler(service services.OrganizationService, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{Service: service, Logger: logger}
}

// @Summary      Create organization
// @Tags         Organizations
// @Accept       json
// @Produce      json
// @Param        organization  body      models.OrganizationPatch  true  "Organization"
// @Success      201           {object}  models.Organization
// @Failure      400           {object}  map[string]string
// @Security     BearerAuth
// @Router       /organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var in models.OrganizationPatch
	if !bindJSON(c, &in) {
		return
	}
	org, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

// @Summary      List organizations
// @Tags         Organizations
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /organizations [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	listResponse(c, items)
}

// @Summary      Get organization
// @Tags         Organizations
// @Produce      json
// @Param        id   path      string  true  "Organization id"
// @Success      200  {object}  models.Organization
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /organizations/{id} [get]
func (h *OrganizationHandler) GetByID(c *gin.Context) {
	org, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// @Summary      Update organization
// @Tags         Organizations
// @Accept       json
// @Produce      json
// @Param        id     path      string                    true  "Organization id"
// @Param        patch  body      models.OrganizationPatch  true  "Fields to change"
// @Success      200    {object}  models.Organization
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Security     BearerAuth
// @Router       /organizations/{id} [patch]
func (h *OrganizationHandler) Update(c *gin.Context) {
	var patch models.OrganizationPatch
	if !bindJSON(c, &patch) {
		return
	}
	org, err := h.Service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// @Summary      Delete organization
// @Tags         Organizations
// @Param        id   path  string  true  "Organization id"
// @Success      204
// @Security     BearerAuth
// @Router       /organizations/{id} [delete]
func (h *OrganizationHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
