package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealdesk/internal/models"
	"dealdesk/internal/services"
)

type ActivityHandler struct {
	Service services.ActivityService
	Logger  *zap.Logger
}

func NewActivityHandler(service services.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{Service: service, Logger: logger}
}

// @Summary      Create activity
// @Description  owner_id defaults to the caller
// @Tags         Activities
// @Accept       json
// @Produce      json
// @Param        activity  body      models.ActivityPatch  true  "Activity"
// @Success      201       {object}  models.Activity
// @Failure      400       {object}  map[string]string
// @Security     BearerAuth
// @Router       /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var in models.ActivityPatch
	if !bindJSON(c, &in) {
		return
	}
	if in.OwnerID == nil || strings.TrimSpace(*in.OwnerID) == "" {
		uid := currentUserID(c)
		in.OwnerID = &uid
	}
	a, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// @Summary      List activities
// @Tags         Activities
// @Produce      json
// @Param        deal_id   query     string  false  "Deal id"
// @Param        owner_id  query     string  false  "Owner id"
// @Success      200       {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context(), models.ActivityFilter{
		DealID:  c.Query("deal_id"),
		OwnerID: c.Query("owner_id"),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	listResponse(c, items)
}

// @Summary      Get activity
// @Tags         Activities
// @Produce      json
// @Param        id   path      string  true  "Activity id"
// @Success      200  {object}  models.Activity
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /activities/{id} [get]
func (h *ActivityHandler) GetByID(c *gin.Context) {
	a, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary      Update activity
// @Tags         Activities
// @Accept       json
// @Produce      json
// @Param        id     path      string                true  "Activity id"
// @Param        patch  body      models.ActivityPatch  true  "Fields to change"
// @Success      200    {object}  models.Activity
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Security     BearerAuth
// @Router       /activities/{id} [patch]
func (h *ActivityHandler) Update(c *gin.Context) {
	var patch models.ActivityPatch
	if !bindJSON(c, &patch) {
		return
	}
	a, err := h.Service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary      Delete activity
// @Tags         Activities
// @Param        id   path  string  true  "Activity id"
// @Success      204
// @Security     BearerAuth
// @Router       /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type NoteHandler struct {
	Service services.NoteService
	Logger  *zap.Logger
}

func NewNoteHandler(service services.NoteService, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{Service: service, Logger: logger}
}

type createNoteRequest struct {
	DealID   *string `json:"deal_id"`
	AuthorID string  `json:"author_id"`
	Content  string  `json:"content"`
}

// Create attributes the note to the caller unless author_id is given.
// @Summary      Create note
// @Description  author_id defaults to the caller
// @Tags         Notes
// @Accept       json
// @Produce      json
// @Param        note  body      createNoteRequest  true  "Note"
// @Success      201   {object}  models.Note
// @Failure      400   {object}  map[string]string
// @Security     BearerAuth
// @Router       /notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	var req createNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.AuthorID) == "" {
		req.AuthorID = currentUserID(c)
	}
	n, err := h.Service.Create(c.Request.Context(), models.Note{DealID: req.DealID, AuthorID: req.AuthorID, Content: req.Content})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// @Summary      List notes
// @Tags         Notes
// @Produce      json
// @Param        deal_id  query     string  false  "Deal id"
// @Success      200      {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context(), c.Query("deal_id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	listResponse(c, items)
}

// @Summary      Get note
// @Tags         Notes
// @Produce      json
// @Param        id   path      string  true  "Note id"
// @Success      200  {object}  models.Note
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /notes/{id} [get]
func (h *NoteHandler) GetByID(c *gin.Context) {
	n, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// @Summary      Update note
// @Tags         Notes
// @Accept       json
// @Produce      json
// @Param        id     path      string            true  "Note id"
// @Param        patch  body      models.NotePatch  true  "Fields to change"
// @Success      200    {object}  models.Note
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Security     BearerAuth
// @Router       /notes/{id} [patch]
func (h *NoteHandler) Update(c *gin.Context) {
	var patch models.NotePatch
	if !bindJSON(c, &patch) {
		return
	}
	n, err := h.Service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// @Summary      Delete note
// @Tags         Notes
// @Param        id   path  string  true  "Note id"
// @Success      204
// @Security     BearerAuth
// @Router       /notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
