package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealdesk/internal/models"
	"dealdesk/internal/services"
)

type PipelineHandler struct {
	Service services.PipelineService
	Logger  *zap.Logger
}

func NewPipelineHandler(service services.PipelineService, logger *zap.Logger) *PipelineHandler {
	return &PipelineHandler{Service: service, Logger: logger}
}

type createPipelineRequest struct {
	Name string `json:"name"`
}

// @Summary      Create pipeline
// @Tags         Pipelines
// @Accept       json
// @Produce      json
// @Param        pipeline  body      createPipelineRequest  true  "Pipeline"
// @Success      201       {object}  models.Pipeline
// @Security     BearerAuth
// @Router       /pipelines [post]
func (h *PipelineHandler) Create(c *gin.Context) {
	var req createPipelineRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Service.Create(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary      List pipelines
// @Tags         Pipelines
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /pipelines [get]
func (h *PipelineHandler) List(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	listResponse(c, items)
}

// @Summary      Get pipeline
// @Tags         Pipelines
// @Produce      json
// @Param        id   path      string  true  "Pipeline id"
// @Success      200  {object}  models.Pipeline
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /pipelines/{id} [get]
func (h *PipelineHandler) GetByID(c *gin.Context) {
	p, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Rename pipeline
// @Tags         Pipelines
// @Accept       json
// @Produce      json
// @Param        id     path      string                true  "Pipeline id"
// @Param        patch  body      models.PipelinePatch  true  "Fields to change"
// @Success      200    {object}  models.Pipeline
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Security     BearerAuth
// @Router       /pipelines/{id} [patch]
func (h *PipelineHandler) Update(c *gin.Context) {
	var patch models.PipelinePatch
	if !bindJSON(c, &patch) {
		return
	}
	p, err := h.Service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Delete pipeline
// @Tags         Pipelines
// @Param        id   path  string  true  "Pipeline id"
// @Success      204
// @Security     BearerAuth
// @Router       /pipelines/{id} [delete]
func (h *PipelineHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Add stage to pipeline
// @Description  Without order_index the stage goes after the existing ones
// @Tags         Pipelines
// @Accept       json
// @Produce      json
// @Param        id     path      string               true  "Pipeline id"
// @Param        stage  body      models.StageRequest  true  "Stage"
// @Success      201    {object}  models.Stage
// @Failure      404    {object}  map[string]string
// @Security     BearerAuth
// @Router       /pipelines/{id}/stages [post]
func (h *PipelineHandler) CreateStage(c *gin.Context) {
	var req models.StageRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := h.Service.CreateStage(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// @Summary      List stages
// @Tags         Pipelines
// @Produce      json
// @Param        id   path      string  true  "Pipeline id"
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /pipelines/{id}/stages [get]
func (h *PipelineHandler) ListStages(c *gin.Context) {
	stages, err := h.Service.ListStages(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	listResponse(c, stages)
}

// @Summary      Get stage
// @Tags         Stages
// @Produce      json
// @Param        id   path      string  true  "Stage id"
// @Success      200  {object}  models.Stage
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /stages/{id} [get]
func (h *PipelineHandler) GetStage(c *gin.Context) {
	st, err := h.Service.GetStage(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Update stage
// @Tags         Stages
// @Accept       json
// @Produce      json
// @Param        id     path      string               true  "Stage id"
// @Param        stage  body      models.StageRequest  true  "Fields to change"
// @Success      200    {object}  models.Stage
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Security     BearerAuth
// @Router       /stages/{id} [patch]
func (h *PipelineHandler) UpdateStage(c *gin.Context) {
	var req models.StageRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := h.Service.UpdateStage(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Delete stage
// @Description  Deals in the stage keep their stage_id
// @Tags         Stages
// @Param        id   path  string  true  "Stage id"
// @Success      204
// @Security     BearerAuth
// @Router       /stages/{id} [delete]
func (h *PipelineHandler) DeleteStage(c *gin.Context) {
	if err := h.Service.DeleteStage(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
