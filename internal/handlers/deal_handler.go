package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealdesk/internal/models"
	"dealdesk/internal/realtime"
	"dealdesk/internal/services"
)

type DealHandler struct {
	Service services.DealService
	Events  *realtime.DealHub
	Logger  *zap.Logger
}

// NewDealHandler serves the deal routes. events may be nil, which disables
// the live stream.
func NewDealHandler(service services.DealService, events *realtime.DealHub, logger *zap.Logger) *DealHandler {
	return &DealHandler{Service: service, Events: events, Logger: logger}
}

func (h *DealHandler) publish(ev realtime.DealEvent) {
	if h.Events != nil {
		h.Events.Broadcast(ev)
	}
}

// @Summary      List deals
// @Description  Filters by stage, owner, status and a title substring; newest updates first
// @Tags         Deals
// @Produce      json
// @Param        stage_id  query     string  false  "Stage id"
// @Param        owner_id  query     string  false  "Owner id"
// @Param        status    query     string  false  "open, won or lost"
// @Param        q         query     string  false  "Title substring"
// @Param        limit     query     int     false  "Page size (default 50, max 500)"
// @Param        offset    query     int     false  "Offset"
// @Success      200       {object}  map[string]interface{}
// @Failure      400       {object}  map[string]string
// @Security     BearerAuth
// @Router       /deals [get]
func (h *DealHandler) List(c *gin.Context) {
	limit, ok := queryInt(c, "limit", services.DefaultDealLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	limit, offset = services.NormalizePage(limit, offset)

	deals, err := h.Service.List(c.Request.Context(), models.DealFilter{
		StageID: c.Query("stage_id"),
		OwnerID: c.Query("owner_id"),
		Status:  c.Query("status"),
		Query:   c.Query("q"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if deals == nil {
		deals = []models.Deal{}
	}
	c.JSON(http.StatusOK, gin.H{"data": deals, "limit": limit, "offset": offset})
}

// @Summary      Create deal
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Param        deal  body      models.CreateDealRequest  true  "Deal"
// @Success      201   {object}  models.Deal
// @Failure      400   {object}  map[string]string
// @Security     BearerAuth
// @Router       /deals [post]
func (h *DealHandler) Create(c *gin.Context) {
	var req models.CreateDealRequest
	if !bindJSON(c, &req) {
		return
	}
	deal, err := h.Service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.publish(realtime.DealChanged(realtime.EventDealCreated, deal))
	setETag(c, deal)
	c.JSON(http.StatusCreated, deal)
}

// @Summary      Get deal
// @Tags         Deals
// @Produce      json
// @Param        id   path      string  true  "Deal id"
// @Success      200  {object}  models.Deal
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /deals/{id} [get]
func (h *DealHandler) GetByID(c *gin.Context) {
	deal, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	setETag(c, deal)
	c.JSON(http.StatusOK, deal)
}

// @Summary      Update deal
// @Description  Partial update. Send If-Match with the last seen ETag (or "version" in the body) to reject stale writes with 409
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Param        id        path      string            true   "Deal id"
// @Param        If-Match  header    string            false  "Expected version"
// @Param        patch     body      models.DealPatch  true   "Fields to change"
// @Success      200       {object}  models.Deal
// @Failure      400       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Failure      409       {object}  map[string]string
// @Security     BearerAuth
// @Router       /deals/{id} [patch]
func (h *DealHandler) Update(c *gin.Context) {
	var patch models.DealPatch
	if !bindJSON(c, &patch) {
		return
	}
	expected, ok := expectedVersion(c, patch.Version)
	if !ok {
		return
	}
	deal, err := h.Service.Update(c.Request.Context(), c.Param("id"), patch, expected)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.publish(realtime.DealChanged(realtime.EventDealUpdated, deal))
	setETag(c, deal)
	c.JSON(http.StatusOK, deal)
}

// @Summary      Move deal to a stage
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Param        id        path      string                  true   "Deal id"
// @Param        If-Match  header    string                  false  "Expected version"
// @Param        move      body      models.MoveDealRequest  true   "Target stage"
// @Success      200       {object}  models.Deal
// @Failure      400       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Failure      409       {object}  map[string]string
// @Security     BearerAuth
// @Router       /deals/{id}/move [post]
func (h *DealHandler) Move(c *gin.Context) {
	var req models.MoveDealRequest
	if !bindJSON(c, &req) {
		return
	}
	expected, ok := expectedVersion(c, req.Version)
	if !ok {
		return
	}
	deal, err := h.Service.Move(c.Request.Context(), c.Param("id"), req.StageID, expected)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.publish(realtime.DealChanged(realtime.EventDealMoved, deal))
	setETag(c, deal)
	c.JSON(http.StatusOK, deal)
}

// @Summary      Bulk status or stage change
// @Description  "updated" counts rows actually changed, "submitted" counts ids sent. With "versions" every listed deal must still be at that version or nothing changes
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Param        bulk  body      models.BulkDealRequest  true  "Ids and fields"
// @Success      200   {object}  models.BulkDealResult
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Security     BearerAuth
// @Router       /deals/bulk [post]
func (h *DealHandler) Bulk(c *gin.Context) {
	var req models.BulkDealRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Service.BulkUpdate(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if res.Updated > 0 {
		h.publish(realtime.DealEvent{Type: realtime.EventDealsBulk, IDs: req.IDs})
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Delete deal
// @Tags         Deals
// @Param        id  path  string  true  "Deal id"
// @Success      204
// @Security     BearerAuth
// @Router       /deals/{id} [delete]
func (h *DealHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.Service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.publish(realtime.DealEvent{Type: realtime.EventDealDeleted, DealID: id})
	c.Status(http.StatusNoContent)
}

// @Summary      Live deal changes
// @Description  Server-sent events, one per committed deal write. A client that reads too slowly misses events and should refetch
// @Tags         Deals
// @Produce      text/event-stream
// @Success      200
// @Security     BearerAuth
// @Router       /deals/events [get]
func (h *DealHandler) Stream(c *gin.Context) {
	if h.Events == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "live updates are disabled"})
		return
	}
	sub := h.Events.Subscribe()
	defer h.Events.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			c.SSEvent(ev.Type, ev)
			c.Writer.Flush()
		}
	}
}
