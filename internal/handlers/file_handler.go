package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealdesk/internal/services"
)

type FileHandler struct {
	Service services.FileService
	Logger  *zap.Logger
}

func NewFileHandler(service services.FileService, logger *zap.Logger) *FileHandler {
	return &FileHandler{Service: service, Logger: logger}
}

// @Summary      Upload file
// @Description  Multipart upload. uploader_id defaults to the caller
// @Tags         Files
// @Accept       multipart/form-data
// @Produce      json
// @Param        file         formData  file    true   "File"
// @Param        uploader_id  formData  string  false  "Uploader id"
// @Param        deal_id      formData  string  false  "Deal id"
// @Success      201          {object}  models.File
// @Failure      400          {object}  map[string]string
// @Security     BearerAuth
// @Router       /files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	uploader := strings.TrimSpace(c.PostForm("uploader_id"))
	if uploader == "" {
		uploader = currentUserID(c)
	}
	var dealID *string
	if v := strings.TrimSpace(c.PostForm("deal_id")); v != "" {
		dealID = &v
	}

	src, err := header.Open()
	if err != nil {
		respondError(c, h.Logger, fmt.Errorf("open upload: %w", err))
		return
	}
	defer src.Close()

	f, err := h.Service.Upload(c.Request.Context(), services.UploadInput{
		Filename:   header.Filename,
		MimeType:   header.Header.Get("Content-Type"),
		Size:       header.Size,
		UploaderID: uploader,
		DealID:     dealID,
		Body:       src,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// @Summary      List files
// @Tags         Files
// @Produce      json
// @Param        deal_id  query     string  false  "Deal id"
// @Success      200      {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /files [get]
func (h *FileHandler) List(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context(), c.Query("deal_id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	listResponse(c, items)
}

// @Summary      Get file metadata
// @Tags         Files
// @Produce      json
// @Param        id   path      string  true  "File id"
// @Success      200  {object}  models.File
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /files/{id} [get]
func (h *FileHandler) GetByID(c *gin.Context) {
	f, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// @Summary      Download file
// @Tags         Files
// @Produce      octet-stream
// @Param        id   path  string  true  "File id"
// @Success      200  {file}  binary
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /files/{id}/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	f, body, err := h.Service.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	defer body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename})
	c.DataFromReader(http.StatusOK, f.SizeBytes, f.MimeType, body, map[string]string{
		"Content-Disposition": disposition,
	})
}

// @Summary      Delete file
// @Description  Removes the stored bytes and the metadata row
// @Tags         Files
// @Param        id   path  string  true  "File id"
// @Success      204
// @Security     BearerAuth
// @Router       /files/{id} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
