package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"

	"github.com/dimitrije/jsoncrack-api/internal/models"
	"github.com/dimitrije/jsoncrack-api/internal/services"
	"github.com/dimitrije/jsoncrack-api/pkg/dto"
)

// multipart framing allowance on top of the file size limit
const uploadOverhead = 64 << 10

type ShareHandler struct {
	shareService ShareServiceInterface
	validate     *validator.Validate
	uploadLimit  int64
	errorResponder
}

func NewShareHandler(shareService ShareServiceInterface, uploadLimit int64, logger *zap.Logger, production bool) *ShareHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShareHandler{
		shareService:   shareService,
		validate:       newValidator(),
		uploadLimit:    uploadLimit,
		errorResponder: errorResponder{logger: logger, production: production},
	}
}

func (h *ShareHandler) Create(c *drift.Context) {
	var req dto.CreateShareRequest
	if err := c.BindJSON(&req); err != nil {
		h.invalid(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.invalid(c, validationDetails(err)...)
		return
	}

	share, err := h.shareService.Create(c.Request.Context(), services.ShareInput{
		Slug:       req.Slug,
		Type:       models.ShareType(req.Type),
		Content:    req.ContentValue(),
		Mode:       models.Mode(req.Mode),
		IsPrivate:  req.IsPrivate,
		AccessType: models.AccessType(req.AccessType),
		Password:   req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.CreateShareResponse{
		Slug:       share.Slug,
		Mode:       string(share.Mode),
		Type:       string(share.Type),
		IsPrivate:  share.IsPrivate,
		AccessType: string(share.AccessType),
	})
}

func (h *ShareHandler) GetMetadata(c *drift.Context) {
	slug, ok := h.slugParam(c)
	if !ok {
		return
	}

	meta, err := h.shareService.GetMetadata(c.Request.Context(), slug)
	if err != nil {
		h.fail(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, meta)
}

func (h *ShareHandler) Unlock(c *drift.Context) {
	slug, ok := h.slugParam(c)
	if !ok {
		return
	}

	var req dto.UnlockShareRequest
	if err := c.BindJSON(&req); err != nil {
		h.invalid(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.invalid(c, validationDetails(err)...)
		return
	}

	view, err := h.shareService.Unlock(c.Request.Context(), slug, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, view)
}

func (h *ShareHandler) Update(c *drift.Context) {
	slug, ok := h.slugParam(c)
	if !ok {
		return
	}

	var req dto.UpdateShareRequest
	if err := c.BindJSON(&req); err != nil {
		h.invalid(c, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.invalid(c, validationDetails(err)...)
		return
	}

	created, err := h.shareService.Update(c.Request.Context(), slug, services.ShareInput{
		Type:       models.ShareType(req.Type),
		Content:    req.ContentValue(),
		Mode:       models.Mode(req.Mode),
		IsPrivate:  req.IsPrivate,
		AccessType: models.AccessType(req.AccessType),
		Password:   req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.UpdateShareResponse{Success: true, Slug: slug, Created: created})
}

// Upload reads a single multipart file field named "file".
func (h *ShareHandler) Upload(c *drift.Context) {
	c.Request.Body = http.MaxBytesReader(nil, c.Request.Body, h.uploadLimit+uploadOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.fail(c, services.ErrPayloadTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			h.invalid(c, "No file provided")
		default:
			h.invalid(c, "invalid multipart body")
		}
		return
	}
	defer file.Close()

	if header.Size > h.uploadLimit {
		h.fail(c, services.ErrPayloadTooLarge)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.uploadLimit+1))
	if err != nil {
		h.fail(c, err)
		return
	}

	shareType := models.ShareType(c.Request.FormValue("type"))
	share, err := h.shareService.CreateFromUpload(c.Request.Context(), data, shareType)
	if err != nil {
		h.fail(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.UploadResponse{Slug: share.Slug})
}

// GetRaw serves decoded content. Private shares take the password as a query
// parameter.
func (h *ShareHandler) GetRaw(c *drift.Context) {
	slug, ok := h.slugParam(c)
	if !ok {
		return
	}

	data, err := h.shareService.GetRaw(c.Request.Context(), slug, c.QueryParam("password"))
	if err != nil {
		h.fail(c, err)
		return
	}

	_ = c.JSON(http.StatusOK, data)
}

func (h *ShareHandler) slugParam(c *drift.Context) (string, bool) {
	slug := c.Param("slug")
	if !services.ValidSlug(slug) {
		h.invalid(c, "slug: must be 6 to 20 alphanumeric characters")
		return "", false
	}
	return slug, true
}
