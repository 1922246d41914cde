package handler

import (
	"errors"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// uploadField is the multipart field carrying the image.
const uploadField = "image"

// UploadHandler accepts product image uploads.
type UploadHandler struct {
	service service.UploadService
	logger  zerolog.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(service service.UploadService, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger.With().Str("handler", "upload").Logger(),
	}
}

// Upload handles POST /api/uploads.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageSize+(64<<10))
	if err := r.ParseMultipartForm(service.MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, model.ErrImageTooLarge, h.logger)
			return
		}
		writeError(w, r, model.ErrImageRequired, h.logger)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, r, model.ErrImageRequired, h.logger)
		return
	}
	defer file.Close()

	url, err := h.service.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Image uploaded successfully.",
		"image":   url,
	})
}
