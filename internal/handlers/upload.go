package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/arshmeetsingh/lego-collection/internal/apperr"
)

// maxUploadSize bounds the multipart form of the set forms (10MB).
const maxUploadSize = 10 << 20

// uploadSetImage uploads the img_file part of the set form, if present, and
// returns its URL. It returns "" when no file was sent. Nothing is uploaded
// when the set number cannot be written as target.
func (h *Handler) uploadSetImage(r *http.Request, setNum string, target setTarget) (string, error) {
	// Get file from form
	file, fileHeader, err := r.FormFile("img_file")
	if err != nil {
		if isMissingFile(err) {
			return "", nil
		}
		return "", &apperr.ValidationError{Field: "img_file", Message: "Failed to read image: " + err.Error()}
	}
	defer file.Close()

	if fileHeader.Size > maxUploadSize {
		return "", &apperr.ValidationError{Field: "img_file", Message: "Image must be 10MB or smaller"}
	}

	if err := h.checkSetTarget(r.Context(), setNum, target); err != nil {
		return "", err
	}

	// Upload to Cloudinary
	url, err := h.images.UploadSetImage(r.Context(), fileHeader, setNum)
	if err != nil {
		h.log.Error("uploading set image", zap.String("set_num", setNum), zap.Error(err))
		return "", apperr.Persistence("Failed to upload image", err)
	}
	return url, nil
}

// checkSetTarget rejects a new set whose number is taken and an update of a
// set that does not exist.
func (h *Handler) checkSetTarget(ctx context.Context, setNum string, target setTarget) error {
	_, err := h.catalog.GetSetByNum(ctx, setNum)

	var nerr *apperr.NotFoundError
	switch {
	case err == nil && target == newSet:
		return &apperr.ConflictError{Message: "A set with this number already exists"}
	case err == nil:
		return nil
	case errors.As(err, &nerr) && target == newSet:
		return nil
	default:
		return err
	}
}
