package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// SetImageFolder is the Cloudinary folder for set images.
const SetImageFolder = "lego-sets"

// ImageUploader stores set images on Cloudinary.
type ImageUploader struct {
	cld *cloudinary.Cloudinary
}

func NewImageUploader(cloudName, apiKey, apiSecret string) (*ImageUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &ImageUploader{
		cld: cld,
	}, nil
}

// SetImagePublicID names a new image asset for setNum. Every upload gets its
// own asset so a failed catalog write never replaces another set's image.
func SetImagePublicID(setNum string) string {
	return setNum + "-" + uuid.NewString()
}

// UploadSetImage uploads the image for setNum and returns its HTTPS URL.
func (s *ImageUploader) UploadSetImage(ctx context.Context, fileHeader *multipart.FileHeader, setNum string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	uploadResult, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       SetImageFolder,
		PublicID:     SetImagePublicID(setNum),
		Overwrite:    api.Bool(false),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", uploadResult.Error.Message)
	}

	return uploadResult.SecureURL, nil
}
