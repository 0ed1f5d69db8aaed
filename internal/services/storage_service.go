package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
)

// CloudinaryStorageService uploads chat media to Cloudinary via the unsigned
// upload API and returns the hosted URL.
type CloudinaryStorageService struct {
	cloudName    string
	uploadPreset string
	httpClient   *http.Client
}

func NewCloudinaryStorageService(cloudName, uploadPreset string) *CloudinaryStorageService {
	return &CloudinaryStorageService{
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		httpClient:   http.DefaultClient,
	}
}

var _ MediaUploader = (*CloudinaryStorageService)(nil)

func (s *CloudinaryStorageService) UploadMedia(
	ctx context.Context,
	file multipart.File,
	filename string,
) (string, models.MessageType, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return "", "", fmt.Errorf("read upload: %w", err)
	}

	mediaType := inferMediaType(filename, content)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", "", fmt.Errorf("build upload form: %w", err)
	}
	if err := writer.WriteField("upload_preset", s.uploadPreset); err != nil {
		return "", "", fmt.Errorf("build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", "", fmt.Errorf("build upload form: %w", err)
	}

	uploadURL := fmt.Sprintf(
		"https://api.cloudinary.com/v1_1/%s/%s/upload",
		s.cloudName,
		cloudinaryResource(mediaType),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return "", "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", "", fmt.Errorf("upload media: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var response struct {
		SecureURL string `json:"secure_url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", "", fmt.Errorf("decode upload response: %w", err)
	}
	if response.SecureURL == "" {
		if response.Error.Message != "" {
			return "", "", fmt.Errorf("upload media: %s", response.Error.Message)
		}
		return "", "", fmt.Errorf("upload media: secure url missing from response")
	}

	return response.SecureURL, mediaType, nil
}

func inferMediaType(filename string, content []byte) models.MessageType {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return models.MessageImage
	case ".mp4", ".mov", ".webm", ".mkv":
		return models.MessageVideo
	}

	detected := http.DetectContentType(content)
	switch {
	case strings.HasPrefix(detected, "image/"):
		return models.MessageImage
	case strings.HasPrefix(detected, "video/"):
		return models.MessageVideo
	default:
		return models.MessageFile
	}
}

func cloudinaryResource(mediaType models.MessageType) string {
	switch mediaType {
	case models.MessageImage:
		return "image"
	case models.MessageVideo:
		return "video"
	default:
		return "raw"
	}
}
