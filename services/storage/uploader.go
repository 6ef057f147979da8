package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/zap"
)

// Folders uploads are grouped under.
const (
	FolderHospitalProfiles = "hospitals/profile"
	FolderHospitalPhotos   = "hospitals/photos"
	FolderPatientProfiles  = "patients/profile"
	FolderReports          = "patients/reports"
	FolderHiddenReports    = "patients/hidden-reports"
)

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

type Uploader struct {
	store  Store
	config *config.UploadConfig
	logger *logging.Service
	now    func() time.Time
}

func NewUploader(store Store, cfg *config.UploadConfig, logger *logging.Service) *Uploader {
	return &Uploader{
		store:  store,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Key builds <folder>/<yyyy>/<mm>/<dd>/<uuid><ext>.
func (u *Uploader) Key(folder, ext string) string {
	d := u.now().UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s%s", folder, d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
}

// UploadOne stores a single optional file. A nil header yields an empty URL.
func (u *Uploader) UploadOne(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", nil
	}
	urls, err := u.Upload(ctx, folder, []*multipart.FileHeader{fh})
	if err != nil {
		return "", err
	}
	return urls[0], nil
}

// Upload stores every file or none of them.
func (u *Uploader) Upload(ctx context.Context, folder string, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if u.config.MaxFiles > 0 && len(files) > u.config.MaxFiles {
		return nil, fmt.Errorf("%w: at most %d allowed", ErrTooManyFiles, u.config.MaxFiles)
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := u.put(ctx, folder, fh)
		if err != nil {
			u.Remove(ctx, urls...)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (u *Uploader) put(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	if u.config.MaxFileSize > 0 && fh.Size > u.config.MaxFileSize {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, fh.Filename, u.config.MaxFileSize)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, fh.Size+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}

	contentType, data, err := u.normalize(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", fh.Filename, err)
	}

	url, err := u.store.Put(ctx, u.Key(folder, extensions[contentType]), contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		u.logger.Error("blob upload failed", zap.String("file", fh.Filename), zap.Error(err))
		return "", err
	}

	u.logger.Debug("blob uploaded", zap.String("url", url), zap.Int("bytes", len(data)))
	return url, nil
}

// normalize sniffs the content type and re-encodes JPEG and PNG images with
// orientation applied and width capped.
func (u *Uploader) normalize(data []byte) (string, []byte, error) {
	contentType := http.DetectContentType(data)
	if _, ok := extensions[contentType]; !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	var format imaging.Format
	switch contentType {
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	default:
		return contentType, data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}

	if maxWidth := u.config.ImageMaxWidth; maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(u.config.JPEGQuality)); err != nil {
		return "", nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return contentType, buf.Bytes(), nil
}

// Remove deletes blobs. Failures are logged and otherwise ignored.
func (u *Uploader) Remove(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := u.store.Delete(ctx, url); err != nil {
			u.logger.Warn("failed to delete blob", zap.String("url", url), zap.Error(err))
		}
	}
}
