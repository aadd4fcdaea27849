package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/eduforma/turmas-api/pkg/errors"
)

type uploadStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
	Path(filename string) string
}

// UploadConfig constrains accepted uploads.
type UploadConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// UploadService stores cover images, programme PDFs and speaker avatars.
type UploadService struct {
	storage uploadStorage
	logger  *zap.Logger
	config  UploadConfig
}

// NewUploadService constructs an UploadService.
func NewUploadService(store uploadStorage, logger *zap.Logger, config UploadConfig) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxFileSizeBytes <= 0 {
		config.MaxFileSizeBytes = 10 << 20
	}
	return &UploadService{storage: store, logger: logger, config: config}
}

// Save validates and stores an uploaded file, returning its relative path.
func (s *UploadService) Save(originalName, contentType string, size int64, r io.Reader) (string, error) {
	if size > s.config.MaxFileSizeBytes {
		return "", appErrors.Clone(appErrors.ErrTooLarge,
			fmt.Sprintf("file exceeds the %d byte limit", s.config.MaxFileSizeBytes))
	}
	if !s.allowed(contentType) {
		return "", appErrors.Clone(appErrors.ErrUnsupportedMedia,
			fmt.Sprintf("content type %q is not accepted", contentType))
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	filename := uuid.NewString() + ext

	relPath, err := s.storage.SaveStream(filename, io.LimitReader(r, s.config.MaxFileSizeBytes))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	s.logger.Info("upload stored", zap.String("file", relPath), zap.String("content_type", contentType))
	return relPath, nil
}

// Delete removes a previously stored upload.
func (s *UploadService) Delete(relPath string) error {
	if err := s.storage.Delete(relPath); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete upload")
	}
	return nil
}

// Path resolves the absolute filesystem path for a stored upload.
func (s *UploadService) Path(relPath string) string {
	return s.storage.Path(relPath)
}

func (s *UploadService) allowed(contentType string) bool {
	if len(s.config.AllowedMIMEs) == 0 {
		return true
	}
	for _, mime := range s.config.AllowedMIMEs {
		if strings.EqualFold(mime, contentType) {
			return true
		}
	}
	return false
}
