package validation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xgarcia1/FinalProject/internal/config"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
)

// UploadValidator screens uploaded files before they are parsed
type UploadValidator struct {
	logger     *slog.Logger
	maxBytes   int64
	extensions map[string]bool
}

// NewUploadValidator creates a validator from the upload settings
func NewUploadValidator(cfg config.UploadConfig, logger *slog.Logger) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultUploadMaxBytes
	}
	exts := cfg.AllowedExtensions
	if len(exts) == 0 {
		exts = config.DefaultUploadExtensions
	}

	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = true
	}

	return &UploadValidator{
		logger:     logger.With(slog.String("component", "upload_validator")),
		maxBytes:   maxBytes,
		extensions: allowed,
	}
}

// MaxBytes returns the upload size limit
func (v *UploadValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateName checks the file name of an upload
func (v *UploadValidator) ValidateName(filename string) error {
	base := filepath.Base(filename)
	if filename == "" || base == "." {
		return v.reject(filename, errors.New("no file name given"))
	}

	// Office lock files look like workbooks but hold no data
	if strings.HasPrefix(base, "~$") {
		return v.reject(filename, errors.New("temporary office file"))
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !v.extensions[ext] {
		return v.reject(filename, fmt.Errorf("unsupported file type %q", ext))
	}
	return nil
}

// ValidateSize checks a declared upload size
func (v *UploadValidator) ValidateSize(filename string, size int64) error {
	if size > v.maxBytes {
		return v.reject(filename, fmt.Errorf("file is %d bytes, larger than the %d byte limit", size, v.maxBytes))
	}
	return nil
}

// ReadUpload validates the name and reads at most the size limit from r
func (v *UploadValidator) ReadUpload(filename string, r io.Reader) ([]byte, error) {
	if err := v.ValidateName(filename); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, v.maxBytes+1))
	if err != nil {
		return nil, apierrors.NewProcessingError(fmt.Errorf("read upload: %w", err))
	}
	if err := v.ValidateSize(filename, int64(len(data))); err != nil {
		return nil, err
	}

	v.logger.Debug("upload accepted",
		slog.String("filename", filename),
		slog.Int("size", len(data)))
	return data, nil
}

func (v *UploadValidator) reject(filename string, cause error) error {
	v.logger.Warn("upload rejected",
		slog.String("filename", filename),
		slog.String("reason", cause.Error()))
	return &apierrors.ParseError{Filename: filepath.Base(filename), Err: cause}
}
