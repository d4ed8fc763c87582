package usecase

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// DefaultMaxImageSize is the upload limit used when none is configured.
const DefaultMaxImageSize int64 = 5 << 20

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// ImageStore persists image bytes under name and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// ImageUseCase validates and stores product images.
type ImageUseCase struct {
	store   ImageStore
	maxSize int64
	now     func() time.Time
	newID   func() string
}

// NewImageUseCase constructs ImageUseCase.
func NewImageUseCase(store ImageStore, maxSize int64) *ImageUseCase {
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	return &ImageUseCase{
		store:   store,
		maxSize: maxSize,
		now:     time.Now,
		newID:   func() string { return uuid.NewString()[:8] },
	}
}

// MaxSize returns the accepted upload size in bytes.
func (u *ImageUseCase) MaxSize() int64 {
	return u.maxSize
}

// Upload stores in as a uniquely named blob.
func (u *ImageUseCase) Upload(ctx context.Context, in model.ImageUpload) (*model.Image, error) {
	if len(in.Data) == 0 {
		return nil, domainErrors.Invalid("file", "is required")
	}
	if int64(len(in.Data)) > u.maxSize {
		return nil, domainErrors.Invalid("file", fmt.Sprintf("must not exceed %d bytes", u.maxSize))
	}

	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(in.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domainErrors.Invalid("file", "must be an image")
	}

	name := u.blobName(in.FileName)
	url, err := u.store.Upload(ctx, name, contentType, in.Data)
	if err != nil {
		return nil, err
	}

	return &model.Image{Name: name, URL: url, Size: int64(len(in.Data)), ContentType: contentType}, nil
}

func (u *ImageUseCase) blobName(original string) string {
	base := original
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s_%d_%s", u.newID(), u.now().UnixMilli(), SanitizeFileName(base))
}

// SanitizeFileName replaces every character outside [a-zA-Z0-9.-] with '_'.
func SanitizeFileName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}
