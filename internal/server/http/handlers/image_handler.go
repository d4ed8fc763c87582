package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

const (
	imageFormField = "file"
	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead = 64 << 10
)

// ImageHandler accepts product image uploads.
type ImageHandler struct {
	facade ImageFacade
	resp   Responder
}

// NewImageHandler constructs ImageHandler.
func NewImageHandler(facade ImageFacade, resp Responder) *ImageHandler {
	return &ImageHandler{facade: facade, resp: resp}
}

// Upload handles POST /api/upload with a multipart "file" field.
func (h *ImageHandler) Upload(c *gin.Context) {
	maxSize := h.facade.MaxImageSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)

	file, header, err := c.Request.FormFile(imageFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.resp.Fail(c, "UploadImage", domainErrors.Invalid(imageFormField, fmt.Sprintf("must not exceed %d bytes", maxSize)))
			return
		}
		h.resp.Fail(c, "UploadImage", domainErrors.Invalid(imageFormField, "is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		h.resp.Fail(c, "UploadImage", domainErrors.Invalid(imageFormField, "could not be read"))
		return
	}

	img, err := h.facade.UploadImage(c.Request.Context(), model.ImageUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.resp.Fail(c, "UploadImage", err)
		return
	}

	c.JSON(http.StatusOK, dto.ImageResponse{FileName: img.Name, BlobURL: img.URL, Size: img.Size})
}
