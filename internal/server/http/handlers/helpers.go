package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// Responder writes error responses and logs them.
type Responder struct {
	logger *slog.Logger
	debug  bool
}

// NewResponder creates Responder. With debug on, responses carry the
// underlying error text in "detail".
func NewResponder(logger *slog.Logger, debug bool) Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return Responder{logger: logger, debug: debug}
}

// Fail maps err to a status and error body and aborts the request.
func (r Responder) Fail(c *gin.Context, op string, err error) {
	status, body := ErrorBody(err)
	if r.debug {
		body.Detail = err.Error()
	}

	attrs := []any{
		slog.String("op", op),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}
	if id, ok := c.Get(middleware.RequestIDContextKey); ok {
		attrs = append(attrs, slog.Any("request_id", id))
	}
	if status >= http.StatusInternalServerError {
		r.logger.Error("request failed", attrs...)
	} else {
		r.logger.Debug("request rejected", attrs...)
	}

	c.AbortWithStatusJSON(status, body)
}

// ErrorBody maps a domain error to its HTTP status and response body.
func ErrorBody(err error) (int, dto.ErrorResponse) {
	var (
		verr    *domainErrors.ValidationError
		oos     *domainErrors.OutOfStockError
		missing *domainErrors.ProductNotFoundError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, dto.ErrorResponse{Error: "validation", Message: verr.Error(), Field: verr.Field}
	case errors.Is(err, domainErrors.ErrValidation):
		return http.StatusBadRequest, dto.ErrorResponse{Error: "validation", Message: err.Error()}
	case errors.As(err, &oos):
		return http.StatusConflict, dto.ErrorResponse{
			Error:     "out_of_stock",
			Message:   oos.Error(),
			ProductID: &oos.ProductID,
			Available: &oos.Available,
			Requested: &oos.Requested,
		}
	case errors.As(err, &missing):
		return http.StatusNotFound, dto.ErrorResponse{Error: "product_not_found", Message: missing.Error(), ProductID: &missing.ProductID}
	case errors.Is(err, domainErrors.ErrProductNotFound):
		return http.StatusNotFound, dto.ErrorResponse{Error: "product_not_found", Message: "product not found"}
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "resource not found"}
	case errors.Is(err, domainErrors.ErrTotalMismatch):
		return http.StatusConflict, dto.ErrorResponse{Error: "total_mismatch", Message: err.Error()}
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		return http.StatusConflict, dto.ErrorResponse{Error: "conflict", Message: err.Error()}
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized", Message: "invalid email or password"}
	case errors.Is(err, domainErrors.ErrForbidden):
		return http.StatusForbidden, dto.ErrorResponse{Error: "forbidden", Message: err.Error()}
	case errors.Is(err, domainErrors.ErrTransactionFailure):
		return http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:     "transaction_failure",
			Message:   "the operation could not be completed, please retry",
			Retryable: true,
		}
	case errors.Is(err, domainErrors.ErrUnavailable):
		return http.StatusServiceUnavailable, dto.ErrorResponse{Error: "unavailable", Message: err.Error()}
	}
	return http.StatusInternalServerError, dto.ErrorResponse{Error: "internal", Message: "internal server error"}
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domainErrors.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

func malformedBody(err error) error {
	return domainErrors.Invalid("", "malformed request body: "+err.Error())
}
