package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"

	"github.com/dimitrije/jsoncrack-api/internal/services"
	"github.com/dimitrije/jsoncrack-api/pkg/dto"
)

const validationFailed = "Validation failed"

// errorResponder writes the uniform error body and logs server errors at
// Error and client errors at Warn.
type errorResponder struct {
	logger     *zap.Logger
	production bool
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrShareNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSlugTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func (r *errorResponder) fail(c *drift.Context, err error) {
	status := statusFor(err)
	resp := dto.ErrorResponse{Error: err.Error(), StatusCode: status}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		resp.Error = validationFailed
		resp.Details = []string{verr.Error()}
	}

	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		r.logger.Error("request failed", fields...)
		if r.production {
			resp.Error = "Internal Server Error"
		}
	} else {
		r.logger.Warn("request rejected", fields...)
	}

	_ = c.JSON(status, resp)
}

func (r *errorResponder) invalid(c *drift.Context, details ...string) {
	r.logger.Warn("request rejected",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Strings("details", details),
	)
	_ = c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:      validationFailed,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	})
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			details = append(details, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			details = append(details, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return details
}
