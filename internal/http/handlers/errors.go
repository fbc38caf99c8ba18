package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads for new handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	respondDomainError(c, err, nil)
}

// respondDomainError is RespondDomainError with a details payload, used by
// the payment endpoints to return the reconciler state alongside the error.
func respondDomainError(c *gin.Context, err error, details any) {
	switch {
	case errors.Is(err, domain.ErrBusy):
		respondError(c, http.StatusConflict, "busy", "a payment check is already in progress", details)
	case domain.IsStale(err), domain.IsMalformed(err):
		respondError(c, http.StatusGone, "attempt_expired", err.Error(), details)
	case domain.IsRejection(err):
		respondError(c, http.StatusPaymentRequired, "payment_rejected", err.Error(), details)
	case domain.IsTransport(err):
		respondError(c, http.StatusBadGateway, "backend_unavailable", "could not reach the booking service, please retry", details)
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), details)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), details)
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", details)
	}
}
