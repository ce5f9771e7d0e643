package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vedx/vedx-site/internal/domain"
	"github.com/vedx/vedx-site/pkg/logger"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidOTP        = "INVALID_OTP"
	CodeExpiredOTP        = "EXPIRED_OTP"
	CodeNoActiveChallenge = "NO_ACTIVE_CHALLENGE"
	CodeOTPNotVerified    = "OTP_NOT_VERIFIED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidCredential = "INVALID_CREDENTIALS"
	CodeNotFound          = "NOT_FOUND"
	CodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	CodeDelivery          = "DELIVERY_FAILED"
	CodeInternalError     = "INTERNAL_ERROR"
)

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Message: message, Code: code})
}

type mapping struct {
	target  error
	status  int
	code    string
	message string
}

var mappings = []mapping{
	{domain.ErrInvalidOTP, http.StatusBadRequest, CodeInvalidOTP, "Invalid OTP. Please check the code and try again"},
	{domain.ErrExpiredOTP, http.StatusBadRequest, CodeExpiredOTP, "OTP has expired. Please request a new one"},
	{domain.ErrNoActiveChallenge, http.StatusBadRequest, CodeNoActiveChallenge, "No active OTP for this email. Please request a new one"},
	{domain.ErrOTPNotVerified, http.StatusBadRequest, CodeOTPNotVerified, "Please verify your OTP before resetting the password"},
	{domain.ErrInvalidCredential, http.StatusUnauthorized, CodeInvalidCredential, "Invalid credentials"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized. Please log in again"},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound, "Not found"},
	{domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimit, "Too many requests. Try again later"},
	{domain.ErrDelivery, http.StatusBadGateway, CodeDelivery, "Unable to send OTP right now. Please try again"},
}

// Error maps a service error onto a status and body. Unknown errors are logged
// and reported as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Message: verr.Message, Code: CodeInvalidInput, Field: verr.Field})
		return
	}
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			WriteError(w, m.status, m.message, m.code)
			return
		}
	}

	logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
	WriteError(w, http.StatusInternalServerError, "Something went wrong. Please try again", CodeInternalError)
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}
