// Package http serves the billbook JSON API and the server-rendered pages.
//
// This file implements a builder for responses. It keeps the JSON error
// shape and the HX-Trigger header consistent across handlers.

package http

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the canonical error payload: {"error":{"code","message","details"}}.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error codes returned in ErrorBody.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidation       = "validation_failed"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeUnauthorized     = "unauthorized"
	CodeRateLimited      = "rate_limited"
	CodeInternal         = "internal_error"
	CodeUnavailable      = "unavailable"
	CodeMethodNotAllowed = "method_not_allowed"
)

// ResponseBuilder provides a fluent API for building responses.
type ResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with optional data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerBillSaved adds the bill:saved event.
func (b *ResponseBuilder) TriggerBillSaved(id, billNumber string) *ResponseBuilder {
	return b.Trigger("bill:saved", map[string]string{"id": id, "billNumber": billNumber})
}

// TriggerBillDeleted adds the bill:deleted event.
func (b *ResponseBuilder) TriggerBillDeleted(id string) *ResponseBuilder {
	return b.Trigger("bill:deleted", map[string]string{"id": id})
}

// TriggerReportRefresh tells report views their numbers changed.
func (b *ResponseBuilder) TriggerReportRefresh() *ResponseBuilder {
	return b.Trigger("report:refresh", struct{}{})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// TriggerNotification adds a show-notification event.
func (b *ResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *ResponseBuilder {
	return b.Trigger("show-notification", map[string]any{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *ResponseBuilder) TriggerSuccessNotification(message string) *ResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the body. Encoding failures turn the response into a 500.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.statusCode = http.StatusInternalServerError
		data = []byte(`{"error":{"code":"internal_error","message":"failed to encode response"}}`)
	}
	b.headers["Content-Type"] = "application/json"
	b.body = append(data, '\n')
	return b
}

// Body sets a raw body with its content type.
func (b *ResponseBuilder) Body(contentType string, content []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.body = content
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse builds a JSON error response.
func ErrorResponse(statusCode int, code, message string, details any) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		JSON(map[string]ErrorBody{"error": {Code: code, Message: message, Details: details}})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message, nil)
}

// ValidationFailed creates a 422 response listing field messages.
func ValidationFailed(fields map[string]string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, CodeValidation, "validation failed", fields)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message, nil)
}

// UnauthorizedError creates a 401 response.
func UnauthorizedError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, CodeUnauthorized, message, nil).
		Header("WWW-Authenticate", `Bearer realm="billbook"`)
}

// InternalServerError creates a 500 response. The message must not leak internals.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeInternal, message, nil)
}

// MethodNotAllowedError creates a 405 response.
func MethodNotAllowedError() *ResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil)
}
