package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"quill/internal/domain/models"
	"quill/internal/lib/logger/sl"
	"quill/internal/storage"
	"quill/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// statusFor maps a service error onto the HTTP status and error code it is reported with.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, storage.ErrPostNotFound),
		errors.Is(err, storage.ErrCommentNotFound),
		errors.Is(err, models.ErrParentNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, storage.ErrSlugExists):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func fail(c echo.Context, log *slog.Logger, err error) error {
	status, code := statusFor(err)

	details := publicMessage(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
		details = "internal error"
	} else {
		log.Debug("request rejected", slog.Int("status", status), sl.Err(err))
	}

	return c.JSON(status, response.ErrorResponseWithDetails(code, details))
}

func badRequest(c echo.Context, details string) error {
	return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", details))
}

// publicMessage drops the leading "pkg.Type.Method: " prefixes added while wrapping.
func publicMessage(err error) string {
	msg := err.Error()
	for {
		head, rest, ok := strings.Cut(msg, ": ")
		if !ok || strings.Contains(head, " ") || !strings.ContainsAny(head, "._") {
			return msg
		}
		msg = rest
	}
}
