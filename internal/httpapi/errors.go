package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"taskboard/internal/httpapi/res"
	"taskboard/internal/service"
)

// WriteErr maps service errors onto statuses. Unexpected errors are logged
// and hidden behind a generic message.
func WriteErr(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrBadArguments):
		res.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		res.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrAlreadyExists):
		res.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Error("request failed", "error", err)
		res.Error(w, "internal error", http.StatusInternalServerError)
	}
}
