package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/sirupsen/logrus"

	"github.com/monadsocial/agora/internal/service"
)

var log = logrus.WithField("layer", "server")

var errInvalidRequest = errors.New("invalid request")

func writeOK(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeOK(w, status, Error{Error: message})
}

// writeInternalErrorf logs the error with request id and hides details from the client.
func writeInternalErrorf(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	log.WithField("request_id", middleware.GetReqID(ctx)).Errorf(format, args...)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// writeServiceError maps service errors to http statuses.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExpired):
		writeError(w, http.StatusGone, err.Error())
	default:
		writeInternalErrorf(ctx, w, "failed to %s: %s", action, err.Error())
	}
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: failed to decode body: %s", errInvalidRequest, err.Error())
	}

	return nil
}
