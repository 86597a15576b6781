package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"strconv"

	crdberrors "github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/localspace/internal/api/dto"
	"github.com/hugh/localspace/internal/api/validation"
	"github.com/hugh/localspace/internal/apperr"
	"github.com/hugh/localspace/internal/ratelimit"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error to its HTTP response. Anything that is not
// a known outcome is logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if ae, ok := apperr.As(err); ok {
		resp := dto.ErrorResponse{Error: ae.Message, Code: ae.Code}
		if ae.Field != "" {
			resp.Details = map[string]string{ae.Field: ae.Message}
		}
		writeJSON(w, ae.Status(), resp)
		return
	}

	if errors.Is(err, ratelimit.ErrLimitExceeded) {
		if wait := ratelimit.RetryAfter(err); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		}
		writeJSON(w, http.StatusTooManyRequests, dto.ErrorResponse{Error: "Too many requests"})
		return
	}

	if crdberrors.HasAssertionFailure(err) {
		logger.Error("invariant violated", "method", r.Method, "path", r.URL.Path, "error", fmt.Sprintf("%+v", err))
	} else {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
}

// decodeJSON reads the body into v and validates it, writing the 400 itself
// when either step fails. An empty body decodes as the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return false
	}

	if errs := validation.Struct(v); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return false
	}
	return true
}

// pathID parses a UUID route parameter. A malformed id cannot name any
// record, so it is reported as not found.
func pathID(w http.ResponseWriter, r *http.Request, param, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: notFound})
		return uuid.Nil, false
	}
	return id, true
}

// listRequest reads page, limit, order, dir and filter from the query string.
// order must be one of columns.
func listRequest(w http.ResponseWriter, r *http.Request, columns []string) (dto.ListRequest, bool) {
	q := r.URL.Query()
	req := dto.ListRequest{
		Order:     q.Get("order"),
		Direction: q.Get("dir"),
		Filter:    q.Get("filter"),
	}

	details := make(map[string]string)
	for key, dst := range map[string]*int{"page": &req.Page, "limit": &req.Limit} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			details[key] = "The " + key + " field must be a number"
			continue
		}
		*dst = n
	}
	for field, msg := range validation.Struct(req) {
		details[field] = msg
	}
	if req.Order != "" && !slices.Contains(columns, req.Order) {
		details["order"] = "The selected order is invalid"
	}

	if len(details) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: details})
		return req, false
	}
	return req, true
}
