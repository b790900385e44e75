package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Error      any         `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Pages int64 `json:"pages"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeData(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, Envelope{Success: true, Message: message, Data: data})
}

func writePage[T any](w http.ResponseWriter, p *services.Page[T]) {
	writeJSON(w, http.StatusOK, Envelope{
		Success:    true,
		Data:       p.Items,
		Pagination: &Pagination{Total: p.Total, Page: p.Page, Limit: p.Limit, Pages: p.Pages},
	})
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, Envelope{Success: false, Message: msg})
}

// statusOf maps service errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrAlreadyRestored):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict), errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err in the envelope. Internal errors expose their text
// only outside production.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	body := Envelope{Success: false, Message: err.Error()}

	var verr *common.ValidationError
	if errors.As(err, &verr) {
		body.Error = verr.Fields
	}
	if code == http.StatusInternalServerError {
		a.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		body.Message = "internal server error"
		if !a.production {
			body.Error = err.Error()
		}
	}
	writeJSON(w, code, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return common.NewValidationError("invalid JSON body: "+err.Error(), "body")
	}
	return nil
}

const maxBodyBytes = 1 << 20
