package attendance_api

import (
	"encoding/json"
	"errors"
	"net/http"
	"swiftattend/internal/attendance/service"
	"swiftattend/internal/token"
	"time"
)

type APIResponse struct {
	Success   bool              `json:"success"`
	Status    string            `json:"status,omitempty"`
	Message   string            `json:"message"`
	Data      interface{}       `json:"data,omitempty"`
	Error     string            `json:"error,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Status:    "success",
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func WarningResponse(message string, data interface{}) APIResponse {
	r := SuccessResponse(message, data)
	r.Status = "warning"
	return r
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Status:    "error",
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps service errors onto status codes. Internal failures never
// echo the underlying error.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		resp := ErrorResponse("Invalid request", verr.Error())
		resp.Fields = verr.Fields
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse("Not found", err.Error()))
	case errors.Is(err, token.ErrEncoding):
		h.Logger.Error("API", r.Method+" "+r.URL.Path+": "+err.Error())
		writeJSON(w, http.StatusInternalServerError, ErrorResponse("Failed to render code", "encoding failed"))
	default:
		h.Logger.Error("API", r.Method+" "+r.URL.Path+": "+err.Error())
		writeJSON(w, http.StatusInternalServerError, ErrorResponse("Internal server error", "internal error"))
	}
}
