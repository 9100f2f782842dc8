package attendance_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"swiftattend/internal/attendance/service"
	"swiftattend/internal/logger"
	"swiftattend/internal/token"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the attendance services over HTTP.
type Handler struct {
	Events        *service.EventService
	Registrations *service.RegistrationService
	CheckIns      *service.CheckInService
	Logger        *logger.Logger
	PNGSize       int
}

func NewHandler(events *service.EventService, registrations *service.RegistrationService, checkIns *service.CheckInService, pngSize int, log *logger.Logger) *Handler {
	return &Handler{
		Events:        events,
		Registrations: registrations,
		CheckIns:      checkIns,
		Logger:        log,
		PNGSize:       pngSize,
	}
}

// RegisterRoutes mounts the attendee and organizer routes. Access control for
// the organizer and door routes belongs to the deployment in front.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/event/{eventID}/register", h.Register)
	r.Get("/participant/{participantID}/qr", h.ParticipantQR)

	r.Route("/api/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		r.Get("/{eventID}", h.GetEvent)
		r.Delete("/{eventID}", h.DeleteEvent)
		r.Get("/{eventID}/qr", h.EventQR)
		r.Get("/{eventID}/attendees.csv", h.ExportAttendees)
		r.Get("/{eventID}/live", h.LiveAttendance)
	})
	r.Post("/api/checkin", h.CheckIn)
}

// formValues reads either an HTML form post or a flat JSON object.
func formValues(w http.ResponseWriter, r *http.Request) (func(string) string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(1 << 20); err != nil && err != http.ErrNotMultipart {
			return nil, err
		}
		return r.FormValue, nil
	}

	body := map[string]interface{}{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		return nil, err
	}
	return func(key string) string {
		switch v := body[key].(type) {
		case nil:
			return ""
		case string:
			return v
		default:
			return fmt.Sprint(v)
		}
	}, nil
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Events.ListEvents(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Events retrieved", events))
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	get, err := formValues(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse("Invalid request body", err.Error()))
		return
	}

	var date time.Time
	if dt := strings.TrimSpace(get("datetime")); dt != "" {
		date, err = time.Parse(time.RFC3339, dt)
		if err != nil {
			err = &service.ValidationError{Fields: map[string]string{"date": "invalid date or time format"}}
		}
	} else {
		date, err = service.ParseEventDateTime(get("date"), get("time"))
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	event, err := h.Events.CreateEvent(r.Context(), service.EventInput{
		Name:        get("name"),
		Date:        date,
		Location:    get("location"),
		Description: get("description"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SuccessResponse("Event created successfully!", event))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	details, err := h.Events.Details(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Event retrieved", details))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	event, err := h.Events.GetEvent(r.Context(), eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Events.DeleteEvent(r.Context(), eventID); err != nil {
		h.writeError(w, r, err)
		return
	}
	msg := fmt.Sprintf("Event %q and all its related data have been deleted.", event.Name)
	writeJSON(w, http.StatusOK, SuccessResponse(msg, nil))
}

func (h *Handler) LiveAttendance(w http.ResponseWriter, r *http.Request) {
	count, err := h.CheckIns.LiveCount(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]int{"attendance_count": count})
}

type registrationData struct {
	Participant interface{} `json:"participant"`
	QRURL       string      `json:"qr_url"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	get, err := formValues(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse("Invalid request body", err.Error()))
		return
	}

	result, err := h.Registrations.Register(r.Context(), chi.URLParam(r, "eventID"), get("name"), get("student_id"), get("email"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data := registrationData{
		Participant: result.Participant,
		QRURL:       "/participant/" + result.Participant.ID + "/qr",
	}
	w.Header().Set("Location", data.QRURL)
	if result.AlreadyRegistered {
		writeJSON(w, http.StatusOK, WarningResponse("You are already registered for this event.", data))
		return
	}
	writeJSON(w, http.StatusCreated, SuccessResponse("Registration successful! Please save your QR code.", data))
}

func (h *Handler) ParticipantQR(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")

	if r.URL.Query().Get("format") == "png" {
		participant, _, err := h.Registrations.Participant(r.Context(), participantID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		img, err := token.Encode(participant.ID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		data, err := img.PNG(h.PNGSize)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
		return
	}

	tok, err := h.Registrations.ParticipantToken(r.Context(), participantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSVG(w, tok.SVG)
}

func (h *Handler) EventQR(w http.ResponseWriter, r *http.Request) {
	_, svg, err := h.Events.RegistrationToken(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSVG(w, svg)
}

func writeSVG(w http.ResponseWriter, svg []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(svg)
}

type checkInRequest struct {
	ParticipantID string `json:"participant_id"`
	EventID       string `json:"event_id"`
}

type checkInError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CheckIn answers in the flat shape the door scanner reads:
// {status, message, participant_name, student_id}.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, checkInError{Status: "error", Message: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.ParticipantID) == "" || strings.TrimSpace(req.EventID) == "" {
		writeJSON(w, http.StatusBadRequest, checkInError{Status: "error", Message: "Missing participant ID or event ID"})
		return
	}

	result, err := h.CheckIns.CheckIn(r.Context(), req.ParticipantID, req.EventID)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, checkInError{Status: "error", Message: verr.Error()})
		case errors.Is(err, service.ErrNotFound):
			writeJSON(w, http.StatusNotFound, checkInError{Status: "error", Message: "Participant not found for this event"})
		default:
			h.Logger.Error("API", "check-in failed: "+err.Error())
			writeJSON(w, http.StatusInternalServerError, checkInError{Status: "error", Message: "Check-in failed"})
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}
