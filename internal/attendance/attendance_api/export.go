package attendance_api

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"swiftattend/internal/models"

	"github.com/go-chi/chi/v5"
)

const exportTimeLayout = "2006-01-02 15:04:05"

var attendeeHeader = []string{"Participant Name", "Student ID", "Email", "Registration Date", "Check-in Time"}

// WriteAttendeesCSV writes one row per participant; those not yet checked in
// get N/A in the last column.
func WriteAttendeesCSV(w io.Writer, rows []models.AttendeeRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(attendeeHeader); err != nil {
		return err
	}
	for _, row := range rows {
		checkIn := "N/A"
		if row.CheckInTime != nil {
			checkIn = row.CheckInTime.UTC().Format(exportTimeLayout)
		}
		record := []string{
			row.Name,
			row.StudentID,
			row.Email,
			row.RegistrationDate.UTC().Format(exportTimeLayout),
			checkIn,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportFilename(eventName string) string {
	name := strings.ReplaceAll(strings.TrimSpace(eventName), " ", "_")
	name = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r == '/' || r < 0x20 {
			return -1
		}
		return r
	}, name)
	return name + "_attendees.csv"
}

func (h *Handler) ExportAttendees(w http.ResponseWriter, r *http.Request) {
	event, rows, err := h.Events.Attendees(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(event.Name)))
	if err := WriteAttendeesCSV(w, rows); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to write attendee export for %s: %v", event.ID, err))
	}
}
