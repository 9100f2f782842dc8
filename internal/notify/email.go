package notify

import (
	"context"
	"fmt"
	"swiftattend/internal/logger"
)

const previewLength = 100

// MockEmail logs the registration email instead of sending it.
type MockEmail struct {
	Logger *logger.Logger
}

func NewMockEmail(log *logger.Logger) *MockEmail {
	return &MockEmail{Logger: log}
}

func (m *MockEmail) NotifyRegistration(_ context.Context, r Registration) error {
	preview := string(r.RenderedToken)
	if len(preview) > previewLength {
		preview = preview[:previewLength] + "..."
	}

	m.Logger.Info("EMAIL", fmt.Sprintf("To: %s | Subject: Your SwiftAttend Registration for %s", r.Email, r.EventName))
	m.Logger.Info("EMAIL", fmt.Sprintf("Dear %s, thank you for registering for %s! Please use the attached QR code for check-in.", r.ParticipantName, r.EventName))
	m.Logger.Debug("EMAIL", fmt.Sprintf("QR code data: %s", preview))
	return nil
}

// NotifyCheckIn sends nothing; attendees get no mail at the door.
func (m *MockEmail) NotifyCheckIn(context.Context, CheckIn) error {
	return nil
}
