package service_test

import (
	"context"
	"errors"
	"swiftattend/internal/attendance/db"
	"swiftattend/internal/attendance/service"
	"swiftattend/internal/logger"
	"swiftattend/internal/models"
	"swiftattend/internal/notify"
	"swiftattend/internal/token"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore is a mock implementation of the service Store interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateEvent(ctx context.Context, event *models.Event) error {
	return m.Called(event).Error(0)
}

func (m *MockStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockStore) DeleteEvent(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockStore) ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Participant), args.Error(1)
}

func (m *MockStore) CountAttendances(ctx context.Context, eventID string) (int, error) {
	args := m.Called(eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) ListAttendees(ctx context.Context, eventID string) ([]models.AttendeeRow, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AttendeeRow), args.Error(1)
}

func (m *MockStore) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockStore) FindParticipantByNaturalKey(ctx context.Context, eventID, studentID, email string) (*models.Participant, error) {
	args := m.Called(eventID, studentID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockStore) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	return m.Called(participant).Error(0)
}

func (m *MockStore) GetParticipantForEvent(ctx context.Context, id, eventID string) (*models.Participant, error) {
	args := m.Called(id, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockStore) CreateAttendanceIfAbsent(ctx context.Context, participantID, eventID string, at time.Time) (*models.Attendance, bool, error) {
	args := m.Called(participantID, eventID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Attendance), args.Bool(1), args.Error(2)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyRegistration(ctx context.Context, r notify.Registration) error {
	return m.Called(r).Error(0)
}

func (m *MockNotifier) NotifyCheckIn(ctx context.Context, c notify.CheckIn) error {
	return m.Called(c).Error(0)
}

func quietLogger() *logger.Logger {
	return logger.NewWriterLogger(nil)
}

func TestRegisterRaceLoserBecomesAlreadyRegistered(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	svc := service.NewRegistrationService(store, token.NewSVGRenderer(2), notifier, nil, quietLogger())

	event := &models.Event{ID: token.GenerateID(), Name: "EV1"}
	winner := &models.Participant{ID: token.GenerateID(), EventID: event.ID, Name: "Alice", StudentID: "S100", Email: "a@x.com"}

	store.On("GetEvent", event.ID).Return(event, nil)
	store.On("FindParticipantByNaturalKey", event.ID, "S100", "a@x.com").Return(nil, db.ErrNotFound).Once()
	store.On("CreateParticipant", mock.Anything).Return(db.ErrConstraintViolation)
	store.On("FindParticipantByNaturalKey", event.ID, "S100", "a@x.com").Return(winner, nil).Once()

	result, err := svc.Register(context.Background(), event.ID, "Alice", "S100", "a@x.com")
	require.NoError(t, err)
	assert.True(t, result.AlreadyRegistered)
	assert.Equal(t, winner.ID, result.Participant.ID)

	store.AssertExpectations(t)
	notifier.AssertNotCalled(t, "NotifyRegistration", mock.Anything)
}

func TestRegisterNotificationFailureKeepsRegistration(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	svc := service.NewRegistrationService(store, token.NewSVGRenderer(2), notifier, nil, quietLogger())

	event := &models.Event{ID: token.GenerateID(), Name: "EV1"}
	store.On("GetEvent", event.ID).Return(event, nil)
	store.On("FindParticipantByNaturalKey", event.ID, "S100", "a@x.com").Return(nil, db.ErrNotFound)
	store.On("CreateParticipant", mock.MatchedBy(func(p *models.Participant) bool {
		return p.EventID == event.ID && token.IsID(p.ID) && p.Name == "Alice"
	})).Return(nil)
	notifier.On("NotifyRegistration", mock.MatchedBy(func(r notify.Registration) bool {
		return len(r.RenderedToken) > 0 && r.Email == "a@x.com"
	})).Return(errors.New("smtp down"))

	result, err := svc.Register(context.Background(), event.ID, " Alice ", "S100", "a@x.com")
	require.NoError(t, err)
	assert.False(t, result.AlreadyRegistered)
	assert.Equal(t, "Alice", result.Participant.Name)

	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestRegisterStorageErrorIsNotMisclassified(t *testing.T) {
	store := new(MockStore)
	svc := service.NewRegistrationService(store, token.NewSVGRenderer(2), nil, nil, quietLogger())

	store.On("GetEvent", "ev").Return(nil, errors.New("connection reset"))

	_, err := svc.Register(context.Background(), "ev", "Alice", "S100", "a@x.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrNotFound)
	var verr *service.ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestCheckInDuplicateReportsOriginalTime(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	svc := service.NewCheckInService(store, notifier, nil, quietLogger())

	event := &models.Event{ID: token.GenerateID(), Name: "EV1"}
	alice := &models.Participant{ID: token.GenerateID(), EventID: event.ID, Name: "Alice", StudentID: "S100"}
	first := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)

	store.On("GetEvent", event.ID).Return(event, nil)
	store.On("GetParticipantForEvent", alice.ID, event.ID).Return(alice, nil)
	store.On("CreateAttendanceIfAbsent", alice.ID, event.ID).
		Return(&models.Attendance{ID: 1, ParticipantID: alice.ID, EventID: event.ID, CheckInTime: first}, false, nil)

	result, err := svc.CheckIn(context.Background(), alice.ID, event.ID)
	require.NoError(t, err)
	assert.True(t, result.Duplicate())
	assert.Equal(t, "Alice (ID: S100) already checked in at 09:05.", result.Message)
	assert.True(t, result.CheckedInAt.Equal(first))

	notifier.AssertNotCalled(t, "NotifyCheckIn", mock.Anything)
}

func TestCheckInSuccessNotifies(t *testing.T) {
	store := new(MockStore)
	notifier := new(MockNotifier)
	svc := service.NewCheckInService(store, notifier, nil, quietLogger())

	event := &models.Event{ID: token.GenerateID(), Name: "Career Fair"}
	alice := &models.Participant{ID: token.GenerateID(), EventID: event.ID, Name: "Alice", StudentID: "S100"}
	at := time.Now().UTC()

	store.On("GetEvent", event.ID).Return(event, nil)
	store.On("GetParticipantForEvent", alice.ID, event.ID).Return(alice, nil)
	store.On("CreateAttendanceIfAbsent", alice.ID, event.ID).
		Return(&models.Attendance{ID: 1, ParticipantID: alice.ID, EventID: event.ID, CheckInTime: at}, true, nil)
	notifier.On("NotifyCheckIn", mock.MatchedBy(func(c notify.CheckIn) bool {
		return c.ParticipantID == alice.ID && c.CheckedInAt.Equal(at)
	})).Return(nil)

	result, err := svc.CheckIn(context.Background(), alice.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, service.CheckInSuccess, result.Status)
	assert.Equal(t, "Checked in Alice (S100) for Career Fair.", result.Message)
	notifier.AssertExpectations(t)
}

func TestCheckInRejectsMissingFieldsAndRegistrationCodes(t *testing.T) {
	store := new(MockStore)
	svc := service.NewCheckInService(store, nil, nil, quietLogger())
	ctx := context.Background()

	var verr *service.ValidationError
	_, err := svc.CheckIn(ctx, "", "ev")
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "participant_id")

	_, err = svc.CheckIn(ctx, token.GenerateID(), " ")
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "event_id")

	_, err = svc.CheckIn(ctx, token.RegistrationURL("http://localhost:8080", token.GenerateID()), "ev")
	assert.True(t, errors.As(err, &verr))

	_, err = svc.CheckIn(ctx, "garbage", "ev")
	assert.ErrorIs(t, err, service.ErrNotFound)

	store.AssertNotCalled(t, "GetEvent", mock.Anything)
}

func TestCheckInStorageErrorPropagates(t *testing.T) {
	store := new(MockStore)
	svc := service.NewCheckInService(store, nil, nil, quietLogger())

	event := &models.Event{ID: token.GenerateID()}
	alice := &models.Participant{ID: token.GenerateID(), EventID: event.ID}
	store.On("GetEvent", event.ID).Return(event, nil)
	store.On("GetParticipantForEvent", alice.ID, event.ID).Return(alice, nil)
	store.On("CreateAttendanceIfAbsent", alice.ID, event.ID).Return(nil, false, errors.New("disk full"))

	_, err := svc.CheckIn(context.Background(), alice.ID, event.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrNotFound)
}

func TestEventServiceMapsNotFound(t *testing.T) {
	store := new(MockStore)
	svc := service.NewEventService(store, token.NewSVGRenderer(2), "http://localhost:8080", quietLogger())

	store.On("GetEvent", "missing").Return(nil, db.ErrNotFound)
	store.On("DeleteEvent", "missing").Return(db.ErrNotFound)

	_, err := svc.Details(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, _, err = svc.RegistrationToken(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteEvent(context.Background(), "missing"), service.ErrNotFound)
}
