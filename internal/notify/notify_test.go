package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"swiftattend/internal/config"
	"swiftattend/internal/logger"
	"swiftattend/internal/notify"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	args := m.Called(topic, key, v)
	return args.Error(0)
}

var topics = config.TopicConfig{Registrations: "reg", CheckIns: "chk"}

func TestKafkaNotifierRoutesByTopic(t *testing.T) {
	pub := new(MockPublisher)
	n := notify.NewKafka(pub, topics)

	reg := notify.Registration{ParticipantID: "p-1", ParticipantName: "Alice", RenderedToken: []byte("<svg/>")}
	chk := notify.CheckIn{ParticipantID: "p-1", CheckedInAt: time.Now()}

	pub.On("PublishJSON", "reg", "p-1", reg).Return(nil)
	pub.On("PublishJSON", "chk", "p-1", chk).Return(errors.New("broker down"))

	assert.NoError(t, n.NotifyRegistration(context.Background(), reg))
	assert.ErrorContains(t, n.NotifyCheckIn(context.Background(), chk), "broker down")
	pub.AssertExpectations(t)
}

func TestRegistrationJSONOmitsRenderedToken(t *testing.T) {
	data, err := json.Marshal(notify.Registration{ParticipantID: "p-1", RenderedToken: []byte("<svg/>")})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "svg")
}

func TestMockEmailLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewMockEmail(logger.NewWriterLogger(&buf))

	err := n.NotifyRegistration(context.Background(), notify.Registration{
		Email:           "a@x.com",
		ParticipantName: "Alice",
		EventName:       "Orientation",
		RenderedToken:   []byte(strings.Repeat("q", 500)),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "To: a@x.com")
	assert.Contains(t, out, "Your SwiftAttend Registration for Orientation")
	assert.NotContains(t, out, strings.Repeat("q", 101))
}

type failing struct{ notify.Nop }

func (failing) NotifyRegistration(context.Context, notify.Registration) error {
	return errors.New("smtp down")
}

func TestMultiJoinsErrors(t *testing.T) {
	m := notify.Multi{notify.Nop{}, failing{}}
	assert.ErrorContains(t, m.NotifyRegistration(context.Background(), notify.Registration{}), "smtp down")
	assert.NoError(t, m.NotifyCheckIn(context.Background(), notify.CheckIn{}))
}

type ctxRecorder struct {
	err      error
	deadline bool
}

func (p *ctxRecorder) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	p.err = ctx.Err()
	_, p.deadline = ctx.Deadline()
	return nil
}

func TestKafkaPublishOutlivesCallerCancellation(t *testing.T) {
	pub := &ctxRecorder{}
	n := notify.NewKafka(pub, topics)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, n.NotifyCheckIn(ctx, notify.CheckIn{ParticipantID: "p-1"}))
	assert.NoError(t, pub.err)
	assert.True(t, pub.deadline)
}

type blocking struct {
	notify.Nop
	release chan struct{}
	ctxErr  error
}

func (b *blocking) NotifyRegistration(ctx context.Context, _ notify.Registration) error {
	<-b.release
	b.ctxErr = ctx.Err()
	return errors.New("broker down")
}

func TestAsyncReturnsBeforeDelivery(t *testing.T) {
	var buf bytes.Buffer
	next := &blocking{release: make(chan struct{})}
	a := notify.NewAsync(next, logger.NewWriterLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.NotifyRegistration(ctx, notify.Registration{ParticipantID: "p-1"}) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("NotifyRegistration waited for delivery")
	}

	cancel()
	close(next.release)
	a.Wait()

	assert.NoError(t, next.ctxErr)
	assert.Contains(t, buf.String(), "Background registration p-1 notification failed: broker down")
}
