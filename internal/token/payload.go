package token

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidPayload = errors.New("unrecognised token payload")

type Kind int

const (
	// KindParticipant is a personal check-in code carrying a bare participant identifier.
	KindParticipant Kind = iota + 1
	// KindRegistration is an event's public code carrying its registration URL.
	KindRegistration
)

func (k Kind) String() string {
	switch k {
	case KindParticipant:
		return "participant"
	case KindRegistration:
		return "registration"
	default:
		return "unknown"
	}
}

// Payload is a decoded scan.
type Payload struct {
	Kind Kind
	ID   string
}

// RegistrationURL is the payload of an event's public QR code.
func RegistrationURL(baseURL, eventID string) string {
	return fmt.Sprintf("%s/event/%s/register", strings.TrimRight(baseURL, "/"), eventID)
}

// ParsePayload interprets scanned text as a participant identifier or an
// event registration URL.
func ParsePayload(scanned string) (Payload, error) {
	scanned = strings.TrimSpace(scanned)
	if scanned == "" {
		return Payload{}, fmt.Errorf("%w: empty", ErrInvalidPayload)
	}

	if IsID(scanned) {
		return Payload{Kind: KindParticipant, ID: scanned}, nil
	}

	u, err := url.Parse(scanned)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Payload{}, fmt.Errorf("%w: %q", ErrInvalidPayload, scanned)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	n := len(parts)
	if n >= 3 && parts[n-3] == "event" && parts[n-1] == "register" && parts[n-2] != "" {
		return Payload{Kind: KindRegistration, ID: parts[n-2]}, nil
	}

	return Payload{}, fmt.Errorf("%w: %q", ErrInvalidPayload, scanned)
}
