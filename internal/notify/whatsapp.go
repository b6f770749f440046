package notify

import (
	"errors"
	"regexp"
	"sync"
	"time"
)

var (
	ErrWhatsAppDisabled = errors.New("WhatsApp no está habilitado")
	ErrInvalidPhone     = errors.New("número de teléfono inválido")
	ErrEmptyMessage     = errors.New("el mensaje no puede estar vacío")
)

var phoneRe = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// SessionStatus is the lifecycle state of a WhatsApp session.
type SessionStatus string

const (
	SessionDisabled SessionStatus = "disabled"
	SessionReady    SessionStatus = "ready"
)

// SessionState is a snapshot of a session.
type SessionState struct {
	Provider  string        `json:"provider"`
	Status    SessionStatus `json:"status"`
	Sent      int           `json:"sent"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Delivery echoes an accepted message.
type Delivery struct {
	Provider string `json:"provider"`
	Status   string `json:"status"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
}

// WhatsAppSession owns the messaging state for one process. It is safe for
// concurrent use.
type WhatsAppSession struct {
	mu        sync.RWMutex
	status    SessionStatus
	sent      int
	updatedAt time.Time
	now       func() time.Time
}

// NewWhatsAppSession returns a ready session when enabled. now may be nil.
func NewWhatsAppSession(enabled bool, now func() time.Time) *WhatsAppSession {
	if now == nil {
		now = time.Now
	}
	s := &WhatsAppSession{status: SessionDisabled, now: now}
	if enabled {
		s.status = SessionReady
	}
	s.updatedAt = now()
	return s
}

func (s *WhatsAppSession) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionState{Provider: "WhatsApp", Status: s.status, Sent: s.sent, UpdatedAt: s.updatedAt}
}

// Send accepts a text message for phone.
func (s *WhatsAppSession) Send(phone, message string) (Delivery, error) {
	if message == "" {
		return Delivery{}, ErrEmptyMessage
	}
	if !phoneRe.MatchString(phone) {
		return Delivery{}, ErrInvalidPhone
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SessionReady {
		return Delivery{}, ErrWhatsAppDisabled
	}
	s.sent++
	s.updatedAt = s.now()
	return Delivery{Provider: "WhatsApp", Status: "Mensaje enviado", Phone: phone, Message: message}, nil
}
