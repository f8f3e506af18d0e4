// Package contact submits form contents to a third-party relay and tracks
// the submission state of each form instance.
package contact

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// User-facing fallback messages.
const (
	MsgGenericFailure = "Something went wrong. Please try again."
	MsgNetworkError   = "Network error. Please check your connection and try again."
)

var (
	// ErrInFlight is returned by Submit while a submission is pending.
	ErrInFlight = errors.New("submission already in progress")
	// ErrAlreadySent is returned by Submit after a successful submission
	// until the form is Reset.
	ErrAlreadySent = errors.New("form already sent, reset it to send another")
)

// Status is the submission lifecycle.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// State is the form's current status plus the error message, if any.
type State struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Field is one named form value.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Fields are the form contents in input order.
type Fields []Field

// Get returns the first value for name.
func (f Fields) Get(name string) string {
	for _, field := range f {
		if field.Name == name {
			return field.Value
		}
	}
	return ""
}

// Response is the relay's verdict on a submission.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Relay delivers form contents. An error means no response was received.
type Relay interface {
	SubmitForm(ctx context.Context, fields Fields, destinationKey string) (Response, error)
}

// Form tracks one form instance. It allows a single in-flight submission.
type Form struct {
	relay Relay
	log   *slog.Logger

	mu     sync.Mutex
	state  State
	fields Fields
}

// NewForm creates an idle form.
func NewForm(relay Relay, log *slog.Logger) *Form {
	if log == nil {
		log = slog.Default()
	}
	return &Form{
		relay: relay,
		log:   log,
		state: State{Status: StatusIdle},
	}
}

// State returns the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Fields returns the values kept for re-display. They are cleared after a
// successful submission.
func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(Fields(nil), f.fields...)
}

// Submit sends fields to the relay from idle, or from error as a retry.
// A call made while another submission is pending returns ErrInFlight, and
// one made after success returns ErrAlreadySent; neither contacts the relay.
func (f *Form) Submit(ctx context.Context, fields Fields, destinationKey string) (State, error) {
	f.mu.Lock()
	switch f.state.Status {
	case StatusSubmitting:
		f.mu.Unlock()
		return State{Status: StatusSubmitting}, ErrInFlight
	case StatusSuccess:
		f.mu.Unlock()
		return State{Status: StatusSuccess}, ErrAlreadySent
	}
	f.state = State{Status: StatusSubmitting}
	f.fields = append(Fields(nil), fields...)
	f.mu.Unlock()

	resp, err := f.send(ctx, fields, destinationKey)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case err != nil:
		f.log.Warn("form relay unreachable", "error", err)
		f.state = State{Status: StatusError, Message: MsgNetworkError}
	case resp.Success:
		f.state = State{Status: StatusSuccess}
		f.fields = nil
	default:
		msg := resp.Message
		if msg == "" {
			msg = MsgGenericFailure
		}
		f.state = State{Status: StatusError, Message: msg}
	}
	return f.state, nil
}

// send calls the relay, turning a panic into an error so the form never
// stays stuck in submitting.
func (f *Form) send(ctx context.Context, fields Fields, destinationKey string) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("form relay panicked", "panic", r)
			err = errors.New("relay panicked")
		}
	}()
	return f.relay.SubmitForm(ctx, fields, destinationKey)
}

// Reset returns the form to idle and clears the error message.
// It has no effect while a submission is pending.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Status == StatusSubmitting {
		return
	}
	f.state = State{Status: StatusIdle}
}
