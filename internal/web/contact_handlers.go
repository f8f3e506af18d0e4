package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/evcraddock/courier-site/internal/contact"
	"github.com/evcraddock/courier-site/internal/inquiry"
	"github.com/evcraddock/courier-site/internal/logging"
	"github.com/evcraddock/courier-site/internal/session"
)

// submitTimeout bounds one relay call. Submissions outlive a dropped client.
const submitTimeout = 30 * time.Second

// contactResponse is the form's state as seen by the browser.
type contactResponse struct {
	State  contact.State        `json:"state"`
	Fields contact.Fields       `json:"fields,omitempty"`
	Errors []contact.FieldError `json:"errors,omitempty"`
}

// submitContact validates req and relays it through the visitor's form.
// A *contact.ValidationError means nothing was sent.
func (s *Server) submitContact(ctx context.Context, v *session.Visitor, req contact.Request) (contact.State, error) {
	if err := s.validator.Validate(&req); err != nil {
		return v.Form.State(), err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submitTimeout)
	defer cancel()

	state, err := v.Form.Submit(ctx, req.Fields(), s.destinationKey)
	if err != nil {
		return state, err
	}

	s.recordInquiry(ctx, req, state)
	return state, nil
}

// recordInquiry logs the submission outcome. Failures to record never
// affect the visitor.
func (s *Server) recordInquiry(ctx context.Context, req contact.Request, state contact.State) {
	if s.inquiries == nil {
		return
	}

	status := inquiry.StatusError
	if state.Status == contact.StatusSuccess {
		status = inquiry.StatusSuccess
	}

	if _, err := s.inquiries.Add(inquiry.Inquiry{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Status:  status,
		Message: state.Message,
		Relay:   s.relayName,
	}); err != nil {
		logging.FromContext(ctx).Error("recording inquiry", "error", err)
	}
}

// apiContactState returns the visitor's form state.
func (s *Server) apiContactState(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	apiJSON(w, contactResponse{State: v.Form.State(), Fields: v.Form.Fields()}, http.StatusOK)
}

// apiContactSubmit relays the contact form.
func (s *Server) apiContactSubmit(w http.ResponseWriter, r *http.Request) {
	var req contact.Request
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	v := s.visitor(w, r)
	state, err := s.submitContact(r.Context(), v, req)

	var verr *contact.ValidationError
	switch {
	case errors.As(err, &verr):
		apiJSON(w, contactResponse{State: state, Errors: verr.Fields}, http.StatusUnprocessableEntity)
	case errors.Is(err, contact.ErrInFlight), errors.Is(err, contact.ErrAlreadySent):
		apiJSON(w, contactResponse{State: state}, http.StatusConflict)
	case err != nil:
		apiError(w, err.Error(), http.StatusInternalServerError)
	default:
		apiJSON(w, contactResponse{State: state, Fields: v.Form.Fields()}, http.StatusOK)
	}
}

// apiContactReset is "send another": back to idle with no message.
func (s *Server) apiContactReset(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	v.Form.Reset()
	apiJSON(w, contactResponse{State: v.Form.State(), Fields: v.Form.Fields()}, http.StatusOK)
}

// handleContactPost is the form POST used without JavaScript.
func (s *Server) handleContactPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := contact.Request{
		Name:    r.FormValue("name"),
		Email:   r.FormValue("email"),
		Phone:   r.FormValue("phone"),
		Subject: r.FormValue("subject"),
		Message: r.FormValue("message"),
	}

	v := s.visitor(w, r)
	_, err := s.submitContact(r.Context(), v, req)

	var verr *contact.ValidationError
	if errors.As(err, &verr) {
		data := s.homeData(v)
		data.Fields = req.Fields()
		data.Errors = make(map[string]string, len(verr.Fields))
		for _, fe := range verr.Fields {
			data.Errors[fe.Field] = fe.Message
		}
		s.renderStatus(w, http.StatusUnprocessableEntity, "home.html", data)
		return
	}
	if err != nil && !errors.Is(err, contact.ErrInFlight) && !errors.Is(err, contact.ErrAlreadySent) {
		http.Error(w, "Error submitting form", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/#contact", http.StatusSeeOther)
}

// handleContactReset is the "send another" button without JavaScript.
func (s *Server) handleContactReset(w http.ResponseWriter, r *http.Request) {
	v := s.visitor(w, r)
	v.Form.Reset()
	http.Redirect(w, r, "/#contact", http.StatusSeeOther)
}
