package web

import (
	"net/http"

	"github.com/evcraddock/courier-site/internal/session"
)

// visitor returns the caller's session, creating one and setting the
// cookie when the request carries no known id.
func (s *Server) visitor(w http.ResponseWriter, r *http.Request) *session.Visitor {
	if c, err := r.Cookie(session.CookieName); err == nil {
		if v, ok := s.sessions.Get(c.Value); ok {
			s.sessions.Touch(v)
			return v
		}
	}

	v := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    v.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.devMode,
		SameSite: http.SameSiteLaxMode,
	})
	return v
}

// mount initializes the visitor's map with the default view.
func (s *Server) mount(v *session.Visitor) {
	v.Planner.Mount(s.mapCenter, s.mapZoom)
}
