package server

import (
	"encoding/json"

	"avocado/internal/observability"
	"avocado/internal/service"
	"avocado/internal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	sessionCookieName = "avocado_session"
	csrfFormField     = "_csrf"
	csrfContextKey    = "csrf"

	localSession = "session"

	keyToken  = "token"
	keyEmail  = "email"
	keyToast  = "toast"
	keyDetail = "detail"
)

// sessionMiddleware loads the session before the handlers and saves it after
// them. Session.Save releases the session, so it happens exactly once here.
func (s *Server) sessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.sessions.Get(c)
		if err != nil {
			return err
		}
		c.Locals(localSession, sess)
		if email, ok := sess.Get(keyEmail).(string); ok {
			c.Locals("userEmail", email)
		}

		err = c.Next()

		if sess.Fresh() && len(sess.Keys()) == 0 {
			return err
		}
		if saveErr := sess.Save(); saveErr != nil {
			observability.Logger.ErrorContext(c.UserContext(), "session save failed", "error", saveErr.Error())
		}
		return err
	}
}

// webSession wraps the fiber session with the typed values the pages use.
type webSession struct {
	sess *session.Session
}

func sessionOf(c *fiber.Ctx) webSession {
	sess, _ := c.Locals(localSession).(*session.Session)
	return webSession{sess: sess}
}

func (w webSession) str(key string) string {
	if w.sess == nil {
		return ""
	}
	v, _ := w.sess.Get(key).(string)
	return v
}

// Viewer returns the signed-in credentials, empty when logged out.
func (w webSession) Viewer() service.Viewer {
	return service.Viewer{Token: w.str(keyToken), Email: w.str(keyEmail)}
}

// Login stores the credentials under a fresh session id.
func (w webSession) Login(v service.Viewer) error {
	if err := w.sess.Regenerate(); err != nil {
		return err
	}
	w.sess.Set(keyToken, v.Token)
	w.sess.Set(keyEmail, v.Email)
	w.sess.Delete(keyDetail)
	return nil
}

// Logout drops the credentials and page state; a pending toast survives.
func (w webSession) Logout() error {
	w.sess.Delete(keyToken)
	w.sess.Delete(keyEmail)
	w.sess.Delete(keyDetail)
	return w.sess.Regenerate()
}

// PushToast queues a message for the next rendered page.
func (w webSession) PushToast(t *views.Toast) {
	if w.sess == nil || t == nil {
		return
	}
	b, err := json.Marshal(t)
	if err != nil {
		return
	}
	observability.ToastsTotal.WithLabelValues(t.Kind).Inc()
	w.sess.Set(keyToast, string(b))
}

// PopToast returns and clears the pending message.
func (w webSession) PopToast() *views.Toast {
	raw := w.str(keyToast)
	if raw == "" {
		return nil
	}
	w.sess.Delete(keyToast)
	var t views.Toast
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil
	}
	return &t
}

// detailSnapshot is the post page state kept between an action and the
// redirected page load. Fresh marks a snapshot that must be rendered as is.
type detailSnapshot struct {
	PostID uint                 `json:"postId"`
	Fresh  bool                 `json:"fresh"`
	State  *service.DetailState `json:"state"`
}

// Snapshot returns the stored state for postID, or nil.
func (w webSession) Snapshot(postID uint) *detailSnapshot {
	raw := w.str(keyDetail)
	if raw == "" {
		return nil
	}
	var snap detailSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || snap.PostID != postID || snap.State == nil || snap.State.Post == nil {
		return nil
	}
	return &snap
}

// SaveSnapshot stores state for the post page.
func (w webSession) SaveSnapshot(state *service.DetailState, fresh bool) {
	if w.sess == nil || state == nil || state.Post == nil {
		return
	}
	b, err := json.Marshal(detailSnapshot{PostID: state.Post.ID, Fresh: fresh, State: state})
	if err != nil {
		return
	}
	w.sess.Set(keyDetail, string(b))
}

func (w webSession) ClearSnapshot() {
	if w.sess != nil {
		w.sess.Delete(keyDetail)
	}
}
