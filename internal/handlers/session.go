package handlers

import (
	"net/http"
	"sync"

	"github.com/MegaGrindStone/cv-assess-web/internal/assessment"
	"github.com/MegaGrindStone/cv-assess-web/internal/models"
	"github.com/google/uuid"
)

// session is the server side of one browser tab family: its form, whether the page has a submission
// running, and the history record of that submission.
type session struct {
	id   string
	form *assessment.Form

	mu         sync.Mutex
	submitting bool
	// token identifies the current submission. Only its holder can end it.
	token  uint64
	record models.Assessment
}

type sessions struct {
	mu sync.Mutex
	m  map[string]*session
}

func newSessions() *sessions {
	return &sessions{m: make(map[string]*session)}
}

func (s *sessions) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	return sess, ok
}

func (s *sessions) create() *session {
	sess := &session{
		id:   uuid.New().String(),
		form: assessment.NewForm(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sess.id] = sess
	return sess
}

// begin marks the session as submitting and returns the token that ends the submission. It reports
// false when a submission is already running, which is the server-side counterpart of the disabled
// submit button.
func (s *session) begin() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting || s.form.InFlight() {
		return 0, false
	}
	s.submitting = true
	s.token++
	s.record = models.Assessment{}
	return s.token, true
}

// end releases the submission identified by token. Tokens of earlier submissions are ignored, so a
// late release can't open the gate under a newer submission.
func (s *session) end(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.submitting || s.token != token {
		return false
	}
	s.submitting = false
	return true
}

func (s *session) setRecord(token uint64, record models.Assessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting && s.token == token {
		s.record = record
	}
}

// current returns the running submission's token and record.
func (s *session) current() (uint64, models.Assessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.record, s.submitting
}

// markStreaming moves the running record from loading to streaming. It reports whether it did.
func (s *session) markStreaming() (models.Assessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.submitting || s.record.ID == "" || s.record.State != models.StreamingStateLoading {
		return models.Assessment{}, false
	}
	s.record.State = models.StreamingStateStreaming
	return s.record, true
}

func sessionIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

// session returns the form session of the request, starting a new one and setting its cookie when the
// request carries none or an unknown one. A new session's form is observed by its SSE view for the
// session's whole life.
func (m Main) session(w http.ResponseWriter, r *http.Request) *session {
	if id := sessionIDFromRequest(r); id != "" {
		if sess, ok := m.sessions.get(id); ok {
			return sess
		}
	}

	sess := m.sessions.create()
	sess.form.Observe(&sseView{m: m, sess: sess})
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}
