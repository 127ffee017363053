package handlers

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"iter"
	"log/slog"
	"sync"
	"time"

	cvassess "github.com/MegaGrindStone/cv-assess-web"
	"github.com/MegaGrindStone/cv-assess-web/internal/assessment"
	"github.com/MegaGrindStone/cv-assess-web/internal/models"
	"github.com/tmaxmax/go-sse"
)

// LLM represents a large language model that completes a prompt. It accepts a context and the prompt,
// returning an iterator that yields response fragments in order and potential errors.
type LLM interface {
	Generate(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// Store defines the interface for the assessment history. Records are added when a submission starts
// and updated when it finishes.
type Store interface {
	Assessments(ctx context.Context) ([]models.Assessment, error)
	AddAssessment(ctx context.Context, a models.Assessment) (string, error)
	UpdateAssessment(ctx context.Context, a models.Assessment) error
}

// Submitter runs one assessment for a form, streaming the result into it. assessment.Accumulator is the
// production implementation.
type Submitter interface {
	Submit(ctx context.Context, form *assessment.Form) error
}

// Main handles the core functionality of the application, managing server-sent events, HTML templates,
// the proxy endpoint, and the interactions between the form sessions, the Submitter and the Store.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	llm       LLM
	store     Store
	submitter Submitter

	sessions *sessions

	// ctx outlives requests and bounds running submissions, it is canceled on Shutdown.
	ctx         context.Context
	cancel      context.CancelFunc
	submissions *sync.WaitGroup

	logger *slog.Logger
}

const (
	errLoggerKey = "err"

	sessionCookieName = "cvassess_session"
)

// SSE event types for real-time updates of the result region.
var (
	assessmentSSEType      = sse.Type("assessment")
	assessmentErrorSSEType = sse.Type("assessmentError")
	assessmentDoneSSEType  = sse.Type("assessmentDone")
)

// NewMain creates a new Main instance with the provided LLM, Store and Submitter implementations. It
// initializes the SSE server, which subscribes each client to the topic of its form session, and parses
// the required HTML templates from the embedded filesystem.
func NewMain(llm LLM, store Store, submitter Submitter, logger *slog.Logger) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		cvassess.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				topics := []string{sse.DefaultTopic}

				// Each page only cares about the result region of its own form session
				if id := sessionIDFromRequest(s.Req); id != "" {
					topics = append(topics, sessionTopic(id))
				}

				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      topics,
				}, true
			},
		},
		templates:   tmpl,
		llm:         llm,
		store:       store,
		submitter:   submitter,
		sessions:    newSessions(),
		ctx:         ctx,
		cancel:      cancel,
		submissions: &sync.WaitGroup{},
		logger:      logger.With(slog.String("module", "main")),
	}, nil
}

func sessionTopic(sessionID string) string {
	return fmt.Sprintf("session-%s", sessionID)
}

// Shutdown gracefully terminates the Main instance. Running submissions are canceled and waited for, so
// their history records are finalized, then a close message is broadcast to all connected clients and
// the SSE server waits up to 5 seconds for connections to terminate.
func (m Main) Shutdown(ctx context.Context) error {
	m.cancel()

	waited := make(chan struct{})
	go func() {
		m.submissions.Wait()
		close(waited)
	}()

	var errs []error
	select {
	case <-waited:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("waiting for submissions: %w", ctx.Err()))
	}

	e := &sse.Message{Type: sse.Type("closeSession")}
	// SSE events need a data field to be dispatched
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	if err := m.sseSrv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
