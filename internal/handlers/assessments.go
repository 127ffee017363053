package handlers

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MegaGrindStone/cv-assess-web/internal/assessment"
	"github.com/MegaGrindStone/cv-assess-web/internal/models"
	"github.com/google/uuid"
	"github.com/tmaxmax/go-sse"
)

type resultData struct {
	InFlight bool
	Content  template.HTML

	Notice  string
	Warning bool
}

// sseView observes a session's form. It re-renders the result region after every change and pushes
// it to the session's SSE topic, and finalizes the history record of the running submission when the
// form reports it finished.
type sseView struct {
	m    Main
	sess *session
}

// HandleAssessments starts an assessment for the requesting session. The posted "job_description",
// "resume" and "vibe" fields are applied to the form first, the same way HandleForm does, then the
// submission runs in the background and its progress is published over SSE. The response is the result
// region in its loading state.
//
// A session allows one running submission at a time, a second request is answered with 409 and sends
// nothing to the proxy endpoint.
func (m Main) HandleAssessments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		m.logger.Error("Failed to parse form", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess := m.session(w, r)
	token, ok := sess.begin()
	if !ok {
		m.logger.Warn("Assessment already in progress", slog.String("session", sess.id))
		http.Error(w, "Assessment already in progress", http.StatusConflict)
		return
	}

	applyFormFields(sess.form, r)
	snap := sess.form.Snapshot()

	record := models.Assessment{
		ID:             uuid.New().String(),
		Vibe:           snap.Vibe,
		JobDescription: snap.JobDescription,
		Resume:         snap.Resume,
		State:          models.StreamingStateLoading,
		CreatedAt:      time.Now(),
	}
	id, err := m.store.AddAssessment(r.Context(), record)
	if err != nil {
		sess.end(token)
		m.logger.Error("Failed to add assessment", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	record.ID = id
	sess.setRecord(token, record)

	m.submissions.Add(1)
	go m.assess(sess, token, record)

	err = m.templates.ExecuteTemplate(w, "result", resultData{InFlight: true})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleSSE subscribes the client to the result updates of its session.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

func (m Main) assess(sess *session, token uint64, record models.Assessment) {
	defer m.submissions.Done()

	err := m.submitter.Submit(m.ctx, sess.form)
	if errors.Is(err, assessment.ErrInFlight) {
		// The form never started this submission, so its observer won't finish it either.
		m.finish(sess, token, record, sess.form.Snapshot(), err)
		return
	}
	if err != nil {
		m.logger.Warn("Submission ended with error",
			slog.String("session", sess.id),
			slog.String(errLoggerKey, err.Error()))
	}
	// Normally a no-op, the observer ended the submission when the form finished.
	sess.end(token)
}

// finish stores the outcome of the submission identified by token, releases the session for the next
// one and publishes the final result region.
func (m Main) finish(sess *session, token uint64, record models.Assessment, s assessment.Snapshot, err error) {
	record.Text = s.Assessment
	record.FinishedAt = time.Now()
	record.State = models.StreamingStateEnded
	record.Error = ""
	if err != nil {
		record.State = models.StreamingStateFailed
		record.Error = err.Error()
	}
	if record.ID != "" {
		if err := m.store.UpdateAssessment(context.Background(), record); err != nil {
			m.logger.Error("Failed to update assessment",
				slog.String("id", record.ID),
				slog.String(errLoggerKey, err.Error()))
		}
	}

	// The page enables its button on the done event, so the session must accept the next submission by then.
	sess.end(token)

	v := sseView{m: m, sess: sess}
	if err != nil {
		v.publish(assessmentErrorSSEType, "notice", s, err)
	}
	v.publish(assessmentDoneSSEType, "result", s, err)
}

func (m Main) resultData(s assessment.Snapshot, err error) (resultData, error) {
	rd := resultData{InFlight: s.InFlight}
	rd.Notice, rd.Warning = notice(err)

	if s.Assessment == "" {
		return rd, nil
	}
	content, err := models.RenderMarkdown(s.Assessment)
	if err != nil {
		return resultData{}, err
	}
	// RenderMarkdown drops raw HTML from the model output.
	rd.Content = template.HTML(content) //nolint:gosec
	return rd, nil
}

// notice describes err for the page. The flag is set when the text shown alongside is partial rather
// than missing.
func notice(err error) (string, bool) {
	var rf *assessment.RequestFailure
	var sf *assessment.StreamReadFailure

	switch {
	case err == nil:
		return "", false
	case errors.As(err, &sf):
		return "The response was interrupted, the assessment below may be incomplete.", true
	case errors.As(err, &rf):
		if rf.Status == "" {
			return "Could not reach the assessment service. Please try again.", false
		}
		return fmt.Sprintf("The assessment request failed (%s). Please try again.", rf.Status), false
	default:
		return fmt.Sprintf("The assessment failed: %v", err), false
	}
}

func (v *sseView) Changed(s assessment.Snapshot) {
	if s.Assessment != "" {
		if record, ok := v.sess.markStreaming(); ok {
			if err := v.m.store.UpdateAssessment(context.Background(), record); err != nil {
				v.m.logger.Error("Failed to update assessment",
					slog.String("id", record.ID),
					slog.String(errLoggerKey, err.Error()))
			}
		}
	}
	v.publish(assessmentSSEType, "result", s, nil)
}

func (v *sseView) Finished(s assessment.Snapshot, err error) {
	token, record, ok := v.sess.current()
	if !ok {
		// The form was submitted outside HandleAssessments, there is no record to finalize.
		record = models.Assessment{}
	}
	v.m.finish(v.sess, token, record, s, err)
}

func (v *sseView) publish(typ sse.EventType, tmpl string, s assessment.Snapshot, err error) {
	rd, rerr := v.m.resultData(s, err)
	if rerr != nil {
		v.m.logger.Error("Failed to render result",
			slog.String("session", v.sess.id),
			slog.String(errLoggerKey, rerr.Error()))
		return
	}

	var sb strings.Builder
	if err := v.m.templates.ExecuteTemplate(&sb, tmpl, rd); err != nil {
		v.m.logger.Error("Failed to execute template",
			slog.String("template", tmpl),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{
		Type: typ,
	}
	msg.AppendData(sb.String())
	if err := v.m.sseSrv.Publish(&msg, sessionTopic(v.sess.id)); err != nil {
		v.m.logger.Error("Failed to publish result",
			slog.String("session", v.sess.id),
			slog.String(errLoggerKey, err.Error()))
	}
}
