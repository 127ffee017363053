package handlers

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/MegaGrindStone/cv-assess-web/internal/assessment"
	"github.com/MegaGrindStone/cv-assess-web/internal/models"
)

type homePageData struct {
	JobDescription string
	Resume         string
	Vibe           models.Vibe
	Vibes          []models.Vibe

	Result resultData
}

type historyPageData struct {
	Assessments []historyItem
}

type historyItem struct {
	ID             string
	Vibe           models.Vibe
	JobDescription string
	State          models.StreamingState
	Error          string
	CreatedAt      time.Time
	Content        template.HTML
}

// HandleHome renders the assessment page for the requesting session. The form fields, the submit button
// and the result region reflect the session's current form state, so a reload during a running
// submission shows the text accumulated so far with the button disabled.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sess := m.session(w, r)
	snap := sess.form.Snapshot()

	result, err := m.resultData(snap, snap.Err)
	if err != nil {
		m.logger.Error("Failed to render result", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := homePageData{
		JobDescription: snap.JobDescription,
		Resume:         snap.Resume,
		Vibe:           snap.Vibe,
		Vibes:          models.Vibes,
		Result:         result,
	}

	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		m.logger.Error("Failed to execute home template", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// HandleForm applies field edits to the session's form. Every field present in the posted form
// ("job_description", "resume" or "vibe") replaces the stored value wholesale; absent fields are left
// untouched. Any text is accepted, including an empty one.
func (m Main) HandleForm(w http.ResponseWriter, r *http.Request) {
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
	applyFormFields(sess.form, r)

	w.WriteHeader(http.StatusNoContent)
}

func applyFormFields(form *assessment.Form, r *http.Request) {
	if r.PostForm.Has("job_description") {
		form.SetJobDescription(r.PostForm.Get("job_description"))
	}
	if r.PostForm.Has("resume") {
		form.SetResume(r.PostForm.Get("resume"))
	}
	if r.PostForm.Has("vibe") {
		form.SetVibe(models.ParseVibe(r.PostForm.Get("vibe")))
	}
}

// HandleHistory renders the stored assessments, newest first.
func (m Main) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	assessments, err := m.store.Assessments(r.Context())
	if err != nil {
		m.logger.Error("Failed to get assessments", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]historyItem, len(assessments))
	for i, a := range assessments {
		content, err := models.RenderMarkdown(a.Text)
		if err != nil {
			m.logger.Error("Failed to render assessment",
				slog.String("id", a.ID),
				slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		items[i] = historyItem{
			ID:             a.ID,
			Vibe:           a.Vibe,
			JobDescription: a.JobDescription,
			State:          a.State,
			Error:          a.Error,
			CreatedAt:      a.CreatedAt,
			// RenderMarkdown drops raw HTML from the model output.
			Content: template.HTML(content), //nolint:gosec
		}
	}

	if err := m.templates.ExecuteTemplate(w, "history.html", historyPageData{Assessments: items}); err != nil {
		m.logger.Error("Failed to execute history template", slog.String(errLoggerKey, err.Error()))
		http.Error(w, fmt.Sprintf("failed to render history: %v", err), http.StatusInternalServerError)
	}
}
