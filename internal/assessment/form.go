// Package assessment holds the state of the assessment form and streams a candidate assessment from the
// proxy endpoint into it.
package assessment

import (
	"strings"
	"sync"

	"github.com/MegaGrindStone/cv-assess-web/internal/models"
)

// Observer is the view of a Form. Changed is called after every change to the assessment text or the
// in-flight flag, Finished once per submission after the in-flight flag is cleared, with the error the
// submission ended with. Calls for one Form are never concurrent.
type Observer interface {
	Changed(s Snapshot)
	Finished(s Snapshot, err error)
}

// Snapshot is a consistent copy of a Form's state.
type Snapshot struct {
	JobDescription string
	Resume         string
	Vibe           models.Vibe
	InFlight       bool
	Assessment     string
	Err            error
}

// Form holds what the user typed and what the model answered. Field setters replace a value wholesale
// and accept any string. Only the submission that claimed the form writes to the assessment text.
type Form struct {
	mu sync.RWMutex

	jobDescription string
	resume         string
	vibe           models.Vibe

	inFlight bool
	text     strings.Builder
	err      error

	observer Observer
}

// NewForm returns an empty Form with the default vibe.
func NewForm() *Form {
	return &Form{vibe: models.VibeProfessional}
}

// Observe registers o as the Form's view, replacing any previous one. A nil o removes it.
func (f *Form) Observe(o Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observer = o
}

func (f *Form) JobDescription() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.jobDescription
}

func (f *Form) SetJobDescription(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobDescription = s
}

func (f *Form) Resume() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.resume
}

func (f *Form) SetResume(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resume = s
}

func (f *Form) Vibe() models.Vibe {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.vibe
}

func (f *Form) SetVibe(v models.Vibe) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vibe = v
}

// InFlight reports whether a submission is outstanding.
func (f *Form) InFlight() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.inFlight
}

// Assessment returns the text accumulated by the current or last submission.
func (f *Form) Assessment() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.text.String()
}

// Err returns the error the last submission ended with, nil while one is in flight.
func (f *Form) Err() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.err
}

func (f *Form) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot()
}

func (f *Form) snapshot() Snapshot {
	return Snapshot{
		JobDescription: f.jobDescription,
		Resume:         f.resume,
		Vibe:           f.vibe,
		InFlight:       f.inFlight,
		Assessment:     f.text.String(),
		Err:            f.err,
	}
}

// claim starts a submission: the assessment text is emptied and the in-flight flag set. It fails with
// ErrInFlight if another submission holds the form.
func (f *Form) claim() (Snapshot, error) {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return Snapshot{}, ErrInFlight
	}
	f.inFlight = true
	f.text.Reset()
	f.err = nil
	s, o := f.snapshot(), f.observer
	f.mu.Unlock()

	if o != nil {
		o.Changed(s)
	}
	return s, nil
}

func (f *Form) appendChunk(chunk string) {
	f.mu.Lock()
	f.text.WriteString(chunk)
	s, o := f.snapshot(), f.observer
	f.mu.Unlock()

	if o != nil {
		o.Changed(s)
	}
}

func (f *Form) release(err error) {
	f.mu.Lock()
	f.inFlight = false
	f.err = err
	s, o := f.snapshot(), f.observer
	f.mu.Unlock()

	if o != nil {
		o.Finished(s, err)
	}
}
