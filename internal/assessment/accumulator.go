package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MegaGrindStone/cv-assess-web/internal/metrics"
	"github.com/MegaGrindStone/cv-assess-web/internal/prompt"
	"github.com/MegaGrindStone/cv-assess-web/internal/textstream"
)

// Accumulator sends the composed prompt to the proxy endpoint and appends the streamed response to a
// Form, one decoded chunk at a time.
type Accumulator struct {
	endpoint  string
	chunkSize int

	client *http.Client

	logger *slog.Logger
}

// AccumulatorOption customizes an Accumulator.
type AccumulatorOption func(*Accumulator)

// GenerateRequest is the body the proxy endpoint accepts.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

const defaultChunkSize = 4096

// WithHTTPClient sets the client used to reach the proxy endpoint. The default client has no timeout.
func WithHTTPClient(c *http.Client) AccumulatorOption {
	return func(a *Accumulator) {
		a.client = c
	}
}

// WithChunkSize sets the size of the buffer each body read fills at most.
func WithChunkSize(n int) AccumulatorOption {
	return func(a *Accumulator) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

// NewAccumulator creates an Accumulator that posts to endpoint, the URL of the proxy endpoint.
func NewAccumulator(endpoint string, logger *slog.Logger, opts ...AccumulatorOption) Accumulator {
	a := Accumulator{
		endpoint:  endpoint,
		chunkSize: defaultChunkSize,
		client:    &http.Client{},
		logger:    logger.With(slog.String("module", "accumulator")),
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Submit runs one assessment for form. It resets the form's assessment text, marks it in flight, sends
// the prompt composed from the form's job description and résumé, and appends every chunk of the
// response as it arrives. Whatever happens, the in-flight flag is cleared before Submit returns and the
// form's observer is told the submission finished.
//
// Submit returns ErrInFlight without sending anything if the form is already in flight, a
// *RequestFailure if the endpoint can't be reached or answers with a non-success status, and a
// *StreamReadFailure if the body breaks off, including when ctx is canceled mid-stream.
func (a Accumulator) Submit(ctx context.Context, form *Form) (err error) {
	snap, err := form.claim()
	if err != nil {
		return err
	}

	start := time.Now()
	metrics.AssessmentsInFlight.Inc()
	defer func() {
		metrics.AssessmentsInFlight.Dec()
		metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
		metrics.AssessmentsTotal.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			a.logger.Warn("Assessment failed", slog.String(errLoggerKey, err.Error()))
		}
		form.release(err)
	}()

	body, err := json.Marshal(GenerateRequest{
		Prompt: prompt.Compose(snap.JobDescription, snap.Resume),
	})
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	a.logger.Debug("Sending assessment request",
		slog.String("endpoint", a.endpoint),
		slog.Int("promptBytes", len(body)))

	resp, err := a.client.Do(req)
	if err != nil {
		return &RequestFailure{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		status := resp.Status
		if status == "" {
			status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return &RequestFailure{StatusCode: resp.StatusCode, Status: status}
	}

	return a.accumulate(resp.Body, form)
}

func (a Accumulator) accumulate(r io.Reader, form *Form) error {
	dec := textstream.NewDecoder()
	buf := make([]byte, a.chunkSize)
	chunks := 0

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if s := dec.Decode(buf[:n]); s != "" {
				form.appendChunk(s)
				metrics.AssessmentChunks.Inc()
				chunks++
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &StreamReadFailure{Err: err}
		}
	}

	if s := dec.Flush(); s != "" {
		form.appendChunk(s)
		chunks++
	}

	a.logger.Debug("Assessment stream ended", slog.Int("chunks", chunks))
	return nil
}

func outcome(err error) string {
	var sf *StreamReadFailure
	switch {
	case err == nil:
		return metrics.StatusOK
	case errors.As(err, &sf):
		return metrics.StatusStreamError
	default:
		return metrics.StatusRequestError
	}
}

const errLoggerKey = "err"
