package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/MegaGrindStone/cv-assess-web/internal/assessment"
	"github.com/MegaGrindStone/cv-assess-web/internal/models"
	"github.com/spf13/cobra"
)

type assessOptions struct {
	endpoint string
	jobFile  string
	cvFile   string
	vibe     string
	timeout  time.Duration
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &assessOptions{}

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess a candidate against a job description",
		Long: "Sends the job description and the resume to the assessment proxy and prints the pros, cons " +
			"and insights of the candidate as they are generated.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssess(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	defaultEndpoint := os.Getenv("CVASSESS_ENDPOINT")
	if defaultEndpoint == "" {
		defaultEndpoint = "http://localhost:8080/api/generate"
	}

	cmd.Flags().StringVarP(&opts.endpoint, "endpoint", "e", defaultEndpoint, "Proxy endpoint URL")
	cmd.Flags().StringVarP(&opts.jobFile, "job", "j", "", "Path to the job description, - for stdin")
	cmd.Flags().StringVarP(&opts.cvFile, "resume", "r", "", "Path to the resume, - for stdin")
	cmd.Flags().StringVar(&opts.vibe, "vibe", string(models.VibeProfessional), "Tone of the assessment")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Give up after this long, 0 waits forever")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log request details to stderr")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("resume")

	return cmd
}

func runAssess(ctx context.Context, opts *assessOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	if opts.jobFile == "-" && opts.cvFile == "-" {
		return fmt.Errorf("only one of --job and --resume can read stdin")
	}

	jobDescription, err := readInput(opts.jobFile, stdin)
	if err != nil {
		return fmt.Errorf("failed to read job description: %w", err)
	}
	resume, err := readInput(opts.cvFile, stdin)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	form := assessment.NewForm()
	form.SetJobDescription(jobDescription)
	form.SetResume(resume)
	form.SetVibe(models.ParseVibe(opts.vibe))

	printer := &terminalView{w: stdout}
	form.Observe(printer)

	acc := assessment.NewAccumulator(opts.endpoint, logger)
	if err := acc.Submit(ctx, form); err != nil {
		return err
	}
	return printer.err
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// terminalView writes the text that each change adds to the assessment.
type terminalView struct {
	w io.Writer

	mu      sync.Mutex
	printed int
	err     error
}

func (v *terminalView) Changed(s assessment.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(s.Assessment) < v.printed {
		v.printed = 0
	}
	if len(s.Assessment) == v.printed || v.err != nil {
		return
	}
	_, v.err = io.WriteString(v.w, s.Assessment[v.printed:])
	v.printed = len(s.Assessment)
}

func (v *terminalView) Finished(s assessment.Snapshot, _ error) {
	v.Changed(s)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.printed > 0 && v.err == nil {
		_, v.err = io.WriteString(v.w, "\n")
	}
}
