// Package console runs an interview in the terminal. Answers come from a
// server-side AudioSource (drop directory, HTTP upload or microphone).
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"interview-assistant/internal/application"
	"interview-assistant/internal/domain"
)

// ErrAbandoned is returned when the candidate declines to retry a failed step.
var ErrAbandoned = errors.New("interview abandoned")

type Console struct {
	controller *application.Controller
	source     application.AudioSource
	in         *bufio.Reader
	out        io.Writer
	logger     *slog.Logger
	now        func() time.Time
}

func New(controller *application.Controller, source application.AudioSource, in io.Reader, out io.Writer, logger *slog.Logger) *Console {
	return &Console{
		controller: controller,
		source:     source,
		in:         bufio.NewReader(in),
		out:        out,
		logger:     logger,
		now:        time.Now,
	}
}

// Run walks one candidate through the whole interview. It returns nil once
// the summary has been printed. A fatal controller error is returned as is.
func (c *Console) Run(ctx context.Context) error {
	c.logger.Info("starting audio source", "source", c.source.Name())
	if err := c.source.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer c.source.Stop()

	s := domain.NewSession(c.now())

	if err := c.start(ctx, s); err != nil {
		return err
	}

	c.printf("\n%s\n", s.Greeting)

	for !s.Complete() {
		if err := ctx.Err(); err != nil {
			return err
		}

		question, _ := s.CurrentQuestion()
		c.printf("\nQuestion %d / %d\n%s\n", s.Index+1, s.Total(), question)

		if s.State == domain.StateAwaitingAnswer {
			if err := c.record(ctx, s); err != nil {
				return err
			}
		}

		record, err := c.controller.Submit(ctx, s)
		if err != nil {
			if err := c.handle(err); err != nil {
				return err
			}
			continue
		}

		transcript := record.Transcript
		if transcript == "" {
			transcript = "(no speech detected)"
		}
		c.printf("You said: %s\nScore: %s/10. %s\n", transcript, formatScore(record.Score), record.Commentary)
	}

	c.printf("\n%s\n", application.FormatSummary(s.Summary))
	return nil
}

func (c *Console) start(ctx context.Context, s *domain.Session) error {
	for {
		var in application.StartInput
		var err error

		if in.Candidate, err = c.ask("Your name: "); err != nil {
			return err
		}
		if in.Role, err = c.ask("Job title: "); err != nil {
			return err
		}
		if in.JobDescription, err = c.ask("Job description: "); err != nil {
			return err
		}
		count, err := c.ask("Number of questions (empty for default): ")
		if err != nil {
			return err
		}
		if count != "" {
			n, convErr := strconv.Atoi(count)
			if convErr != nil || n <= 0 {
				c.printf("The number of questions must be a positive number.\n")
				continue
			}
			in.Count = n
		}

		c.printf("Preparing your interview...\n")
		err = c.controller.Start(ctx, s, in)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrEmptyInput) {
			c.printf("%s\n", userMessage(err))
			continue
		}
		if err := c.handle(err); err != nil {
			return err
		}
	}
}

// record blocks until the source yields a clip and stores it. Failed saves
// are reported and the next clip is awaited.
func (c *Console) record(ctx context.Context, s *domain.Session) error {
	for {
		c.printf("Waiting for your answer (%s)...\n", c.source.Name())

		clip, err := c.source.NextClip(ctx)
		if err != nil {
			return fmt.Errorf("getting audio: %w", err)
		}

		if _, err := c.controller.Record(ctx, s, clip.ContentType, clip.Data); err != nil {
			c.printf("%s\n", userMessage(err))
			continue
		}
		c.printf("Answer recorded (%d bytes).\n", len(clip.Data))
		return nil
	}
}

// handle reports a failed step and asks whether to retry. It returns nil
// when the caller should try again.
func (c *Console) handle(err error) error {
	var stepErr *application.StepError
	if errors.As(err, &stepErr) && stepErr.Fatal() {
		c.printf("%s\n", stepErr.UserMessage())
		return err
	}

	c.logger.Warn("step failed", "error", err)
	c.printf("%s\n", userMessage(err))

	answer, readErr := c.ask("Retry? [Y/n] ")
	if readErr != nil {
		return readErr
	}
	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return nil
	default:
		return ErrAbandoned
	}
}

func (c *Console) ask(prompt string) (string, error) {
	c.printf("%s", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func userMessage(err error) string {
	var stepErr *application.StepError
	if errors.As(err, &stepErr) {
		return stepErr.UserMessage()
	}
	return "Something went wrong, please retry."
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}
