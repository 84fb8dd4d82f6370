package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/erik-esparza/rival-review/internal/config"
)

// fakeStep records that it ran and optionally fails.
type fakeStep struct {
	name string
	err  error
	ran  *[]string
}

func (s *fakeStep) Do(_ context.Context, _ *Run) error {
	*s.ran = append(*s.ran, s.name)
	return s.err
}

func (s *fakeStep) Name() string { return s.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRun() *Run {
	cfg := config.NewConfig()
	cfg.Query = "quiz"
	return NewRun(cfg)
}

// TestPipelineExecute verifies step ordering and completion tracking.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("steps run in order", func(t *testing.T) {
		t.Parallel()

		var ran []string
		p := New(WithLogger(discardLogger()))
		p.AddSteps(
			&fakeStep{name: "first", ran: &ran},
			&fakeStep{name: "second", ran: &ran},
			&fakeStep{name: "third", ran: &ran},
		)

		run := testRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"first", "second", "third"}
		if !reflect.DeepEqual(ran, want) {
			t.Errorf("expected execution order %v, got %v", want, ran)
		}
		if !reflect.DeepEqual(run.CompletedSteps, want) {
			t.Errorf("expected completed steps %v, got %v", want, run.CompletedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		var ran []string
		stepErr := errors.New("step failed")
		p := New(WithLogger(discardLogger()))
		p.AddSteps(
			&fakeStep{name: "first", ran: &ran},
			&fakeStep{name: "broken", err: stepErr, ran: &ran},
			&fakeStep{name: "unreached", ran: &ran},
		)

		run := testRun()
		if err := p.Execute(context.Background(), run); !errors.Is(err, stepErr) {
			t.Fatalf("expected step error, got %v", err)
		}
		if want := []string{"first", "broken"}; !reflect.DeepEqual(ran, want) {
			t.Errorf("expected %v to run, got %v", want, ran)
		}
	})

	t.Run("continue on error runs every step", func(t *testing.T) {
		t.Parallel()

		var ran []string
		p := New(WithLogger(discardLogger()), WithContinueOnError(true))
		p.AddSteps(
			&fakeStep{name: "broken", err: errors.New("step failed"), ran: &ran},
			&fakeStep{name: "still-runs", ran: &ran},
		)

		run := testRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("expected no error with continue-on-error, got %v", err)
		}
		if want := []string{"broken", "still-runs"}; !reflect.DeepEqual(ran, want) {
			t.Errorf("expected %v to run, got %v", want, ran)
		}
	})

	t.Run("cancelled context stops before the next step", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var ran []string
		p := New(WithLogger(discardLogger()))
		p.AddStep(&fakeStep{name: "never", ran: &ran})

		if err := p.Execute(ctx, testRun()); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(ran) != 0 {
			t.Errorf("expected no steps to run, got %v", ran)
		}
	})

	t.Run("empty pipeline succeeds", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(discardLogger()))
		if err := p.Execute(context.Background(), testRun()); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestPipelineStepNames verifies step introspection.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	var ran []string
	p := New(WithLogger(discardLogger()))
	p.AddSteps(
		&fakeStep{name: "fetch_ranking", ran: &ran},
		&fakeStep{name: "classify", ran: &ran},
	)

	if p.StepCount() != 2 {
		t.Errorf("expected 2 steps, got %d", p.StepCount())
	}
	if want := []string{"fetch_ranking", "classify"}; !reflect.DeepEqual(p.StepNames(), want) {
		t.Errorf("expected %v, got %v", want, p.StepNames())
	}
}
