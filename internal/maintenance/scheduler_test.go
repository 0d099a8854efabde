package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/specialist-gateway/gateway/internal/promptregistry"
	"github.com/specialist-gateway/gateway/internal/stickysession"
)

func TestNewRejectsInvalidCronExpression(t *testing.T) {
	prompts := promptregistry.New(t.TempDir(), nil, nil, false, false)
	sessions := stickysession.New(4, 16)

	if _, err := New("not a cron expression", prompts, sessions, nil); err == nil {
		t.Fatal("expected an error for a malformed cron expression")
	}
}

func TestSchedulerRunsSweepsOnEveryMinuteSchedule(t *testing.T) {
	prompts := promptregistry.New(t.TempDir(), []string{"orchestrator"},
		map[string]string{"orchestrator": "hello"}, false, false)
	sessions := stickysession.New(4, 16)

	sched, err := New("* * * * *", prompts, sessions, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// runAll is exercised directly; the ticker loop itself only schedules
	// calls to it, and a real one-minute wait doesn't belong in a unit test.
	sched.runAll(context.Background())
}

func TestStartStopIsIdempotentAndDoesNotBlock(t *testing.T) {
	prompts := promptregistry.New(t.TempDir(), nil, nil, false, false)
	sessions := stickysession.New(4, 16)
	sched, err := New("* * * * *", prompts, sessions, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start(ctx)
	sched.Start(ctx) // second call must be a no-op, not a second goroutine

	done := make(chan struct{})
	go func() {
		sched.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return promptly")
	}
}
