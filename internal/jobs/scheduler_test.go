package jobs

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestStopWaitsForRunningJob(t *testing.T) {
	s := NewScheduler(nil, zerolog.Nop())

	started := make(chan struct{})
	release := make(chan struct{})
	if _, err := s.cron.AddFunc("* * * * * *", func() {
		close(started)
		<-release
	}); err != nil {
		t.Fatalf("add job: %v", err)
	}
	s.cron.Start()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never fired")
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("stop returned while a job was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after the job finished")
	}
}

func TestStopWithoutJobsReturnsPromptly(t *testing.T) {
	s := NewScheduler(nil, zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	begin := time.Now()
	s.Stop()
	if elapsed := time.Since(begin); elapsed > time.Second {
		t.Fatalf("idle stop took %s", elapsed)
	}
}
