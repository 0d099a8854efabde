package stickysession

import (
	"testing"

	"github.com/specialist-gateway/gateway/internal/models"
)

func TestRememberBoundsHistory(t *testing.T) {
	s := New(2, 10)
	s.Remember("sess-1", models.DomainHealth)
	s.Remember("sess-1", models.DomainParenting)
	s.Remember("sess-1", models.DomainGeneral)

	recent := s.Recent("sess-1")
	if len(recent) != 2 {
		t.Fatalf("expected history bounded to 2, got %v", recent)
	}
	if recent[0] != models.DomainParenting || recent[1] != models.DomainGeneral {
		t.Fatalf("expected FIFO eviction of oldest, got %v", recent)
	}
}

func TestLatestReflectsMostRecentRemember(t *testing.T) {
	s := New(3, 10)
	s.Remember("sess-1", models.DomainHealth)
	s.Remember("sess-1", models.DomainGeneral)

	got, ok := s.Latest("sess-1")
	if !ok || got != models.DomainGeneral {
		t.Fatalf("got %v, %v", got, ok)
	}
}

func TestEvictsLeastRecentlyUsedSessionOverCapacity(t *testing.T) {
	s := New(3, 2)
	s.Remember("sess-1", models.DomainHealth)
	s.Remember("sess-2", models.DomainHealth)
	s.Remember("sess-3", models.DomainHealth) // sess-1 is now LRU, should be evicted

	if s.Len() != 2 {
		t.Fatalf("expected 2 tracked sessions, got %d", s.Len())
	}
	if _, ok := s.Latest("sess-1"); ok {
		t.Fatalf("expected sess-1 to have been evicted")
	}
}

func TestResetForgetsSession(t *testing.T) {
	s := New(3, 10)
	s.Remember("sess-1", models.DomainHealth)
	s.Reset("sess-1")
	if _, ok := s.Latest("sess-1"); ok {
		t.Fatalf("expected session to be forgotten after reset")
	}
}
