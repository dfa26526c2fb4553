package simulado

import "testing"

func TestAnswerStore(t *testing.T) {
	s := NewAnswerStore()

	if _, ok := s.Get("q1"); ok {
		t.Fatal("expected q1 to be unanswered")
	}

	s.Set("q1", "A")
	s.Set("q2", "B")
	s.Set("q1", "C")

	if v, ok := s.Get("q1"); !ok || v != "C" {
		t.Errorf("Get(q1) = %q, %v; want C, true", v, ok)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	snap := s.Snapshot()
	snap["q1"] = "mutated"
	if v, _ := s.Get("q1"); v != "C" {
		t.Errorf("snapshot mutation leaked into store: %q", v)
	}
}

func TestAnswerStoreAcceptsFreeText(t *testing.T) {
	s := NewAnswerStore()
	s.Set("q1", "not one of the options")
	if v, ok := s.Get("q1"); !ok || v != "not one of the options" {
		t.Errorf("Get(q1) = %q, %v", v, ok)
	}
}
