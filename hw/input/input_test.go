package input_test

import (
	"testing"

	"github.com/ZacGeurts/acornarc-AI/hw/input"
)

type stubSource struct {
	calls  int
	answer int16
}

func (s *stubSource) InputState(port, device, index, id int) int16 {
	s.calls++
	return s.answer
}

func TestDrainQueriesEverySlot(t *testing.T) {
	src := &stubSource{answer: 7}
	p := input.NewPoller(src,
		input.Slot{Port: 0, Device: 1, Index: 0, ID: 0},
		input.Slot{Port: 0, Device: 1, Index: 1, ID: 0},
	)

	p.Drain()
	if src.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", src.calls)
	}
	if got := p.Value(input.Slot{Port: 0, Device: 1, Index: 0, ID: 0}); got != 7 {
		t.Errorf("expected cached value 7, got %d", got)
	}
}

func TestNilSourceLeavesValuesUntouched(t *testing.T) {
	p := input.NewPoller(nil, input.Slot{Port: 0})
	p.Drain() // must not panic
	if got := p.Value(input.Slot{Port: 0}); got != 0 {
		t.Errorf("expected zero value from an undrained slot, got %d", got)
	}
}
