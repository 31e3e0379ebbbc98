package frame_test

import (
	"errors"
	"testing"

	"strata/pkg/frame"
)

func TestStackLIFO(t *testing.T) {
	s := frame.NewDataStack()

	values := []int{1, 2, 3, 4, 5}
	for _, v := range values {
		s.Push(v)
	}

	if s.Size() != len(values) {
		t.Fatalf("size: expected %d, got %d", len(values), s.Size())
	}

	for i := len(values) - 1; i >= 0; i-- {
		v, err := s.Pop()
		if err != nil {
			t.Fatalf("pop %d: unexpected error %v", i, err)
		}
		if v != values[i] {
			t.Errorf("pop: expected %d, got %v", values[i], v)
		}
	}

	if s.Size() != 0 {
		t.Errorf("expected empty stack, size %d", s.Size())
	}
}

func TestStackUnderflow(t *testing.T) {
	s := frame.NewDataStack()

	if _, err := s.Pop(); !errors.Is(err, frame.ErrStackUnderflow) {
		t.Errorf("expected ErrStackUnderflow, got %v", err)
	}
}

func TestStackPeek(t *testing.T) {
	s := frame.NewDataStack()

	if _, ok := s.Peek(); ok {
		t.Error("peek on empty stack should report no value")
	}

	s.Push("a")
	s.Push("b")

	v, ok := s.Peek()
	if !ok || v != "b" {
		t.Errorf("peek: expected b, got %v (ok=%v)", v, ok)
	}

	if s.Size() != 2 {
		t.Errorf("peek must not remove: size %d", s.Size())
	}
}

func TestStackSeedValues(t *testing.T) {
	s := frame.NewDataStack(1, 2)

	v, err := s.Pop()
	if err != nil || v != 2 {
		t.Errorf("expected 2, got %v (err=%v)", v, err)
	}
}
