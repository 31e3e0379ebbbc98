package frame_test

import (
	"errors"
	"strings"
	"testing"

	"strata/pkg/frame"
	"strata/pkg/source"
)

func TestShadowing(t *testing.T) {
	f := frame.New("fn")

	if err := f.Define("x", 1); err != nil {
		t.Fatalf("define: %v", err)
	}

	f.EnterScope("block")
	if err := f.Define("x", 2); err != nil {
		t.Fatalf("define inner: %v", err)
	}

	v, err := f.Lookup("x")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if v != 2 {
		t.Errorf("inner scope should win, got %v", v)
	}

	if err := f.ExitScope(); err != nil {
		t.Fatalf("exit: %v", err)
	}

	v, err = f.Lookup("x")
	if err != nil {
		t.Fatalf("lookup after exit: %v", err)
	}
	if v != 1 {
		t.Errorf("outer binding should be visible again, got %v", v)
	}
}

func TestExitScopePropagatesValue(t *testing.T) {
	f := frame.New("A")
	f.EnterScope("B")

	if err := f.Push("v"); err != nil {
		t.Fatalf("push: %v", err)
	}

	if err := f.ExitScope(); err != nil {
		t.Fatalf("exit: %v", err)
	}

	if f.Depth() != 1 {
		t.Fatalf("expected one scope left, got %d", f.Depth())
	}

	v, ok := f.Peek()
	if !ok || v != "v" {
		t.Errorf("value should have propagated to A, got %v (ok=%v)", v, ok)
	}
}

func TestExitLastScopeDiscardsValue(t *testing.T) {
	f := frame.New("A")

	if err := f.Push("v"); err != nil {
		t.Fatalf("push: %v", err)
	}

	if err := f.ExitScope(); err != nil {
		t.Errorf("exiting the last scope must not fail: %v", err)
	}

	if f.Depth() != 0 {
		t.Errorf("expected no scopes, got %d", f.Depth())
	}
}

func TestExitScopeDiscardingValue(t *testing.T) {
	f := frame.New("A")
	f.EnterScope("B")

	if err := f.Push("v"); err != nil {
		t.Fatalf("push: %v", err)
	}

	if err := f.ExitScopeDiscardingValue(); err != nil {
		t.Fatalf("exit: %v", err)
	}

	if _, ok := f.Peek(); ok {
		t.Error("discarding exit must not propagate a value")
	}
}

func TestExitScopeOnSpentFrame(t *testing.T) {
	f := frame.New("A")

	if err := f.ExitScope(); err != nil {
		t.Fatalf("first exit: %v", err)
	}

	if err := f.ExitScope(); !errors.Is(err, frame.ErrNoScope) {
		t.Errorf("expected ErrNoScope, got %v", err)
	}
}

func TestUnresolvedLookupIsFatal(t *testing.T) {
	f := frame.New("fn")

	if _, err := f.Lookup("ghost"); !errors.Is(err, frame.ErrUnresolvedVariable) {
		t.Errorf("expected ErrUnresolvedVariable, got %v", err)
	}
}

func TestAssignIsStrictLikeLookup(t *testing.T) {
	f := frame.New("fn")

	if err := f.Assign("ghost", 1); !errors.Is(err, frame.ErrUnresolvedVariable) {
		t.Errorf("expected ErrUnresolvedVariable, got %v", err)
	}
}

func TestAssignWritesNearestScope(t *testing.T) {
	f := frame.New("fn")
	f.Define("x", 1)
	f.Define("y", 10)

	f.EnterScope("block")
	f.Define("x", 2)

	if err := f.Assign("x", 3); err != nil {
		t.Fatalf("assign x: %v", err)
	}
	if err := f.Assign("y", 20); err != nil {
		t.Fatalf("assign y: %v", err)
	}

	if v, _ := f.Lookup("x"); v != 3 {
		t.Errorf("inner x: expected 3, got %v", v)
	}

	if err := f.ExitScope(); err != nil {
		t.Fatalf("exit: %v", err)
	}

	if v, _ := f.Lookup("x"); v != 1 {
		t.Errorf("outer x must be untouched, got %v", v)
	}
	if v, _ := f.Lookup("y"); v != 20 {
		t.Errorf("outer y: expected 20, got %v", v)
	}
}

func TestCaptureAliasing(t *testing.T) {
	f := frame.New("fn")

	slot := frame.NewSlot(1)
	if err := f.DefineSlot("x", slot); err != nil {
		t.Fatalf("define: %v", err)
	}

	captured := make(map[frame.Ident]*frame.Slot)
	f.CaptureInto(captured)

	// mutation through the frame is visible through the capture
	if err := f.Assign("x", 2); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if v, _ := captured["x"].Get(); v != 2 {
		t.Errorf("capture should observe the write, got %v", v)
	}

	// mutation through the capture is visible through the frame
	captured["x"].Set(3)
	if v, _ := f.Lookup("x"); v != 3 {
		t.Errorf("frame should observe the capture write, got %v", v)
	}
}

func TestCaptureInnerScopeWins(t *testing.T) {
	f := frame.New("fn")
	f.Define("x", 1)

	f.EnterScope("block")
	f.Define("x", 2)

	captured := make(map[frame.Ident]*frame.Slot)
	f.CaptureInto(captured)

	v, _ := captured["x"].Get()
	if v != 2 {
		t.Errorf("innermost binding should win in capture, got %v", v)
	}
}

func TestMergeDoesNotClobberTarget(t *testing.T) {
	src := frame.New("caller")
	src.Define("x", 1)
	src.Define("y", 2)

	dst := frame.New("callee")
	dst.Define("x", 100) // the callee's own parameter

	if err := src.MergeInto(dst); err != nil {
		t.Fatalf("merge: %v", err)
	}

	if v, _ := dst.Lookup("x"); v != 100 {
		t.Errorf("merge must not overwrite target binding, got %v", v)
	}
	if v, _ := dst.Lookup("y"); v != 2 {
		t.Errorf("merge should add missing bindings, got %v", v)
	}
}

func TestMergeInnerScopeWins(t *testing.T) {
	src := frame.New("caller")
	src.Define("x", 1)

	src.EnterScope("block")
	src.Define("x", 2)

	dst := frame.New("callee")
	if err := src.MergeInto(dst); err != nil {
		t.Fatalf("merge: %v", err)
	}

	if v, _ := dst.Lookup("x"); v != 2 {
		t.Errorf("inner binding should win among merged ones, got %v", v)
	}
}

func TestMergeSharesSlots(t *testing.T) {
	src := frame.New("caller")
	src.Define("x", 1)

	dst := frame.New("callee")
	if err := src.MergeInto(dst); err != nil {
		t.Fatalf("merge: %v", err)
	}

	if err := dst.Assign("x", 9); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if v, _ := src.Lookup("x"); v != 9 {
		t.Errorf("merge must share slots, source sees %v", v)
	}
}

func TestFrameQueueDelegation(t *testing.T) {
	f := frame.New("fn")

	if f.HasPending() {
		t.Error("fresh frame has no pending work")
	}

	if err := f.ScheduleNext(testIn{name: "I1"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := f.ScheduleNext(testIn{name: "I2"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if !f.HasPending() {
		t.Error("frame should have pending work")
	}

	in, err := f.TakeNext()
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if in.(testIn).name != "I2" {
		t.Errorf("expected I2 first, got %v", in)
	}
}

func TestHasPendingWithNestedScopes(t *testing.T) {
	f := frame.New("fn")
	f.EnterScope("block")

	// two scopes, no queued work: the frame is still mid-flight
	if !f.HasPending() {
		t.Error("a frame with nested scopes is not exhausted")
	}

	if err := f.ExitScope(); err != nil {
		t.Fatalf("exit: %v", err)
	}

	if f.HasPending() {
		t.Error("single empty scope means exhausted")
	}
}

func TestCurrentPositionWithoutSource(t *testing.T) {
	f := frame.New("fn")

	if got := f.CurrentPosition(); got != frame.PositionUnavailable {
		t.Errorf("expected %q, got %q", frame.PositionUnavailable, got)
	}
}

func TestCurrentPositionAndDescribe(t *testing.T) {
	f := frame.New("fn",
		frame.WithSource(source.NewFile("lib/sample.st")),
		frame.WithFunction("sample.main"))

	if err := f.ScheduleNext(testIn{name: "I1", line: 7}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := f.TakeNext(); err != nil {
		t.Fatalf("take: %v", err)
	}

	if got := f.CurrentPosition(); got != "sample.st:7" {
		t.Errorf("position: expected sample.st:7, got %q", got)
	}

	want := "at sample.main(sample.st:7)"
	if got := f.Describe(); got != want {
		t.Errorf("describe: expected %q, got %q", want, got)
	}
}

func TestDescribeAnonymous(t *testing.T) {
	f := frame.New("fn")

	if got := f.Describe(); !strings.Contains(got, "<anonymous>") {
		t.Errorf("expected anonymous marker, got %q", got)
	}
}
