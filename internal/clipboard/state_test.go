package clipboard

import "testing"

func TestZeroStateShowsDefault(t *testing.T) {
	var s State
	if s.Status != Idle || s.Current() != DefaultAffordance {
		t.Errorf("zero state = %+v", s)
	}
}

func TestCopiedCapturesCurrentLook(t *testing.T) {
	custom := Affordance{Label: "Copy", Background: "#000000"}
	s := State{Affordance: custom}

	copied := s.Copied()
	if copied.Current() != CopiedAffordance {
		t.Fatalf("copied look = %+v", copied.Current())
	}

	reverted, ok := copied.Revert(copied.Generation)
	if !ok {
		t.Fatal("revert rejected")
	}
	if reverted.Current() != custom {
		t.Errorf("reverted to %+v, want %+v", reverted.Current(), custom)
	}
}

func TestRevertWithStaleGeneration(t *testing.T) {
	first := State{}.Copied()
	second := first.Copied()

	if _, ok := second.Revert(first.Generation); ok {
		t.Error("stale generation reverted the newer copy")
	}
	reverted, ok := second.Revert(second.Generation)
	if !ok || reverted.Current() != DefaultAffordance {
		t.Errorf("revert = %+v, %v", reverted, ok)
	}
}

func TestRevertWhenIdle(t *testing.T) {
	s := State{}.Reset()
	if _, ok := s.Revert(s.Generation); ok {
		t.Error("revert applied to an idle control")
	}
}

func TestResetBumpsGeneration(t *testing.T) {
	copied := State{}.Copied()
	reset := copied.Reset()
	if reset.Generation <= copied.Generation {
		t.Errorf("generation %d not bumped past %d", reset.Generation, copied.Generation)
	}
	if _, ok := reset.Revert(copied.Generation); ok {
		t.Error("revert applied after reset")
	}
}
