package voice

import "testing"

func TestGateSingleSlot(t *testing.T) {
	g := NewGate()

	if !g.TryAcquire() {
		t.Fatalf("first TryAcquire() = false, want true")
	}
	if g.TryAcquire() {
		t.Fatalf("second TryAcquire() = true, want false while held")
	}
	if !g.Held() {
		t.Fatalf("Held() = false, want true")
	}

	g.Release()
	if g.Held() {
		t.Fatalf("Held() = true after Release, want false")
	}
	if !g.TryAcquire() {
		t.Fatalf("TryAcquire() after Release = false, want true")
	}
}

func TestGateReleaseWithoutAcquireIsNoOp(t *testing.T) {
	g := NewGate()
	g.Release()
	g.Release()
	if !g.TryAcquire() {
		t.Fatalf("TryAcquire() = false after redundant releases, want true")
	}
	g.Release()
	g.Release()
	if g.Held() {
		t.Fatalf("Held() = true, want false")
	}
}
