package scene

import (
	"math"
	"testing"
)

func TestSnapshotEqualIsReflexive(t *testing.T) {
	cam := NewCamera(45)
	cam.SetupProjection(4.0 / 3.0)

	snap := cam.Snapshot()
	if !snap.Equal(snap) {
		t.Fatal("expected snapshot to equal itself")
	}

	snap.Transform[5] = float32(math.NaN())
	if !snap.Equal(snap) {
		t.Fatal("expected snapshot with NaN entries to equal itself")
	}
}

func TestSnapshotDetectsSingleScalarChange(t *testing.T) {
	cam := NewCamera(45)
	cam.SetupProjection(1.5)
	base := cam.Snapshot()

	for i := 0; i < 16; i++ {
		changed := base
		changed.Transform[i] += 0.001
		if base.Equal(changed) {
			t.Fatalf("expected change in transform entry %d to be detected", i)
		}
	}

	changed := base
	changed.FOV++
	if base.Equal(changed) {
		t.Fatal("expected fov change to be detected")
	}

	changed = base
	changed.Aspect *= 2
	if base.Equal(changed) {
		t.Fatal("expected aspect change to be detected")
	}
}

func TestCameraMoveChangesSnapshot(t *testing.T) {
	cam := NewCamera(60)
	cam.SetupProjection(1)
	before := cam.Snapshot()

	cam.Move(Forward, 0.5)
	after := cam.Snapshot()
	if before.Equal(after) {
		t.Fatal("expected camera move to change snapshot")
	}

	// The world transform translation column holds the eye position.
	if math.Abs(float64(after.Transform[14]-cam.Position[2])) > 1e-5 {
		t.Fatalf("expected transform z translation %f; got %f", cam.Position[2], after.Transform[14])
	}

	cam.Move(Backward, 0.5)
	if math.Abs(float64(cam.Position[2])) > 1e-5 {
		t.Fatalf("expected camera to return to origin; got %v", cam.Position)
	}
}

func TestCameraYawKeepsDistance(t *testing.T) {
	cam := NewCamera(60)
	cam.Yaw = 0.3
	cam.Update()

	if cam.Yaw != 0 || cam.Pitch != 0 {
		t.Fatal("expected pending yaw/pitch to be consumed by Update")
	}
	dist := cam.LookAt.Sub(cam.Position).Len()
	if math.Abs(float64(dist-1)) > 1e-4 {
		t.Fatalf("expected look-at distance 1; got %f", dist)
	}
}
