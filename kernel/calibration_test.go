package kernel

import "testing"

func TestIdentityMatrixApply(t *testing.T) {
	var x, y = identityMatrix.Apply(100, 200)

	if x != 100 || y != 200 {
		t.Errorf("Apply(100, 200) = (%v, %v), want (100, 200)", x, y)
	}
}

func TestIdentityMatrixIsIdentity(t *testing.T) {
	if !identityMatrix.IsIdentity() {
		t.Error("identityMatrix.IsIdentity() = false, want true")
	}

	var scaled = Matrix{A: 2, E: 1}
	if scaled.IsIdentity() {
		t.Error("scaled matrix reported as identity")
	}
}

func TestFromFloatsToFloatsRoundtrip(t *testing.T) {
	var floats = [6]float64{1, 2, 3, 4, 5, 6}

	if FromFloats(floats).ToFloats() != floats {
		t.Errorf("FromFloats/ToFloats roundtrip mismatch: got %v", FromFloats(floats).ToFloats())
	}
}

func TestMatrixMultiplyIdentity(t *testing.T) {
	var (
		m      = Matrix{A: 2, B: 0, C: 5, D: 0, E: 3, F: -1}
		result = m.Multiply(identityMatrix)
	)

	if result != m {
		t.Errorf("m · identity = %+v, want %+v", result, m)
	}

	result = identityMatrix.Multiply(m)
	if result != m {
		t.Errorf("identity · m = %+v, want %+v", result, m)
	}
}

func TestComposeCalibrationIdentityUser(t *testing.T) {
	var (
		m    = composeCalibration(identityMatrix, 0, 1024, 0, 768)
		x, y = m.Apply(512, 384)
	)

	// An identity user matrix composed through normalize/unnormalize
	// must still be the identity transform on device coordinates
	// (within floating-point tolerance).
	if diff(x, 512) > 1e-9 || diff(y, 384) > 1e-9 {
		t.Errorf("Apply(512, 384) = (%v, %v), want (512, 384)", x, y)
	}
}

func TestComposeCalibrationScaleHalvesRange(t *testing.T) {
	var (
		scaleX = Matrix{A: 0.5, E: 1}
		m      = composeCalibration(scaleX, 0, 1000, 0, 1000)
		x, _   = m.Apply(1000, 0)
	)

	// Scaling the normalized X axis by 0.5 should map the axis maximum
	// to its midpoint.
	if diff(x, 500) > 1e-9 {
		t.Errorf("Apply(1000, 0).x = %v, want 500", x)
	}
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}

	return b - a
}
