package kernel

// Matrix is a 3×3 affine transform stored as its six free row-major
// coefficients (a, b, c, d, e, f); the implicit bottom row is always
// [0, 0, 1]:
//
//	| a b c |   | x |
//	| d e f | · | y |
//	| 0 0 1 |   | 1 |
type Matrix struct {
	A, B, C, D, E, F float64
}

// identityMatrix is the no-op transform.
var identityMatrix = Matrix{A: 1, E: 1}

// FromFloats builds a Matrix from the row-major six-float encoding
// used by the external calibration configuration surface.
func FromFloats(f [6]float64) Matrix {
	return Matrix{A: f[0], B: f[1], C: f[2], D: f[3], E: f[4], F: f[5]}
}

// ToFloats returns m's row-major six-float encoding.
func (m Matrix) ToFloats() [6]float64 {
	return [6]float64{m.A, m.B, m.C, m.D, m.E, m.F}
}

// IsIdentity reports whether m is bit-exactly the identity transform.
func (m Matrix) IsIdentity() bool {
	return m == identityMatrix
}

// Multiply returns m · other, composing so that applying the result
// to a point is equivalent to applying other first, then m.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// Apply transforms the integer device coordinate (x, y) through m,
// returning sub-pixel doubles; the result is never rounded back to
// an integer.
func (m Matrix) Apply(x, y int32) (float64, float64) {
	var fx, fy = float64(x), float64(y)

	return m.A*fx + m.B*fy + m.C, m.D*fx + m.E*fy + m.F
}

// normalize returns the matrix mapping device coordinates in
// [min, min+span) to the unit square, i.e. translate by −min then
// scale by 1/span.
func normalize(min, span float64) Matrix {
	var scale, translate Matrix

	scale = Matrix{A: 1 / span, E: 1 / span}
	translate = Matrix{A: 1, E: 1, C: -min, F: -min}

	return scale.Multiply(translate)
}

// unnormalize is the inverse of normalize: scale by span, then
// translate by min.
func unnormalize(min, span float64) Matrix {
	var scale, translate Matrix

	scale = Matrix{A: span, E: span}
	translate = Matrix{A: 1, E: 1, C: min, F: min}

	return translate.Multiply(scale)
}

// composeCalibration computes Unnormalize · user · Normalize for a
// device whose X axis spans [minX, minX+spanX) and Y axis spans
// [minY, minY+spanY).
func composeCalibration(user Matrix, minX, spanX, minY, spanY float64) Matrix {
	var (
		nx, ny = normalize(minX, spanX), normalize(minY, spanY)
		ux, uy = unnormalize(minX, spanX), unnormalize(minY, spanY)
		n, u   Matrix
	)

	n = Matrix{A: nx.A, C: nx.C, E: ny.A, F: ny.C}
	u = Matrix{A: ux.A, C: ux.C, E: uy.A, F: uy.C}

	return u.Multiply(user).Multiply(n)
}
