package kalman

import (
	"errors"
	"fmt"

	"github.com/banshee-data/pursuit/internal/vec"
)

// Numerical stability constants, not user-tunable.
const (
	// SingularTolerance is the smallest |det(S)| accepted, relative to the
	// magnitude of the products it is formed from, before the innovation
	// covariance is treated as singular.
	SingularTolerance = 1e-12
)

// ErrSingularInnovation is returned by Update when the innovation covariance
// S = H·P·Hᵀ + R cannot be inverted. The filter state is left untouched.
var ErrSingularInnovation = errors.New("kalman: singular innovation covariance")

// ErrNonFinite is returned by Update when the measurement, or the belief it
// would produce, holds a NaN or infinity. The filter state is left untouched.
var ErrNonFinite = errors.New("kalman: non-finite value")

// Params configures a constant-velocity filter.
type Params struct {
	Dt       float64 // Time step (seconds) of one predict
	ControlX float64 // Constant acceleration bias, x
	ControlY float64 // Constant acceleration bias, y
	StdAcc   float64 // Process (acceleration) noise standard deviation
	StdMeasX float64 // Measurement noise standard deviation, x
	StdMeasY float64 // Measurement noise standard deviation, y
}

// Filter is a constant-velocity Kalman filter over the state [px, py, vx, vy]
// observed through position only. It is not safe for concurrent use; callers
// serialise Predict and Update per tick.
type Filter struct {
	params Params

	// Model matrices, constant for the filter lifetime.
	a Mat4   // State transition
	b Mat4x2 // Control
	h Mat2x4 // Measurement
	q Mat4   // Process noise covariance
	r Mat2   // Measurement noise covariance
	u Vec2   // Control input

	// Belief.
	x Vec4 // State estimate
	p Mat4 // Estimate covariance

	innovation Vec2 // Residual z - H·x of the most recent successful Update
}

// New builds a filter from p with x = 0 and P = I.
func New(p Params) *Filter {
	dt := p.Dt
	dt2 := dt * dt
	dt3 := dt2 * dt
	dt4 := dt3 * dt
	varAcc := p.StdAcc * p.StdAcc

	f := &Filter{
		params: p,
		// A = [1 0 dt 0; 0 1 0 dt; 0 0 1 0; 0 0 0 1]
		a: Mat4{
			1, 0, dt, 0,
			0, 1, 0, dt,
			0, 0, 1, 0,
			0, 0, 0, 1,
		},
		b: Mat4x2{
			dt2 / 2, 0,
			0, dt2 / 2,
			dt, 0,
			0, dt,
		},
		h: Mat2x4{
			1, 0, 0, 0,
			0, 1, 0, 0,
		},
		q: Mat4{
			dt4 / 4, 0, dt3 / 2, 0,
			0, dt4 / 4, 0, dt3 / 2,
			dt3 / 2, 0, dt2, 0,
			0, dt3 / 2, 0, dt2,
		}.Scale(varAcc),
		r: Mat2{
			p.StdMeasX * p.StdMeasX, 0,
			0, p.StdMeasY * p.StdMeasY,
		},
		u: Vec2{p.ControlX, p.ControlY},
	}
	f.Reset()
	return f
}

// Reset returns the belief to x = 0, P = I.
func (f *Filter) Reset() {
	f.x = Vec4{}
	f.p = Identity4()
	f.innovation = Vec2{}
}

// Predict propagates the belief one step: x ← A·x + B·u, P ← A·P·Aᵀ + Q.
// It returns the predicted position.
func (f *Filter) Predict() vec.Vec2 {
	f.x = f.a.MulVec(f.x)
	bu := f.b.MulVec(f.u)
	for i := range f.x {
		f.x[i] += bu[i]
	}

	f.p = f.a.Mul(f.p).Mul(f.a.T()).Add(f.q).Symmetrize()

	return f.Position()
}

// Update corrects the belief against a position measurement z and returns
// the corrected position. When S is singular the belief is unchanged and the
// error wraps ErrSingularInnovation; a non-finite measurement or result
// likewise leaves it unchanged and wraps ErrNonFinite.
func (f *Filter) Update(z vec.Vec2) (vec.Vec2, error) {
	if !finite(z.X, z.Y) {
		return f.Position(), fmt.Errorf("%w: measurement (%g, %g)", ErrNonFinite, z.X, z.Y)
	}
	ht := f.h.T()

	// S = H·P·Hᵀ + R
	s := f.h.MulMat4(f.p).MulMat4x2(ht).Add(f.r)
	sInv, ok := s.Inverse()
	if !ok {
		return f.Position(), fmt.Errorf("%w: det(S)=%g", ErrSingularInnovation, s.Det())
	}

	// K = P·Hᵀ·S⁻¹
	k := f.p.MulMat4x2(ht).MulMat2(sInv)

	// x ← x + K·(z − H·x)
	hx := f.h.MulVec(f.x)
	y := Vec2{z.X - hx[0], z.Y - hx[1]}
	ky := k.MulVec(y)
	x := f.x
	for i := range x {
		x[i] += ky[i]
	}

	// P ← (I − K·H)·P, symmetrised against round-off drift.
	p := Identity4().Sub(k.MulMat2x4(f.h)).Mul(f.p).Symmetrize()
	if !x.IsFinite() || !p.IsFinite() {
		return f.Position(), fmt.Errorf("%w: corrected belief", ErrNonFinite)
	}
	f.x, f.p = x, p
	f.innovation = y

	return f.Position(), nil
}

// Params returns the construction parameters.
func (f *Filter) Params() Params { return f.params }

// State returns the state estimate [px, py, vx, vy].
func (f *Filter) State() Vec4 { return f.x }

// SetState overwrites the state estimate, leaving P unchanged.
func (f *Filter) SetState(x Vec4) { f.x = x }

// Covariance returns the estimate covariance P.
func (f *Filter) Covariance() Mat4 { return f.p }

// Position returns the position components of the state estimate.
func (f *Filter) Position() vec.Vec2 { return vec.New(f.x[0], f.x[1]) }

// Velocity returns the velocity components of the state estimate.
func (f *Filter) Velocity() vec.Vec2 { return vec.New(f.x[2], f.x[3]) }

// LastInnovation returns the measurement residual of the most recent
// successful Update.
func (f *Filter) LastInnovation() vec.Vec2 { return vec.New(f.innovation[0], f.innovation[1]) }
