// Package kalman implements the pursuer's state estimator: a linear
// constant-velocity Kalman filter over [px, py, vx, vy] with position-only
// measurements.
//
// Responsibilities: building the A, B, H, Q, R model from a time step and
// noise levels, the predict and correct steps, and keeping P symmetric
// positive semi-definite across many ticks.
// Key types: Filter, Params, and the fixed-size Mat2/Mat4/Mat4x2/Mat2x4.
//
// The package knows nothing about world boundaries, targets or rendering.
package kalman
