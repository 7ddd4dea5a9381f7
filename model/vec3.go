package model

import "math"

// Vec3 is a Cartesian position, used for subsatellite track points in
// kilometres ECEF.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean length.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}
