package model

import "math"

// Vec3 is a position or velocity in world units.
// Value type, passed by value (immutable).
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// NewVec3 creates Vec3 with the given components.
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale multiplies each component by its own factor.
func (v Vec3) Scale(x, y, z float64) Vec3 {
	return Vec3{X: v.X * x, Y: v.Y * y, Z: v.Z * z}
}

// Mul multiplies every component by f.
func (v Vec3) Mul(f float64) Vec3 {
	return v.Scale(f, f, f)
}

// Horizontal drops the vertical component.
func (v Vec3) Horizontal() Vec3 {
	return Vec3{X: v.X, Z: v.Z}
}

// LenSquared returns the squared length (no sqrt for hot paths).
func (v Vec3) LenSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Len returns the vector length.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.LenSquared())
}

// Normalize returns the unit vector; the zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-9 {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// DistanceSquared returns squared distance to another point.
func (v Vec3) DistanceSquared(o Vec3) float64 {
	return v.Sub(o).LenSquared()
}

// DistanceTo returns distance to another point.
func (v Vec3) DistanceTo(o Vec3) float64 {
	return math.Sqrt(v.DistanceSquared(o))
}

// WithinBox reports whether p lies inside the axis-aligned box centred on v
// with the given half extents.
func (v Vec3) WithinBox(p, half Vec3) bool {
	return math.Abs(p.X-v.X) <= half.X &&
		math.Abs(p.Y-v.Y) <= half.Y &&
		math.Abs(p.Z-v.Z) <= half.Z
}
