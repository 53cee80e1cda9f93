package stage

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// QuatFromEuler builds an orientation from euler radians, applied in
// X, Y, Z order. All euler handling in this package goes through this
// function and EulerFromQuat so the two stay inverses of each other.
func QuatFromEuler(rad mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(rad.X(), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(rad.Y(), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(rad.Z(), mgl64.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz).Normalize()
}

// QuatFromEulerDegrees is QuatFromEuler over author-facing degrees.
func QuatFromEulerDegrees(deg mgl64.Vec3) mgl64.Quat {
	return QuatFromEuler(Radians(deg))
}

// EulerFromQuat extracts X, Y, Z euler radians from an orientation,
// inverting QuatFromEuler. The Y=±90° gimbal case collapses onto the X
// axis, which is fine for the spawn-pose conversions this feeds.
func EulerFromQuat(q mgl64.Quat) mgl64.Vec3 {
	m := q.Normalize().Mat4()

	sy := m.At(0, 2)
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	y := math.Asin(sy)

	if math.Abs(sy) > 0.9999999 {
		x := math.Atan2(m.At(1, 0), m.At(1, 1))
		return mgl64.Vec3{x, y, 0}
	}
	x := math.Atan2(-m.At(1, 2), m.At(2, 2))
	z := math.Atan2(-m.At(0, 1), m.At(0, 0))
	return mgl64.Vec3{x, y, z}
}

// Radians converts a degrees vector to radians.
func Radians(deg mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.DegToRad(deg.X()),
		mgl64.DegToRad(deg.Y()),
		mgl64.DegToRad(deg.Z()),
	}
}

// ComposeChild poses a child attached to a parent without a scene-graph
// link: the local offset is rotated through the parent's world orientation
// and added to the parent's world position, and the offset orientation is
// composed on the right so the child inherits the parent's rotation.
func ComposeChild(parentPos mgl64.Vec3, parentRot mgl64.Quat, offset mgl64.Vec3, offsetRot mgl64.Quat) (mgl64.Vec3, mgl64.Quat) {
	pos := parentPos.Add(parentRot.Rotate(offset))
	rot := parentRot.Mul(offsetRot).Normalize()
	return pos, rot
}

// TRS packs position, orientation and scale into one column-major 4x4.
// Writing the composed matrix in a single call sidesteps euler-order
// ambiguity at the runtime boundary.
func TRS(pos mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3) mgl64.Mat4 {
	t := mgl64.Translate3D(pos.X(), pos.Y(), pos.Z())
	s := mgl64.Scale3D(scale.X(), scale.Y(), scale.Z())
	return t.Mul4(rot.Mat4()).Mul4(s)
}
