package math

import "github.com/chewxy/math32"

// Pi as a float32.
const Pi float32 = math32.Pi

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 {
	return deg * math32.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float32) float32 {
	return rad * 180 / math32.Pi
}

// TurnsToRad converts a fraction of a full turn (0..1) to radians.
func TurnsToRad(turns float32) float32 {
	return DegToRad(360 * turns)
}
