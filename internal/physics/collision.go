package physics

import (
	"github.com/annel0/ufo-survivor/internal/vec"
)

// ProximityTolerance — допуск в одну единицу для всех проверок контакта кругов.
// Почти-касание тоже считается контактом.
const ProximityTolerance = 1.0

// Touching проверяет контакт двух кругов: distance − r1 − r2 < ProximityTolerance
func Touching(c1 vec.Vec2Float, r1 float64, c2 vec.Vec2Float, r2 float64) bool {
	return c1.DistanceTo(c2)-r1-r2 < ProximityTolerance
}

// Pursue возвращает смещение длины speed от from к to.
// При нулевом расстоянии направления нет, смещение нулевое.
func Pursue(from, to vec.Vec2Float, speed float64) vec.Vec2Float {
	if from == to {
		return vec.Vec2Float{}
	}
	return vec.FromAngle(from.AngleTo(to), speed)
}
