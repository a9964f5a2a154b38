package vec

// Bounds описывает прямоугольное игровое поле [0,Width]×[0,Height]
type Bounds struct {
	Width  float64 `json:"width" yaml:"width" msgpack:"w"`
	Height float64 `json:"height" yaml:"height" msgpack:"h"`
}

// Center возвращает центр поля
func (b Bounds) Center() Vec2Float {
	return Vec2Float{X: b.Width / 2, Y: b.Height / 2}
}

// Contains проверяет, лежит ли точка внутри поля (границы включительно)
func (b Bounds) Contains(p Vec2Float) bool {
	return p.X >= 0 && p.X <= b.Width && p.Y >= 0 && p.Y <= b.Height
}

// ClampCircle прижимает круг радиуса r к границам поля
func (b Bounds) ClampCircle(p Vec2Float, r float64) Vec2Float {
	if p.X-r < 0 {
		p.X = r
	}
	if p.X+r > b.Width {
		p.X = b.Width - r
	}
	if p.Y-r < 0 {
		p.Y = r
	}
	if p.Y+r > b.Height {
		p.Y = b.Height - r
	}
	return p
}
