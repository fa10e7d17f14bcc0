package pose

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrDegenerateFrame исходная поза имеет нулевую ширину или высоту
	ErrDegenerateFrame = errors.New("pose frame has non-positive width or height")
	// ErrInvalidDimensions целевые размеры не положительны
	ErrInvalidDimensions = errors.New("target dimensions must be positive")
)

// TransformOptions набор преобразований. Порядок применения фиксирован:
// отражение, затем масштаб, затем поворот.
type TransformOptions struct {
	Mirror   bool     `json:"mirror"`
	Scale    *Size    `json:"scale,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// Mirror отражает позу по горизонтали относительно вертикальной оси кадра.
// Значения левых и правых точек меняются местами, метки позиций сохраняются.
func Mirror(p PoseData) PoseData {
	out := p.Clone()
	for i := range p.Keypoints {
		j := MirrorPartner(i)
		if j >= len(p.Keypoints) {
			j = i
		}
		src := p.Keypoints[j]
		out.Keypoints[i] = Keypoint{
			X:          p.Width - src.X,
			Y:          src.Y,
			Confidence: src.Confidence,
			Label:      p.Keypoints[i].Label,
		}
	}
	return out
}

// Scale переводит позу в кадр новых размеров
func Scale(p PoseData, width, height float64) (PoseData, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return PoseData{}, fmt.Errorf("%w: %gx%g", ErrDegenerateFrame, p.Width, p.Height)
	}
	if width <= 0 || height <= 0 {
		return PoseData{}, fmt.Errorf("%w: %gx%g", ErrInvalidDimensions, width, height)
	}

	sx := width / p.Width
	sy := height / p.Height

	out := p.Clone()
	for i, kp := range p.Keypoints {
		out.Keypoints[i].X = kp.X * sx
		out.Keypoints[i].Y = kp.Y * sy
	}
	out.Width = width
	out.Height = height
	return out, nil
}

// Rotate поворачивает позу вокруг центра кадра на angle градусов.
// Используется стандартная матрица поворота; при оси Y, направленной вниз,
// положительный угол поворачивает позу по часовой стрелке на экране.
func Rotate(p PoseData, angle float64) PoseData {
	out := p.Clone()
	center := r2.Vec{X: p.Width / 2, Y: p.Height / 2}
	theta := angle * math.Pi / 180

	for i, kp := range p.Keypoints {
		v := r2.Rotate(r2.Vec{X: kp.X, Y: kp.Y}, theta, center)
		out.Keypoints[i].X = v.X
		out.Keypoints[i].Y = v.Y
	}
	return out
}

// Transform применяет набор преобразований к позе
func Transform(p PoseData, opts TransformOptions) (PoseData, error) {
	out := p.Clone()

	if opts.Mirror {
		out = Mirror(out)
	}

	if opts.Scale != nil {
		scaled, err := Scale(out, opts.Scale.Width, opts.Scale.Height)
		if err != nil {
			return PoseData{}, fmt.Errorf("failed to scale pose: %w", err)
		}
		out = scaled
	}

	if opts.Rotation != nil {
		out = Rotate(out, *opts.Rotation)
	}

	return out, nil
}
