package pose

import (
	"errors"
	"fmt"
)

// ReliableConfidence порог, выше которого точка считается надежной
const ReliableConfidence = 0.5

// Keypoint представляет одну ключевую точку скелета
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

// Bone пара индексов ключевых точек, соединенных линией при отрисовке
type Bone [2]int

// PoseData скелет позы в координатах исходного изображения
type PoseData struct {
	Keypoints []Keypoint `json:"keypoints"`
	Skeleton  []Bone     `json:"skeleton"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
}

// Size размеры кадра
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// COCO раскладка из 17 точек
const (
	Nose = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	COCOKeypointCount = 17
)

// cocoLabels метки точек в порядке COCO
var cocoLabels = [COCOKeypointCount]string{
	"nose",
	"leftEye",
	"rightEye",
	"leftEar",
	"rightEar",
	"leftShoulder",
	"rightShoulder",
	"leftElbow",
	"rightElbow",
	"leftWrist",
	"rightWrist",
	"leftHip",
	"rightHip",
	"leftKnee",
	"rightKnee",
	"leftAnkle",
	"rightAnkle",
}

// cocoSkeleton соединения точек COCO
var cocoSkeleton = []Bone{
	{LeftAnkle, LeftKnee},
	{LeftKnee, LeftHip},
	{RightAnkle, RightKnee},
	{RightKnee, RightHip},
	{LeftHip, RightHip},
	{LeftShoulder, LeftHip},
	{RightShoulder, RightHip},
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow},
	{RightShoulder, RightElbow},
	{LeftElbow, LeftWrist},
	{RightElbow, RightWrist},
	{LeftEye, RightEye},
	{Nose, LeftEye},
	{Nose, RightEye},
	{LeftEye, LeftEar},
	{RightEye, RightEar},
	{LeftEar, LeftShoulder},
	{RightEar, RightShoulder},
}

// mirrorPartners симметричная таблица парных точек. Отсутствующие индексы
// отражаются сами в себя.
var mirrorPartners = map[int]int{
	LeftEye:       RightEye,
	RightEye:      LeftEye,
	LeftEar:       RightEar,
	RightEar:      LeftEar,
	LeftShoulder:  RightShoulder,
	RightShoulder: LeftShoulder,
	LeftElbow:     RightElbow,
	RightElbow:    LeftElbow,
	LeftWrist:     RightWrist,
	RightWrist:    LeftWrist,
	LeftHip:       RightHip,
	RightHip:      LeftHip,
	LeftKnee:      RightKnee,
	RightKnee:     LeftKnee,
	LeftAnkle:     RightAnkle,
	RightAnkle:    LeftAnkle,
}

// COCOLabels возвращает копию списка меток COCO
func COCOLabels() []string {
	labels := make([]string, COCOKeypointCount)
	copy(labels, cocoLabels[:])
	return labels
}

// COCOSkeleton возвращает копию соединений COCO
func COCOSkeleton() []Bone {
	skeleton := make([]Bone, len(cocoSkeleton))
	copy(skeleton, cocoSkeleton)
	return skeleton
}

// SkeletonFor возвращает соединения COCO, допустимые для n точек
func SkeletonFor(n int) []Bone {
	skeleton := make([]Bone, 0, len(cocoSkeleton))
	for _, bone := range cocoSkeleton {
		if bone[0] < n && bone[1] < n {
			skeleton = append(skeleton, bone)
		}
	}
	return skeleton
}

// MirrorPartner возвращает индекс парной точки
func MirrorPartner(i int) int {
	if j, ok := mirrorPartners[i]; ok {
		return j
	}
	return i
}

// LabelAt возвращает метку COCO для позиции или синтезированную метку keypoint_N
func LabelAt(i int) string {
	if i >= 0 && i < COCOKeypointCount {
		return cocoLabels[i]
	}
	// не должно срабатывать при 17-точечной раскладке
	return fmt.Sprintf("keypoint_%d", i)
}

// Clone возвращает независимую копию позы
func (p PoseData) Clone() PoseData {
	out := PoseData{
		Keypoints: make([]Keypoint, len(p.Keypoints)),
		Skeleton:  make([]Bone, len(p.Skeleton)),
		Width:     p.Width,
		Height:    p.Height,
	}
	copy(out.Keypoints, p.Keypoints)
	copy(out.Skeleton, p.Skeleton)
	return out
}

// Size возвращает размеры кадра позы
func (p PoseData) Size() Size {
	return Size{Width: p.Width, Height: p.Height}
}

// ErrInvalidSkeleton соединение ссылается на несуществующую точку
var ErrInvalidSkeleton = errors.New("skeleton references missing keypoint")

// Check проверяет, что все соединения ссылаются на существующие точки
func (p PoseData) Check() error {
	for i, bone := range p.Skeleton {
		for _, idx := range bone {
			if idx < 0 || idx >= len(p.Keypoints) {
				return fmt.Errorf("%w: bone %d uses index %d of %d keypoints", ErrInvalidSkeleton, i, idx, len(p.Keypoints))
			}
		}
	}
	return nil
}

// NewCOCOPose собирает позу COCO из координат. points содержит тройки x, y, confidence.
func NewCOCOPose(width, height float64, points [COCOKeypointCount][3]float64) PoseData {
	keypoints := make([]Keypoint, COCOKeypointCount)
	for i, pt := range points {
		keypoints[i] = Keypoint{X: pt[0], Y: pt[1], Confidence: pt[2], Label: cocoLabels[i]}
	}
	return PoseData{
		Keypoints: keypoints,
		Skeleton:  COCOSkeleton(),
		Width:     width,
		Height:    height,
	}
}
