package pose

import (
	"encoding/json"
)

const (
	// OpenPoseVersion версия формата, записываемая при экспорте
	OpenPoseVersion = 1.3
	// DefaultFrameSize размер кадра при импорте: OpenPose не хранит размеры изображения
	DefaultFrameSize = 768.0

	openPoseMinValues = COCOKeypointCount * 3
)

// OpenPoseDocument конверт формата OpenPose
type OpenPoseDocument struct {
	Version float64          `json:"version"`
	People  []OpenPosePerson `json:"people"`
}

// OpenPosePerson данные одного человека. Поддерживаются только точки тела.
type OpenPosePerson struct {
	PersonID             []int     `json:"person_id"`
	PoseKeypoints2D      []float64 `json:"pose_keypoints_2d"`
	FaceKeypoints2D      []float64 `json:"face_keypoints_2d"`
	HandLeftKeypoints2D  []float64 `json:"hand_left_keypoints_2d"`
	HandRightKeypoints2D []float64 `json:"hand_right_keypoints_2d"`
	PoseKeypoints3D      []float64 `json:"pose_keypoints_3d"`
	FaceKeypoints3D      []float64 `json:"face_keypoints_3d"`
	HandLeftKeypoints3D  []float64 `json:"hand_left_keypoints_3d"`
	HandRightKeypoints3D []float64 `json:"hand_right_keypoints_3d"`
}

// ToOpenPose сериализует позу в конверт OpenPose с одним человеком
func ToOpenPose(p PoseData) OpenPoseDocument {
	flat := make([]float64, 0, len(p.Keypoints)*3)
	for _, kp := range p.Keypoints {
		flat = append(flat, kp.X, kp.Y, kp.Confidence)
	}

	return OpenPoseDocument{
		Version: OpenPoseVersion,
		People: []OpenPosePerson{
			{
				PersonID:             []int{-1},
				PoseKeypoints2D:      flat,
				FaceKeypoints2D:      []float64{},
				HandLeftKeypoints2D:  []float64{},
				HandRightKeypoints2D: []float64{},
				PoseKeypoints3D:      []float64{},
				FaceKeypoints3D:      []float64{},
				HandLeftKeypoints3D:  []float64{},
				HandRightKeypoints3D: []float64{},
			},
		},
	}
}

// FromOpenPose восстанавливает позу из первого человека документа.
// Возвращает false, если точек нет или их меньше 17.
// Кадр всегда DefaultFrameSize x DefaultFrameSize.
func FromOpenPose(doc OpenPoseDocument) (PoseData, bool) {
	if len(doc.People) == 0 {
		return PoseData{}, false
	}

	flat := doc.People[0].PoseKeypoints2D
	if len(flat) < openPoseMinValues {
		return PoseData{}, false
	}

	keypoints := make([]Keypoint, 0, len(flat)/3)
	for i := 0; i+2 < len(flat); i += 3 {
		idx := i / 3
		keypoints = append(keypoints, Keypoint{
			X:          flat[i],
			Y:          flat[i+1],
			Confidence: flat[i+2],
			Label:      LabelAt(idx),
		})
	}

	return PoseData{
		Keypoints: keypoints,
		Skeleton:  SkeletonFor(len(keypoints)),
		Width:     DefaultFrameSize,
		Height:    DefaultFrameSize,
	}, true
}

// MarshalOpenPose кодирует позу в JSON формата OpenPose
func MarshalOpenPose(p PoseData) ([]byte, error) {
	return json.Marshal(ToOpenPose(p))
}

// openPoseImport часть документа OpenPose, которую читает импорт.
// Остальные поля конверта не проверяются.
type openPoseImport struct {
	People []struct {
		PoseKeypoints2D []float64 `json:"pose_keypoints_2d"`
	} `json:"people"`
}

// ParseOpenPose декодирует JSON формата OpenPose. Ошибка разбора, как и
// недостаток точек, дает false.
func ParseOpenPose(data []byte) (PoseData, bool) {
	var doc openPoseImport
	if err := json.Unmarshal(data, &doc); err != nil {
		return PoseData{}, false
	}

	people := make([]OpenPosePerson, len(doc.People))
	for i, person := range doc.People {
		people[i] = OpenPosePerson{PoseKeypoints2D: person.PoseKeypoints2D}
	}
	return FromOpenPose(OpenPoseDocument{People: people})
}
