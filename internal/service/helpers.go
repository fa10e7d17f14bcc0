package service

import (
	"encoding/json"
	"strings"
	"unicode"

	"posekit/internal/pose"
)

// slugify приводит строку к виду для URL: строчные буквы, цифры и дефисы
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// poseSlug строит уникальный slug позы из заголовка и ID
func poseSlug(title, id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	base := slugify(title)
	if base == "" {
		return short
	}
	return base + "-" + short
}

// normalizeTags убирает пробелы, пустые значения и дубликаты
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// emptyPose поза без точек, до детекции или импорта
func emptyPose() pose.PoseData {
	return pose.PoseData{Keypoints: []pose.Keypoint{}, Skeleton: []pose.Bone{}}
}

// decodeKeypoints проверяет структуру JSON и индексы соединений.
// Пустое значение дает позу без точек.
func decodeKeypoints(raw json.RawMessage) (pose.PoseData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return emptyPose(), nil
	}
	if !pose.ValidatePoseData(raw) {
		return pose.PoseData{}, invalid("keypoints", "is not a valid pose")
	}

	var data pose.PoseData
	if err := json.Unmarshal(raw, &data); err != nil {
		return pose.PoseData{}, invalid("keypoints", "is not a valid pose")
	}
	if err := data.Check(); err != nil {
		return pose.PoseData{}, invalid("keypoints", "%v", err)
	}
	return data, nil
}
