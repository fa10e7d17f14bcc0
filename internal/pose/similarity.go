package pose

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// SimilaritySensitivity множитель среднего нормированного расстояния.
// Подобран вручную, не выведен из данных.
const SimilaritySensitivity = 5.0

// Candidate поза-кандидат для поиска похожих
type Candidate struct {
	ID   string   `json:"id"`
	Pose PoseData `json:"pose"`
}

// Match результат поиска похожих поз
type Match struct {
	Candidate Candidate `json:"candidate"`
	Score     float64   `json:"score"`
}

// Similarity оценивает сходство двух поз в диапазоне [0, 1]
func Similarity(a, b PoseData) float64 {
	if len(a.Keypoints) != len(b.Keypoints) {
		return 0
	}

	diagonal := r2.Norm(r2.Vec{X: a.Width, Y: a.Height})
	if diagonal == 0 {
		return 0
	}

	var distances []float64
	for i := range a.Keypoints {
		ka, kb := a.Keypoints[i], b.Keypoints[i]
		if ka.Confidence <= ReliableConfidence || kb.Confidence <= ReliableConfidence {
			continue
		}
		d := r2.Norm(r2.Sub(r2.Vec{X: ka.X, Y: ka.Y}, r2.Vec{X: kb.X, Y: kb.Y}))
		distances = append(distances, d/diagonal)
	}

	if len(distances) == 0 {
		return 0
	}

	score := 1 - stat.Mean(distances, nil)*SimilaritySensitivity
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// FindSimilar возвращает кандидатов со сходством не ниже threshold,
// отсортированных по убыванию, не более maxResults.
// Отрицательный maxResults снимает ограничение.
func FindSimilar(target PoseData, candidates []Candidate, threshold float64, maxResults int) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		score := Similarity(target, c.Pose)
		if score >= threshold {
			matches = append(matches, Match{Candidate: c, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if maxResults >= 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}
