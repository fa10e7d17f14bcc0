package pose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shifted(p PoseData, dx, dy float64) PoseData {
	out := p.Clone()
	for i := range out.Keypoints {
		out.Keypoints[i].X += dx
		out.Keypoints[i].Y += dy
	}
	return out
}

func TestSimilarity_Reflexive(t *testing.T) {
	p := samplePose()

	assert.InDelta(t, 1.0, Similarity(p, p), epsilon)
}

func TestSimilarity_Symmetric(t *testing.T) {
	p := samplePose()
	q := Rotate(p, 10)

	assert.Equal(t, Similarity(p, q), Similarity(q, p))
}

func TestSimilarity_KnownShift(t *testing.T) {
	p := samplePose()
	q := shifted(p, 10, 0)

	want := 1 - SimilaritySensitivity*10/math.Hypot(768, 768)
	assert.InDelta(t, want, Similarity(p, q), epsilon)
}

func TestSimilarity_Bounds(t *testing.T) {
	p := samplePose()

	for _, q := range []PoseData{p, shifted(p, 5, 5), shifted(p, 500, 500), Mirror(p), Rotate(p, 180)} {
		s := Similarity(p, q)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}

	assert.Equal(t, 0.0, Similarity(p, shifted(p, 700, 700)))
}

func TestSimilarity_MismatchedLength(t *testing.T) {
	p := samplePose()
	q := p.Clone()
	q.Keypoints = q.Keypoints[:16]

	assert.Equal(t, 0.0, Similarity(p, q))
	assert.Equal(t, 0.0, Similarity(q, p))
}

func TestSimilarity_IgnoresUnreliablePoints(t *testing.T) {
	p := samplePose()
	q := p.Clone()
	// RightEar и щиколотки ниже порога: их сдвиг не влияет на оценку
	q.Keypoints[RightEar].X += 300
	q.Keypoints[LeftAnkle].Y -= 300
	q.Keypoints[RightAnkle].Y -= 300

	assert.InDelta(t, 1.0, Similarity(p, q), epsilon)
}

func TestSimilarity_NoQualifyingPoints(t *testing.T) {
	p := samplePose()
	for i := range p.Keypoints {
		p.Keypoints[i].Confidence = 0.5
	}

	assert.Equal(t, 0.0, Similarity(p, p))
}

func TestSimilarity_EmptyAndZeroFrame(t *testing.T) {
	assert.Equal(t, 0.0, Similarity(PoseData{}, PoseData{}))

	p := samplePose()
	p.Width, p.Height = 0, 0
	assert.Equal(t, 0.0, Similarity(p, p))
}

func TestFindSimilar(t *testing.T) {
	p := samplePose()
	candidates := []Candidate{
		{ID: "far", Pose: shifted(p, 400, 400)},
		{ID: "near-a", Pose: shifted(p, 20, 0)},
		{ID: "same", Pose: p.Clone()},
		{ID: "near-b", Pose: shifted(p, 0, 20)},
		{ID: "closer", Pose: shifted(p, 5, 0)},
	}

	matches := FindSimilar(p, candidates, 0.5, 10)

	require.Len(t, matches, 4)
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.Candidate.ID
	}
	// near-a и near-b равны по оценке и сохраняют порядок входа
	assert.Equal(t, []string{"same", "closer", "near-a", "near-b"}, ids)
	assert.InDelta(t, 1.0, matches[0].Score, epsilon)
	assert.Equal(t, matches[2].Score, matches[3].Score)
}

func TestFindSimilar_ThresholdInclusiveAndCap(t *testing.T) {
	p := samplePose()
	candidates := []Candidate{
		{ID: "a", Pose: p.Clone()},
		{ID: "b", Pose: p.Clone()},
		{ID: "c", Pose: p.Clone()},
	}

	matches := FindSimilar(p, candidates, 1, 2)

	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].Candidate.ID)
	assert.Equal(t, "b", matches[1].Candidate.ID)
}

func TestFindSimilar_NoCap(t *testing.T) {
	p := samplePose()
	candidates := []Candidate{{ID: "a", Pose: p}, {ID: "b", Pose: p}}

	assert.Len(t, FindSimilar(p, candidates, 0, -1), 2)
	assert.Empty(t, FindSimilar(p, nil, 0, 5))
}

func TestFindSimilar_ZeroCapIsEmpty(t *testing.T) {
	p := samplePose()
	candidates := []Candidate{{ID: "a", Pose: p}, {ID: "b", Pose: p}}

	matches := FindSimilar(p, candidates, 0, 0)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}
