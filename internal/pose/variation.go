package pose

import (
	"fmt"
)

// Variation именованный вариант позы
type Variation struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Pose           PoseData `json:"pose"`
	Transformation string   `json:"transformation"`
}

// variationRecipe фиксированный набор вариантов
var variationRecipe = []struct {
	kind           string
	title          string
	transformation string
	opts           func(p PoseData) TransformOptions
}{
	{"original", "Original", "original", func(PoseData) TransformOptions { return TransformOptions{} }},
	{"mirrored", "Mirrored", "mirror", func(PoseData) TransformOptions { return TransformOptions{Mirror: true} }},
	{"scaled-small", "Scaled 80%", "scale:0.8", func(p PoseData) TransformOptions {
		return TransformOptions{Scale: &Size{Width: p.Width * 0.8, Height: p.Height * 0.8}}
	}},
	{"scaled-large", "Scaled 120%", "scale:1.2", func(p PoseData) TransformOptions {
		return TransformOptions{Scale: &Size{Width: p.Width * 1.2, Height: p.Height * 1.2}}
	}},
	{"rotated-15", "Rotated +15°", "rotate:15", func(PoseData) TransformOptions { return rotation(15) }},
	{"rotated--15", "Rotated -15°", "rotate:-15", func(PoseData) TransformOptions { return rotation(-15) }},
}

func rotation(angle float64) TransformOptions {
	return TransformOptions{Rotation: &angle}
}

// VariationKinds возвращает идентификаторы вариантов в порядке генерации
func VariationKinds() []string {
	kinds := make([]string, len(variationRecipe))
	for i, r := range variationRecipe {
		kinds[i] = r.kind
	}
	return kinds
}

// GenerateVariations строит фиксированный каталог вариантов позы.
// sourceID используется как префикс идентификаторов, если не пуст.
func GenerateVariations(sourceID string, p PoseData) ([]Variation, error) {
	variations := make([]Variation, 0, len(variationRecipe))
	for _, r := range variationRecipe {
		out, err := Transform(p, r.opts(p))
		if err != nil {
			return nil, fmt.Errorf("failed to build %s variation: %w", r.kind, err)
		}

		id := r.kind
		if sourceID != "" {
			id = sourceID + "-" + r.kind
		}

		variations = append(variations, Variation{
			ID:             id,
			Title:          r.title,
			Pose:           out,
			Transformation: r.transformation,
		})
	}
	return variations, nil
}
