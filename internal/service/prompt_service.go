package service

import (
	"context"
	"fmt"
	"strings"

	"posekit/internal/model"
	"posekit/internal/pose"

	"github.com/sirupsen/logrus"
)

// TextGenerator генератор текста (LLM)
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// PromptService составляет промпты для генерации изображений поз
type PromptService struct {
	generator   TextGenerator
	poseService *PoseService
	logger      *logrus.Logger
}

// NewPromptService создает новый сервис промптов. generator может быть nil,
// тогда генерация недоступна.
func NewPromptService(generator TextGenerator, poseService *PoseService, logger *logrus.Logger) *PromptService {
	return &PromptService{
		generator:   generator,
		poseService: poseService,
		logger:      logger,
	}
}

// Enabled сообщает, настроен ли генератор
func (s *PromptService) Enabled() bool {
	return s.generator != nil
}

// DraftPrompt генерирует промпт для позы и сохраняет его
func (s *PromptService) DraftPrompt(ctx context.Context, id string) (*model.Pose, error) {
	if !s.Enabled() {
		return nil, ErrPromptUnavailable
	}

	p, err := s.poseService.GetPose(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Генерируем промпт для позы %s", id)
	text, err := s.generator.GenerateContent(ctx, promptInstruction(p))
	if err != nil {
		s.logger.Errorf("Ошибка генерации промпта: %v", err)
		return nil, fmt.Errorf("failed to draft prompt: %w", err)
	}

	return s.poseService.SetPrompt(ctx, id, strings.TrimSpace(text))
}

// promptInstruction собирает запрос к модели из полей позы
func promptInstruction(p *model.Pose) string {
	var b strings.Builder
	b.WriteString("Write a single-paragraph prompt for an image generation model that shows a person in the following photography pose. ")
	b.WriteString("Describe body position, framing and lighting. Answer with the prompt only.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	if p.Theme != nil {
		fmt.Fprintf(&b, "Theme: %s\n", p.Theme.Name)
	}
	if len(p.Tags) > 0 {
		names := make([]string, len(p.Tags))
		for i, tag := range p.Tags {
			names[i] = tag.Name
		}
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "Difficulty: %s\n", p.Difficulty)
	if hints := describePose(p.Keypoints); len(hints) > 0 {
		fmt.Fprintf(&b, "Body: %s\n", strings.Join(hints, "; "))
	}
	return b.String()
}

// describePose выводит словесные подсказки по надежным точкам скелета COCO
func describePose(p pose.PoseData) []string {
	if len(p.Keypoints) < pose.COCOKeypointCount {
		return nil
	}

	at := func(i int) (pose.Keypoint, bool) {
		kp := p.Keypoints[i]
		return kp, kp.Confidence > pose.ReliableConfidence
	}

	var hints []string

	ls, okLS := at(pose.LeftShoulder)
	rs, okRS := at(pose.RightShoulder)
	if okLS && okRS {
		// у человека лицом к камере левое плечо справа на снимке
		if ls.X > rs.X {
			hints = append(hints, "facing the camera")
		} else {
			hints = append(hints, "facing away from the camera")
		}
	}

	nose, okNose := at(pose.Nose)
	lw, okLW := at(pose.LeftWrist)
	rw, okRW := at(pose.RightWrist)
	switch {
	case okNose && okLW && okRW && lw.Y < nose.Y && rw.Y < nose.Y:
		hints = append(hints, "both hands raised above the head")
	case okLS && okLW && lw.Y < ls.Y, okRS && okRW && rw.Y < rs.Y:
		hints = append(hints, "one arm raised")
	}

	lh, okLH := at(pose.LeftHip)
	rh, okRH := at(pose.RightHip)
	la, okLA := at(pose.LeftAnkle)
	ra, okRA := at(pose.RightAnkle)
	if okLH && okRH && okLA && okRA {
		hipWidth := abs(lh.X - rh.X)
		if hipWidth > 0 && abs(la.X-ra.X) > 1.5*hipWidth {
			hints = append(hints, "wide stance")
		}
	}

	return hints
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
