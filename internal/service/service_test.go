package service

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"posekit/internal/model"
	"posekit/internal/pose"
	"posekit/internal/repository"
	"posekit/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// standingPose человек лицом к камере, руки опущены
func standingPose() pose.PoseData {
	return pose.NewCOCOPose(768, 768, [pose.COCOKeypointCount][3]float64{
		pose.Nose:          {384, 200, 0.98},
		pose.LeftEye:       {398, 190, 0.95},
		pose.RightEye:      {370, 190, 0.95},
		pose.LeftEar:       {413, 196, 0.7},
		pose.RightEar:      {355, 196, 0.7},
		pose.LeftShoulder:  {468, 400, 0.9},
		pose.RightShoulder: {300, 400, 0.9},
		pose.LeftElbow:     {500, 500, 0.85},
		pose.RightElbow:    {270, 500, 0.85},
		pose.LeftWrist:     {520, 600, 0.8},
		pose.RightWrist:    {250, 600, 0.8},
		pose.LeftHip:       {440, 620, 0.9},
		pose.RightHip:      {330, 620, 0.9},
		pose.LeftKnee:      {450, 700, 0.88},
		pose.RightKnee:     {320, 700, 0.88},
		pose.LeftAnkle:     {455, 760, 0.8},
		pose.RightAnkle:    {315, 760, 0.8},
	})
}

// armsUpPose та же поза с поднятыми над головой руками
func armsUpPose() pose.PoseData {
	p := standingPose()
	p.Keypoints[pose.LeftElbow].Y = 280
	p.Keypoints[pose.RightElbow].Y = 280
	p.Keypoints[pose.LeftWrist].Y = 120
	p.Keypoints[pose.RightWrist].Y = 120
	return p
}

func shiftedPose(p pose.PoseData, dx, dy float64) pose.PoseData {
	out := p.Clone()
	for i := range out.Keypoints {
		out.Keypoints[i].X += dx
		out.Keypoints[i].Y += dy
	}
	return out
}

func rawPose(t *testing.T, p pose.PoseData) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return data
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type testEnv struct {
	store   *repository.MemoryStore
	poses   *PoseService
	assets  *AssetService
	catalog *CatalogService
	dir     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	dir := t.TempDir()
	logger := quietLogger()
	return &testEnv{
		store:   store,
		poses:   NewPoseService(store.Poses(), store.Catalog(), logger, dir),
		assets:  NewAssetService(store.Poses(), logger, dir),
		catalog: NewCatalogService(store.Catalog(), logger),
		dir:     dir,
	}
}

func (e *testEnv) createPose(t *testing.T, title string, p pose.PoseData, tags ...string) *model.Pose {
	t.Helper()
	created, err := e.poses.CreatePose(context.Background(), &CreatePoseRequest{
		Title:     title,
		Tags:      tags,
		Keypoints: rawPose(t, p),
	})
	require.NoError(t, err)
	return created
}

// fakeDetector возвращает заранее заданный ответ
type fakeDetector struct {
	response *models.DetectResponse
	err      error
	health   *models.HealthResponse
	received []models.DetectRequest
}

func (f *fakeDetector) Detect(_ context.Context, request models.DetectRequest) (*models.DetectResponse, error) {
	f.received = append(f.received, request)
	return f.response, f.err
}

func (f *fakeDetector) CheckHealth(context.Context) (*models.HealthResponse, error) {
	if f.health == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return f.health, nil
}

// fakeGenerator запоминает запросы к модели
type fakeGenerator struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}
