package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"posekit/internal/model"
	"posekit/internal/pose"
	"posekit/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	theme, err := env.catalog.CreateTheme(ctx, &CreateThemeRequest{Name: "Yoga"})
	require.NoError(t, err)

	created, err := env.poses.CreatePose(ctx, &CreatePoseRequest{
		Title:     "Mountain Pose",
		ThemeID:   &theme.ID,
		Tags:      []string{"Standing", "beginner", "standing"},
		Keypoints: rawPose(t, standingPose()),
	})
	require.NoError(t, err)

	assert.Equal(t, "Mountain Pose", created.Title)
	assert.True(t, strings.HasPrefix(created.Slug, "mountain-pose-"))
	assert.Equal(t, model.DifficultyMedium, created.Difficulty)
	require.NotNil(t, created.Theme)
	assert.Equal(t, "Yoga", created.Theme.Name)
	require.Len(t, created.Tags, 2)
	assert.Equal(t, "beginner", created.Tags[0].Name)
	assert.Len(t, created.Keypoints.Keypoints, pose.COCOKeypointCount)
}

func TestCreatePose_WithoutKeypoints(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.poses.CreatePose(context.Background(), &CreatePoseRequest{Title: "Draft"})
	require.NoError(t, err)
	assert.Empty(t, created.Keypoints.Keypoints)
	assert.NotNil(t, created.Keypoints.Skeleton)
}

func TestCreatePose_Validation(t *testing.T) {
	env := newTestEnv(t)
	missing := "missing-theme"

	tests := []struct {
		name  string
		req   CreatePoseRequest
		field string
	}{
		{name: "title required", req: CreatePoseRequest{}, field: "title"},
		{name: "bad difficulty", req: CreatePoseRequest{Title: "x", Difficulty: "insane"}, field: "difficulty"},
		{name: "malformed keypoints", req: CreatePoseRequest{Title: "x", Keypoints: json.RawMessage(`{"keypoints":1}`)}, field: "keypoints"},
		{name: "unknown theme", req: CreatePoseRequest{Title: "x", ThemeID: &missing}, field: "theme_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.poses.CreatePose(context.Background(), &tt.req)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestUpdatePose_Partial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.createPose(t, "Original", standingPose(), "a")

	title := "Renamed"
	hard := model.DifficultyHard
	updated, err := env.poses.UpdatePose(ctx, created.ID, &UpdatePoseRequest{
		Title:      &title,
		Difficulty: &hard,
		Tags:       []string{"b", "c"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, model.DifficultyHard, updated.Difficulty)
	// slug не меняется при переименовании
	assert.Equal(t, created.Slug, updated.Slug)
	require.Len(t, updated.Tags, 2)
	assert.Equal(t, "b", updated.Tags[0].Name)
	assert.Equal(t, created.Keypoints, updated.Keypoints)

	_, err = env.poses.UpdatePose(ctx, "missing", &UpdatePoseRequest{Title: &title})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdatePose_ClearsTheme(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	theme, err := env.catalog.CreateTheme(ctx, &CreateThemeRequest{Name: "Street"})
	require.NoError(t, err)
	created, err := env.poses.CreatePose(ctx, &CreatePoseRequest{Title: "x", ThemeID: &theme.ID})
	require.NoError(t, err)

	empty := ""
	updated, err := env.poses.UpdatePose(ctx, created.ID, &UpdatePoseRequest{ThemeID: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.ThemeID)
}

func TestListPoses(t *testing.T) {
	env := newTestEnv(t)
	env.createPose(t, "One", standingPose(), "yoga")
	env.createPose(t, "Two", standingPose())

	resp, err := env.poses.ListPoses(context.Background(), repository.PoseFilter{Page: 1, PageSize: 10, Tag: "yoga"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Poses, 1)
	assert.Equal(t, "One", resp.Poses[0].Title)
	assert.Equal(t, 10, resp.Size)
}

func TestDeletePose_RemovesFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.createPose(t, "With image", standingPose())

	_, err := env.assets.UploadImage(ctx, created.ID, "photo.png", strings.NewReader(string(pngImage(t, 40, 20))))
	require.NoError(t, err)
	dir := filepath.Join(env.dir, "poses", created.ID)
	_, err = os.Stat(dir)
	require.NoError(t, err)

	require.NoError(t, env.poses.DeletePose(ctx, created.ID))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	_, err = env.poses.GetPose(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, env.poses.DeletePose(ctx, created.ID), repository.ErrNotFound)
}

func TestVariants(t *testing.T) {
	env := newTestEnv(t)
	created := env.createPose(t, "Pose", standingPose())

	variations, err := env.poses.Variants(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, variations, 6)
	assert.Equal(t, created.ID+"-original", variations[0].ID)
	assert.Equal(t, "mirror", variations[1].Transformation)
}

func TestVariants_DegenerateFrame(t *testing.T) {
	env := newTestEnv(t)
	created, err := env.poses.CreatePose(context.Background(), &CreatePoseRequest{Title: "Empty"})
	require.NoError(t, err)

	_, err = env.poses.Variants(context.Background(), created.ID)
	assert.ErrorIs(t, err, pose.ErrDegenerateFrame)
}

func TestTransform(t *testing.T) {
	env := newTestEnv(t)
	created := env.createPose(t, "Pose", standingPose())
	ctx := context.Background()

	out, err := env.poses.Transform(ctx, created.ID, &TransformRequest{Mirror: true})
	require.NoError(t, err)
	// левое плечо на выходе берет координаты правого с отражением
	assert.InDelta(t, 768-300.0, out.Keypoints[pose.LeftShoulder].X, 1e-9)

	_, err = env.poses.Transform(ctx, created.ID, &TransformRequest{Scale: &pose.Size{Width: 0, Height: 10}})
	assert.ErrorIs(t, err, pose.ErrInvalidDimensions)

	// сохраненная поза не изменилась
	stored, err := env.poses.GetPose(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, standingPose(), stored.Keypoints)
}

func TestFindSimilar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	target := env.createPose(t, "Target", standingPose())
	near := env.createPose(t, "Near", shiftedPose(standingPose(), 5, 5))
	far := env.createPose(t, "Arms up", armsUpPose())
	env.createPose(t, "Unrelated", pose.PoseData{Keypoints: []pose.Keypoint{}, Skeleton: []pose.Bone{}, Width: 10, Height: 10})

	matches, err := env.poses.FindSimilar(ctx, target.ID, 0, -1)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, near.ID, matches[0].ID)
	assert.Greater(t, matches[0].Score, 0.9)
	assert.Equal(t, far.ID, matches[1].ID)
	assert.Equal(t, 0.0, matches[2].Score)

	matches, err = env.poses.FindSimilar(ctx, target.ID, 0.5, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, near.ID, matches[0].ID)

	matches, err = env.poses.FindSimilar(ctx, target.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = env.poses.FindSimilar(ctx, target.ID, 1.5, 0)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestOpenPoseExportImport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.createPose(t, "Source", standingPose())

	doc, err := env.poses.ExportOpenPose(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, doc.People, 1)
	assert.Len(t, doc.People[0].PoseKeypoints2D, 51)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	imported, err := env.poses.ImportOpenPose(ctx, &ImportOpenPoseRequest{Title: "Imported", Document: raw, Tags: []string{"openpose"}})
	require.NoError(t, err)
	assert.Equal(t, pose.DefaultFrameSize, imported.Keypoints.Width)
	assert.Len(t, imported.Keypoints.Keypoints, pose.COCOKeypointCount)
	assert.Equal(t, "openpose", imported.Tags[0].Name)

	_, err = env.poses.ImportOpenPose(ctx, &ImportOpenPoseRequest{Title: "Bad", Document: json.RawMessage(`{"people":[]}`)})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "document", ve.Field)
}

func TestImportBatch_AcceptsForeignEnvelope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	flat, err := json.Marshal(pose.ToOpenPose(standingPose()).People[0].PoseKeypoints2D)
	require.NoError(t, err)
	// другие инструменты пишут version строкой и person_id дробными числами
	foreign := []byte(`{"version":"1.3","people":[{"person_id":[-1.0],"pose_keypoints_2d":` + string(flat) + `}]}`)

	summary, err := env.poses.ImportBatch(ctx, []BatchFile{{Name: "foreign.json", Data: foreign}}, BatchDefaults{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0, summary.Failed)
}

func TestImportBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	good, err := pose.MarshalOpenPose(standingPose())
	require.NoError(t, err)

	files := []BatchFile{
		{Name: "warrior_ii.json", Data: good},
		{Name: "broken.json", Data: []byte("{")},
		{Name: "tree-pose.json", Data: good},
	}

	var events []BatchProgress
	summary, err := env.poses.ImportBatch(ctx, files, BatchDefaults{Tags: []string{"batch"}}, func(p BatchProgress) {
		events = append(events, p)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, summary.PoseIDs, 2)

	require.Len(t, events, 3)
	assert.Equal(t, BatchStatusCreated, events[0].Status)
	assert.Equal(t, BatchStatusFailed, events[1].Status)
	assert.NotEmpty(t, events[1].Error)
	assert.Equal(t, 3, events[2].Index)

	first, err := env.poses.GetPose(ctx, summary.PoseIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "warrior ii", first.Title)

	_, err = env.poses.ImportBatch(ctx, nil, BatchDefaults{}, nil)
	assert.Error(t, err)
}

func TestImportBatch_StopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := env.poses.ImportBatch(ctx, []BatchFile{{Name: "a.json", Data: []byte("{}")}}, BatchDefaults{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Created)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createPose(t, "Warrior II", standingPose(), "yoga")
	env.createPose(t, "Bridal portrait", standingPose(), "wedding")

	results, err := env.poses.Search(ctx, "warr", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Warrior II", results[0].Pose.Title)

	results, err = env.poses.Search(ctx, "wedding", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Bridal portrait", results[0].Pose.Title)

	_, err = env.poses.Search(ctx, "  ", 10)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "warrior ii", titleFromFilename("dir/warrior_ii.json"))
	assert.Equal(t, "Imported pose", titleFromFilename(".json"))
}
