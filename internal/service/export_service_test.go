package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"

	"posekit/internal/model"
	"posekit/internal/pose"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = content
	}
	return files
}

func TestWriteArchive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.createPose(t, "Archive me", standingPose())

	first, err := env.assets.UploadImage(ctx, created.ID, "shot.png", bytes.NewReader(pngImage(t, 32, 32)))
	require.NoError(t, err)
	second, err := env.assets.UploadImage(ctx, created.ID, "shot.png", bytes.NewReader(pngImage(t, 16, 16)))
	require.NoError(t, err)
	p, err := env.poses.GetPose(ctx, created.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewExportService(quietLogger()).WriteArchive(p, &buf))

	files := readArchive(t, buf.Bytes())
	assert.Contains(t, files, "pose.json")
	// одинаковые имена загрузок не дают дубликатов в архиве
	for _, uploaded := range [][]model.Asset{first, second} {
		assert.Contains(t, files, "images/image_"+uploaded[0].ID+"_shot.png")
		assert.Contains(t, files, "images/thumbnail_"+uploaded[1].ID+"_thumb_shot.jpg")
	}
	assert.Len(t, files, 2+len(pose.VariationKinds())+4)
	for _, kind := range pose.VariationKinds() {
		assert.Contains(t, files, "variants/"+kind+".json")
	}

	imported, ok := pose.ParseOpenPose(files["openpose.json"])
	require.True(t, ok)
	assert.Len(t, imported.Keypoints, pose.COCOKeypointCount)

	var variation pose.Variation
	require.NoError(t, json.Unmarshal(files["variants/mirrored.json"], &variation))
	assert.Equal(t, created.ID+"-mirrored", variation.ID)

	assert.Equal(t, p.Slug+".zip", ArchiveName(p))
}

func TestWriteArchive_SkipsMissingFilesAndVariants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.poses.CreatePose(ctx, &CreatePoseRequest{Title: "Empty"})
	require.NoError(t, err)

	assets, err := env.assets.UploadImage(ctx, created.ID, "shot.png", bytes.NewReader(pngImage(t, 4, 4)))
	require.NoError(t, err)
	require.NoError(t, os.Remove(assets[0].Path))

	p, err := env.poses.GetPose(ctx, created.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewExportService(quietLogger()).WriteArchive(p, &buf))

	files := readArchive(t, buf.Bytes())
	assert.NotContains(t, files, "images/image_"+assets[0].ID+"_shot.png")
	assert.Contains(t, files, "images/thumbnail_"+assets[1].ID+"_thumb_shot.jpg")
	assert.NotContains(t, files, "variants/original.json")
}
