package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"posekit/internal/pose"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standing() pose.PoseData {
	var points [pose.COCOKeypointCount][3]float64
	for i := range points {
		points[i] = [3]float64{100 + float64(i)*10, 50 + float64(i)*20, 0.9}
	}
	return pose.NewCOCOPose(512, 512, points)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadPoseFile_DetectsFormat(t *testing.T) {
	data, err := json.Marshal(standing())
	require.NoError(t, err)
	p, format, err := readPoseFile(writeFile(t, "pose.json", data))
	require.NoError(t, err)
	assert.Equal(t, formatPoseData, format)
	assert.Equal(t, 512.0, p.Width)

	data, err = pose.MarshalOpenPose(standing())
	require.NoError(t, err)
	p, format, err = readPoseFile(writeFile(t, "openpose.json", data))
	require.NoError(t, err)
	assert.Equal(t, formatOpenPose, format)
	assert.Equal(t, pose.DefaultFrameSize, p.Width)
}

func TestReadPoseFile_Errors(t *testing.T) {
	_, _, err := readPoseFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, _, err = readPoseFile(writeFile(t, "garbage.json", []byte(`{"hello":"world"}`)))
	assert.Error(t, err)

	bad := standing()
	bad.Skeleton = append(bad.Skeleton, pose.Bone{0, 99})
	data, err := json.Marshal(bad)
	require.NoError(t, err)
	_, _, err = readPoseFile(writeFile(t, "bad.json", data))
	assert.ErrorIs(t, err, pose.ErrInvalidSkeleton)
}

func TestRunVariants(t *testing.T) {
	data, err := json.Marshal(standing())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runVariants(&out, writeFile(t, "pose.json", data), "demo"))

	var variations []pose.Variation
	require.NoError(t, json.Unmarshal(out.Bytes(), &variations))
	require.Len(t, variations, len(pose.VariationKinds()))
	assert.Equal(t, "demo-original", variations[0].ID)
}

func TestRunConvert(t *testing.T) {
	data, err := json.Marshal(standing())
	require.NoError(t, err)
	path := writeFile(t, "pose.json", data)

	var out bytes.Buffer
	require.NoError(t, runConvert(&out, path, ""))
	_, ok := pose.ParseOpenPose(out.Bytes())
	assert.True(t, ok)

	out.Reset()
	require.NoError(t, runConvert(&out, path, formatPoseData))
	assert.True(t, pose.ValidatePoseData(out.Bytes()))

	assert.Error(t, runConvert(&out, path, "svg"))
}
