package pose

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decoded(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestIsPoseData_WellFormed(t *testing.T) {
	data, err := json.Marshal(samplePose())
	require.NoError(t, err)

	assert.True(t, IsPoseData(decoded(t, string(data))))
	assert.True(t, IsPoseData(samplePose()))
	assert.True(t, ValidatePoseData(data))
}

func TestIsPoseData_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "keypoints not array", raw: `{"keypoints":"not-an-array","skeleton":[],"width":1,"height":1}`},
		{name: "missing skeleton", raw: `{"keypoints":[],"width":1,"height":1}`},
		{name: "skeleton not array", raw: `{"keypoints":[],"skeleton":{},"width":1,"height":1}`},
		{name: "width string", raw: `{"keypoints":[],"skeleton":[],"width":"1","height":1}`},
		{name: "missing height", raw: `{"keypoints":[],"skeleton":[],"width":1}`},
		{name: "keypoint label number", raw: `{"keypoints":[{"x":1,"y":2,"confidence":0.5,"label":3}],"skeleton":[],"width":1,"height":1}`},
		{name: "keypoint missing confidence", raw: `{"keypoints":[{"x":1,"y":2,"label":"nose"}],"skeleton":[],"width":1,"height":1}`},
		{name: "keypoint x string", raw: `{"keypoints":[{"x":"1","y":2,"confidence":1,"label":"nose"}],"skeleton":[],"width":1,"height":1}`},
		{name: "keypoint not object", raw: `{"keypoints":[5],"skeleton":[],"width":1,"height":1}`},
		{name: "array", raw: `[]`},
		{name: "string", raw: `"pose"`},
		{name: "null", raw: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, IsPoseData(decoded(t, tt.raw)))
			assert.False(t, ValidatePoseData([]byte(tt.raw)))
		})
	}
}

func TestIsPoseData_PartialKeypoints(t *testing.T) {
	raw := `{"keypoints":[{"x":1,"y":2,"confidence":1,"label":"nose"},{"x":1}],"skeleton":[],"width":1,"height":1}`

	assert.False(t, IsPoseData(decoded(t, raw)))
}

func TestIsPoseData_EmptyPoseIsWellFormed(t *testing.T) {
	assert.True(t, IsPoseData(decoded(t, `{"keypoints":[],"skeleton":[],"width":0,"height":0}`)))
}

func TestValidatePoseData_Garbage(t *testing.T) {
	assert.False(t, ValidatePoseData(nil))
	assert.False(t, ValidatePoseData([]byte("{not json")))
	assert.False(t, IsPoseData(nil))
}
