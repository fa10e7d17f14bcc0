package pose

import (
	"github.com/xeipuuv/gojsonschema"
)

// poseDataSchema описывает форму PoseData для внешних данных
const poseDataSchema = `{
  "type": "object",
  "required": ["keypoints", "skeleton", "width", "height"],
  "properties": {
    "keypoints": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["x", "y", "confidence", "label"],
        "properties": {
          "x": {"type": "number"},
          "y": {"type": "number"},
          "confidence": {"type": "number"},
          "label": {"type": "string"}
        }
      }
    },
    "skeleton": {"type": "array"},
    "width": {"type": "number"},
    "height": {"type": "number"}
  }
}`

var poseSchema = mustLoadSchema(poseDataSchema)

func mustLoadSchema(source string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic("pose: invalid embedded schema: " + err.Error())
	}
	return schema
}

// IsPoseData проверяет, что значение имеет форму PoseData.
// Значение обычно получено декодированием JSON в any. Функция не паникует
// и не делает частичной проверки.
func IsPoseData(v any) bool {
	if v == nil {
		return false
	}
	return validate(gojsonschema.NewGoLoader(v))
}

// ValidatePoseData проверяет сырой JSON на соответствие форме PoseData
func ValidatePoseData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return validate(gojsonschema.NewBytesLoader(data))
}

func validate(doc gojsonschema.JSONLoader) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	result, err := poseSchema.Validate(doc)
	if err != nil {
		return false
	}
	return result.Valid()
}
