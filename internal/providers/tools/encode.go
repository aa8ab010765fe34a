package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/lensbot/pkg/dataurl"
)

const encodeImageSchema = `
{
  "type": "object",
  "properties": {
    "path": { "type": "string", "description": "Path to the image file on disk" }
  },
  "required": ["path"]
}
`

// Encoder exposes the data-URI encoder as a tool, so the model can pull
// local images into the conversation on its own.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) EncodeImage(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	res, err := dataurl.Encode(input.Path)
	if err != nil {
		return "", err
	}
	return res.URI(), nil
}

func (e *Encoder) GetDefinitions() map[string]Definition {
	return map[string]Definition{
		"encode_image": {"Convert a local image file to a base64 data URI for embedding in vision requests", encodeImageSchema, e.EncodeImage},
	}
}
