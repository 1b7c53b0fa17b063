package ocr

import (
	"encoding/json"
	"testing"

	"deepseek-ocr-api/internal/shared"
	"deepseek-ocr-api/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  *shared.OCRRequest
		want *shared.RequestError
	}{
		{"nil request", nil, shared.ErrUserPromptRequired},
		{"missing prompt", &shared.OCRRequest{Images: []string{"aGk="}}, shared.ErrUserPromptRequired},
		{"prompt checked before images", &shared.OCRRequest{}, shared.ErrUserPromptRequired},
		{"missing images", &shared.OCRRequest{UserPrompt: "read"}, shared.ErrImagesRequired},
		{"empty images", &shared.OCRRequest{UserPrompt: "read", Images: []string{}}, shared.ErrImagesRequired},
		{"valid", &shared.OCRRequest{UserPrompt: "read", Images: []string{"aGk="}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.req)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want.StatusCode, got.StatusCode)
			assert.Equal(t, tt.want.Message(), got.Message())
		})
	}
}

func TestBuildChatRequestWithSystemPrompt(t *testing.T) {
	req := &shared.OCRRequest{
		SystemPrompt: "You are an OCR engine.",
		UserPrompt:   "Convert the document to markdown.",
		Images:       []string{"aW1hZ2Ux", "aW1hZ2Uy"},
	}

	wire := BuildChatRequest(req, "deepseek-ai/DeepSeek-OCR")

	assert.Equal(t, "deepseek-ai/DeepSeek-OCR", wire.Model)
	assert.Equal(t, 2048, wire.MaxTokens)
	assert.Equal(t, 0.0, wire.Temperature)
	require.Len(t, wire.Messages, 1)
	assert.Equal(t, "user", wire.Messages[0].Role)

	content := wire.Messages[0].Content
	require.Len(t, content, 4)
	assert.Equal(t, upstream.TextPart("You are an OCR engine."), content[0])
	assert.Equal(t, upstream.TextPart("Convert the document to markdown."), content[1])
	assert.Equal(t, upstream.ImagePart("data:image/png;base64,aW1hZ2Ux"), content[2])
	assert.Equal(t, upstream.ImagePart("data:image/png;base64,aW1hZ2Uy"), content[3])
}

func TestBuildChatRequestWithoutSystemPrompt(t *testing.T) {
	req := &shared.OCRRequest{
		UserPrompt: "Read this",
		Images:     []string{"aW1hZ2Ux", "aW1hZ2Uy"},
	}

	content := BuildChatRequest(req, shared.DefaultDeepSeekModel).Messages[0].Content

	require.Len(t, content, 3)
	assert.Equal(t, upstream.PartTypeText, content[0].Type)
	assert.Equal(t, "Read this", content[0].Text)
	assert.Equal(t, upstream.PartTypeImageURL, content[1].Type)
	assert.Equal(t, upstream.PartTypeImageURL, content[2].Type)
}

func TestBuildChatRequestKeepsDataURLs(t *testing.T) {
	req := &shared.OCRRequest{
		UserPrompt: "Read this",
		Images:     []string{"data:image/jpeg;base64,/9j/4AAQ", "iVBORw0KGgo="},
	}

	content := BuildChatRequest(req, shared.DefaultDeepSeekModel).Messages[0].Content

	require.Len(t, content, 3)
	assert.Equal(t, "data:image/jpeg;base64,/9j/4AAQ", content[1].ImageURL.URL)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", content[2].ImageURL.URL)
}

func TestBuildChatRequestFixedSettingsOnTheWire(t *testing.T) {
	wire := BuildChatRequest(&shared.OCRRequest{UserPrompt: "p", Images: []string{"aGk="}}, "m")
	data, err := json.Marshal(wire)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "m", raw["model"])
	assert.Equal(t, float64(2048), raw["max_tokens"])
	temp, ok := raw["temperature"]
	assert.True(t, ok, "temperature must be sent even when zero")
	assert.Equal(t, float64(0), temp)

	content := raw["messages"].([]any)[0].(map[string]any)["content"].([]any)
	assert.Equal(t, map[string]any{"type": "text", "text": "p"}, content[0])
	assert.Equal(t, map[string]any{
		"type":      "image_url",
		"image_url": map[string]any{"url": "data:image/png;base64,aGk="},
	}, content[1])
}
