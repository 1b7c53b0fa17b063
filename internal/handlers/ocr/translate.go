package ocr

import (
	"deepseek-ocr-api/internal/images"
	"deepseek-ocr-api/internal/shared"
	"deepseek-ocr-api/internal/upstream"
)

// Validate checks the preconditions for forwarding, in order
func Validate(req *shared.OCRRequest) *shared.RequestError {
	if req == nil || req.UserPrompt == "" {
		return shared.ErrUserPromptRequired
	}
	if len(req.Images) == 0 {
		return shared.ErrImagesRequired
	}
	return nil
}

// BuildChatRequest translates an OCR request into a single user message:
// optional system text, the user text, then one image part per image.
func BuildChatRequest(req *shared.OCRRequest, model string) *upstream.ChatRequest {
	content := make([]upstream.ContentPart, 0, len(req.Images)+2)
	if req.SystemPrompt != "" {
		content = append(content, upstream.TextPart(req.SystemPrompt))
	}
	content = append(content, upstream.TextPart(req.UserPrompt))
	for _, image := range req.Images {
		content = append(content, upstream.ImagePart(images.ToDataURL(image, shared.DefaultImageMIME)))
	}

	return &upstream.ChatRequest{
		Model: model,
		Messages: []upstream.ChatMessage{
			{
				Role:    upstream.RoleUser,
				Content: content,
			},
		},
		MaxTokens:   shared.OCRMaxTokens,
		Temperature: shared.OCRTemperature,
	}
}
