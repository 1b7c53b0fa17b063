package ocr

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"deepseek-ocr-api/internal/metrics"
	"deepseek-ocr-api/internal/shared"
)

var ErrMockFailed = &shared.RequestError{
	StatusCode: 500,
	Err:        errors.New("Internal server error processing your request"),
}

// Mock runs the same validation as Relay, waits MockDelay and answers with a
// canned markdown document. It never talks to the model server.
func (om *OCRManager) Mock(input OCRInput) (*shared.OCRResponse, *shared.RequestError) {
	if rerr := Validate(input.Req); rerr != nil {
		return nil, rerr
	}
	req := input.Req

	start := time.Now()
	timer := time.NewTimer(om.MockDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-input.Ctx.Done():
		om.logger(input).Warnw("Mock request abandoned", "error", input.Ctx.Err())
		return nil, ErrMockFailed
	}
	elapsed := time.Since(start)

	metrics.RequestCount.WithLabelValues(om.Model, shared.EndpointMock, "success").Inc()
	om.record(&shared.ProcessedOCRRequest{
		RequestID:      input.RequestID,
		Endpoint:       shared.EndpointMock,
		Model:          om.Model,
		ImageCount:     len(req.Images),
		StatusCode:     200,
		ProcessingTime: elapsed,
		CreatedAt:      time.Now(),
	})

	return shared.NewOCRSuccess(MockResult(req, rand.IntN(10)+1, rand.IntN(3), rand.IntN(5)), elapsed), nil
}

// MockResult renders the canned markdown for req
func MockResult(req *shared.OCRRequest, textBlocks, tables, formulas int) string {
	var b strings.Builder
	b.WriteString("# OCR Processing Complete\n\n")
	b.WriteString("## System Configuration\n")
	if req.SystemPrompt != "" {
		fmt.Fprintf(&b, "- System Prompt: \"%s\"\n", req.SystemPrompt)
	} else {
		b.WriteString("- No system prompt provided\n")
	}
	fmt.Fprintf(&b, "- User Prompt: \"%s\"\n", req.UserPrompt)
	fmt.Fprintf(&b, "- Images Processed: %d\n\n", len(req.Images))

	b.WriteString(`## Extracted Content (Mock)

### Document Analysis

This is a **mock response** from the DeepSeek OCR endpoint. In production, this would contain:

1. Extracted text from your images
2. Structured markdown output
3. Tables, formulas, and special formatting preserved
4. Multi-language support

### Sample Output

` + "```" + `
Lorem ipsum dolor sit amet, consectetur adipiscing elit.
Mathematical formula: E = mc²
Table data would appear here in markdown format
` + "```" + `

### Detected Elements

`)
	fmt.Fprintf(&b, "- **Text Blocks**: %d\n", textBlocks)
	fmt.Fprintf(&b, "- **Images**: %d\n", len(req.Images))
	fmt.Fprintf(&b, "- **Tables**: %d\n", tables)
	fmt.Fprintf(&b, "- **Formulas**: %d\n\n", formulas)
	b.WriteString("---\n\n*Note: This is a placeholder response. Connect your vLLM endpoint to see real results.*")
	return b.String()
}
