package ocr

import (
	"context"
	"fmt"
	"testing"
	"time"

	"deepseek-ocr-api/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMockValidation(t *testing.T) {
	client := new(MockModelClient)
	om := newTestManager(client, nil)

	_, rerr := om.Mock(input(&shared.OCRRequest{Images: []string{"aGk="}}))
	require.NotNil(t, rerr)
	assert.Equal(t, 400, rerr.StatusCode)
	assert.Equal(t, "User prompt is required", rerr.Message())

	_, rerr = om.Mock(input(&shared.OCRRequest{UserPrompt: "read"}))
	require.NotNil(t, rerr)
	assert.Equal(t, "At least one image is required", rerr.Message())
	client.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything)
}

func TestMockRespondsAfterDelay(t *testing.T) {
	client := new(MockModelClient)
	usage := &recordingUsage{}
	om := newTestManager(client, usage)
	req := &shared.OCRRequest{UserPrompt: "Extract the table", Images: []string{"a", "b", "c"}}

	start := time.Now()
	res, rerr := om.Mock(input(req))
	elapsed := time.Since(start)

	require.Nil(t, rerr)
	assert.True(t, res.Success)
	assert.GreaterOrEqual(t, elapsed, shared.MockDelay)
	assert.Less(t, elapsed, shared.MockDelay+time.Second)
	require.NotNil(t, res.ProcessingTime)
	assert.GreaterOrEqual(t, *res.ProcessingTime, shared.MockDelay.Milliseconds())
	assert.Contains(t, res.Result, `- User Prompt: "Extract the table"`)
	assert.Contains(t, res.Result, "- Images Processed: 3")
	assert.Contains(t, res.Result, "- **Images**: 3")
	assert.Contains(t, res.Result, "- No system prompt provided")

	require.Len(t, usage.records, 1)
	assert.Equal(t, shared.EndpointMock, usage.records[0].Endpoint)
	client.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything)
}

func TestMockCanceled(t *testing.T) {
	om := newTestManager(new(MockModelClient), nil)
	om.MockDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, rerr := om.Mock(OCRInput{Ctx: ctx, Req: &shared.OCRRequest{UserPrompt: "p", Images: []string{"a"}}})
	assert.Nil(t, res)
	require.NotNil(t, rerr)
	assert.Equal(t, 500, rerr.StatusCode)
}

func TestMockResult(t *testing.T) {
	req := &shared.OCRRequest{SystemPrompt: "Be precise", UserPrompt: "Read", Images: []string{"a", "b"}}
	out := MockResult(req, 7, 2, 4)

	assert.Contains(t, out, "# OCR Processing Complete")
	assert.Contains(t, out, `- System Prompt: "Be precise"`)
	assert.NotContains(t, out, "No system prompt provided")
	for _, line := range []string{
		"- **Text Blocks**: 7",
		"- **Images**: 2",
		"- **Tables**: 2",
		"- **Formulas**: 4",
	} {
		assert.Contains(t, out, line, fmt.Sprintf("missing %q", line))
	}
}
