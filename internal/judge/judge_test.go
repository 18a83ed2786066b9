package judge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/pkg/anthropic"
)

type fakeClient struct {
	reply string
	err   error
	req   anthropic.MessageRequest
}

func (f *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.reply}},
		Usage:   anthropic.TokenUsage{InputTokens: 900, OutputTokens: 40},
	}, nil
}

func TestVerify(t *testing.T) {
	t.Parallel()

	c := &fakeClient{reply: `{"match": true, "confidence": 92, "evidence": "Header shows Example Plumbing, Austin TX"}`}
	j := New(c, WithMaxChars(50))

	v, err := j.Verify(context.Background(), model.CompanyQuery{Name: "Example Plumbing", City: "Austin", Phone: "512-555-0100"},
		"https://exampleplumbing.com", strings.Repeat("x", 500))
	require.NoError(t, err)
	assert.True(t, v.Match)
	assert.InDelta(t, 92, v.Confidence, 0.001)
	assert.Equal(t, "Header shows Example Plumbing, Austin TX", v.Evidence)

	assert.Equal(t, anthropic.DefaultModel, c.req.Model)
	require.Len(t, c.req.Messages, 1)
	prompt := c.req.Messages[0].Content
	assert.Contains(t, prompt, "Company: Example Plumbing")
	assert.Contains(t, prompt, "City: Austin")
	assert.Contains(t, prompt, "URL: https://exampleplumbing.com")
	assert.NotContains(t, prompt, strings.Repeat("x", 51), "page text is truncated")
	require.NotNil(t, c.req.Temperature)
	assert.Zero(t, *c.req.Temperature)
}

func TestVerify_Errors(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeClient{err: errors.New("overloaded")}).Verify(context.Background(), model.CompanyQuery{Name: "Acme"}, "https://acme.com", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "judge: create message")

	_, err = New(&fakeClient{reply: "I cannot tell."}).Verify(context.Background(), model.CompanyQuery{Name: "Acme"}, "https://acme.com", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no json object")
}

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
		want  model.Verdict
	}{
		{"plain", `{"match": false, "confidence": 15, "evidence": "directory listing"}`, model.Verdict{Confidence: 15, Evidence: "directory listing"}},
		{"fenced", "```json\n{\"match\": true, \"confidence\": 80, \"evidence\": \"ok\"}\n```", model.Verdict{Match: true, Confidence: 80, Evidence: "ok"}},
		{"prose around", `Here is my answer: {"match": true, "confidence": 75, "evidence": "ok"} Thanks.`, model.Verdict{Match: true, Confidence: 75, Evidence: "ok"}},
		{"fraction", `{"match": true, "confidence": 0.85, "evidence": "ok"}`, model.Verdict{Match: true, Confidence: 85, Evidence: "ok"}},
		{"one is not a fraction", `{"match": true, "confidence": 1, "evidence": "ok"}`, model.Verdict{Match: true, Confidence: 1, Evidence: "ok"}},
		{"clamped", `{"match": true, "confidence": 140}`, model.Verdict{Match: true, Confidence: 100}},
		{"trailing comma", `{"match": true, "confidence": 90, "evidence": "ok",}`, model.Verdict{Match: true, Confidence: 90, Evidence: "ok"}},
		{"truncated", `{"match": true, "confidence": 88, "evidence": "same phone`, model.Verdict{Match: true, Confidence: 88, Evidence: "same phone"}},
		{"reasoning key", `{"match": false, "confidence": 10, "reasoning": "different city"}`, model.Verdict{Confidence: 10, Evidence: "different city"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseVerdict(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}
