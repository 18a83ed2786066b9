// Package judge asks an LLM whether a fetched page is a company's own website.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/pkg/anthropic"
)

const (
	defaultMaxTokens = 256
	defaultMaxChars  = 8000
)

const systemPrompt = `You check whether a web page is the official website of a specific company.
Answer with a single JSON object and nothing else:
{"match": true|false, "confidence": 0-100, "evidence": "<one sentence>"}
Confidence is how sure you are of your match answer. Parked, for-sale, directory and
social-media pages are never a match.`

// Judge verifies pages with an Anthropic model.
type Judge struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	maxChars  int
}

// Option configures a Judge.
type Option func(*Judge)

// WithModel overrides the model.
func WithModel(model string) Option {
	return func(j *Judge) {
		if model != "" {
			j.model = model
		}
	}
}

// WithMaxChars limits how much page text is sent.
func WithMaxChars(n int) Option {
	return func(j *Judge) {
		if n > 0 {
			j.maxChars = n
		}
	}
}

// New creates a Judge over client.
func New(client anthropic.Client, opts ...Option) *Judge {
	j := &Judge{
		client:    client,
		model:     anthropic.DefaultModel,
		maxTokens: defaultMaxTokens,
		maxChars:  defaultMaxChars,
	}
	for _, o := range opts {
		o(j)
	}
	return j
}

// Verify asks whether text, fetched from url, belongs to the company in q.
func (j *Judge) Verify(ctx context.Context, q model.CompanyQuery, url, text string) (*model.Verdict, error) {
	temp := 0.0
	resp, err := j.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       j.model,
		MaxTokens:   j.maxTokens,
		System:      systemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: j.prompt(q, url, text)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "judge: create message")
	}
	resp.Usage.LogCost(j.model, "judge")

	v, err := ParseVerdict(resp.Text())
	if err != nil {
		return nil, err
	}
	zap.L().Debug("judge: verdict",
		zap.String("company", q.Name),
		zap.String("url", url),
		zap.Bool("match", v.Match),
		zap.Float64("confidence", v.Confidence),
	)
	return v, nil
}

func (j *Judge) prompt(q model.CompanyQuery, url, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", q.Name)
	if q.City != "" {
		fmt.Fprintf(&b, "City: %s\n", q.City)
	}
	if q.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", q.Phone)
	}
	if q.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", q.Address)
	}
	if q.Context != "" {
		fmt.Fprintf(&b, "Industry: %s\n", q.Context)
	}
	fmt.Fprintf(&b, "URL: %s\n\nPage content:\n%s", url, truncate(text, j.maxChars))
	return b.String()
}

type rawVerdict struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"`
	Reasoning  string  `json:"reasoning"`
}

// ParseVerdict extracts a verdict from a model reply. Code fences and
// surrounding prose are ignored and malformed JSON is repaired. Confidence
// given as a 0-1 fraction is scaled to 0-100.
func ParseVerdict(reply string) (*model.Verdict, error) {
	body := extractObject(reply)
	if body == "" {
		return nil, eris.Errorf("judge: no json object in reply %q", truncate(reply, 200))
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(body)
		if repairErr != nil {
			return nil, eris.Wrapf(err, "judge: unmarshal verdict (repair failed: %v)", repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return nil, eris.Wrap(err, "judge: unmarshal repaired verdict")
		}
	}

	// A value strictly between 0 and 1 is a fraction; 1 itself is on the
	// 0-100 scale the prompt asks for.
	conf := raw.Confidence
	if conf > 0 && conf < 1 {
		conf *= 100
	}
	conf = min(max(conf, 0), 100)

	evidence := raw.Evidence
	if evidence == "" {
		evidence = raw.Reasoning
	}
	return &model.Verdict{Match: raw.Match, Confidence: conf, Evidence: evidence}, nil
}

func extractObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		// Truncated reply; let the repair close it.
		return s[start:]
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
