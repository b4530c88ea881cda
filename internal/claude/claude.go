package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joshharrison/srpa/internal/model"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// Finding is one per-task observation.
type Finding struct {
	TaskID     string `json:"task_id"`
	Cause      string `json:"cause"`      // what dominates the response time
	Suggestion string `json:"suggestion"` // empty when nothing needs changing
}

// Explanation holds the full response from Claude.
type Explanation struct {
	Findings []Finding `json:"findings"`
	Summary  string    `json:"summary"`
}

// Client wraps the Anthropic SDK for Claude API calls.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
}

// NewClient creates a Claude client. apiKey defaults to ANTHROPIC_API_KEY env.
// model defaults to DefaultModel.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	m := anthropic.Model(DefaultModel)
	if model != "" {
		m = anthropic.Model(model)
	}

	return &Client{inner: inner, model: m}, nil
}

const explainPrompt = `You are a real-time systems engineer reviewing a Stack Resource Policy schedulability analysis of fixed-priority periodic tasks.

You will receive:
1. The task set: priorities (higher number is more urgent), deadlines, inter-arrival times and nested critical sections per task.
2. The analysis report: per task WCET, blocking from lower-priority critical sections, interference from higher-priority releases and the worst-case response time, or a deadline miss.

For every task, state what dominates its response time and, if it misses its deadline or has little slack, one concrete change (shorter critical section, priority change, longer period) that would help.
Only use task IDs from the provided task set. Do not recompute the analysis; trust the reported numbers.

Return your answer as JSON with this exact structure:
{
  "findings": [
    {"task_id": "<task id>", "cause": "<what dominates the response time>", "suggestion": "<change, or empty>"}
  ],
  "summary": "<one paragraph assessment of the task set>"
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.
`

// buildPrompt constructs the user message from the task set and report.
func buildPrompt(tasks model.Tasks, report string) string {
	var b strings.Builder
	b.WriteString("## Task Set\n\n")
	b.WriteString(tasks.String())
	b.WriteString("\n## Analysis Report\n\n")
	b.WriteString(report)
	return b.String()
}

// Explain asks Claude for a per-task explanation of an analysis report.
func (c *Client) Explain(ctx context.Context, tasks model.Tasks, report string) (*Explanation, error) {
	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(4096),
		System: []anthropic.TextBlockParam{
			{Text: explainPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(tasks, report))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return parseExplanation(text, tasks)
}

// parseExplanation decodes the model output and drops findings for task
// IDs that are not in the set.
func parseExplanation(text string, tasks model.Tasks) (*Explanation, error) {
	text = stripJSONFences(text)

	var result Explanation
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parse claude response: %w\nraw: %s", err, text)
	}

	kept := result.Findings[:0]
	for _, f := range result.Findings {
		if _, ok := tasks.Find(f.TaskID); ok {
			kept = append(kept, f)
		}
	}
	result.Findings = kept
	return &result, nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
