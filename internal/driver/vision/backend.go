package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"autopress/internal/logging"
)

// Action is one primitive step the reasoning backend asks the driver to
// replay on the live page. Coordinates are viewport pixels.
type Action struct {
	Type   string  `json:"type"` // click, type, press, scroll, done, fail
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Text   string  `json:"text,omitempty"`
	Key    string  `json:"key,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Value  string  `json:"value,omitempty"`  // carried by done when reading data off screen
	Detail string  `json:"detail,omitempty"` // carried by fail
}

// Backend turns an instruction plus the current screen capture into primitive
// actions. Implementations must be safe for sequential reuse; they are never
// called concurrently for one driver.
type Backend interface {
	Plan(ctx context.Context, instruction string, screenshot []byte) ([]Action, error)
}

const planPreamble = `You are operating a CMS admin web page through screenshots.
Respond with a JSON object {"actions":[...]} and nothing else.
Each action is one of:
 {"type":"click","x":N,"y":N}            click at viewport pixel coordinates
 {"type":"type","text":S}                type text at the current focus
 {"type":"press","key":S}                press a key (enter, tab, escape)
 {"type":"scroll","dx":N,"dy":N}         scroll the page
 {"type":"done","value":S}               the instruction is complete; value only when asked to read something
 {"type":"fail","detail":S}              the instruction cannot be completed on this screen
Emit at most 5 actions; end with done only once the instruction is visibly complete.

Instruction: `

// GenAIBackend implements Backend on the Gemini API.
type GenAIBackend struct {
	client *genai.Client
	model  string
}

// NewGenAIBackend creates a Gemini-backed planner.
func NewGenAIBackend(ctx context.Context, apiKey, model string) (*GenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("vision backend API key is required")
	}
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIBackend{client: client, model: model}, nil
}

// Plan sends the screenshot and instruction to the model and decodes the
// returned action list.
func (b *GenAIBackend) Plan(ctx context.Context, instruction string, screenshot []byte) ([]Action, error) {
	timer := logging.StartTimer(logging.CategoryVision, "GenAIBackend.Plan")
	defer timer.Stop()

	parts := []*genai.Part{
		genai.NewPartFromBytes(screenshot, "image/png"),
		genai.NewPartFromText(planPreamble + instruction),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("genai plan failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	// Some models still wrap JSON in a fence despite the MIME type.
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var payload struct {
		Actions []Action `json:"actions"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if len(payload.Actions) == 0 {
		return nil, fmt.Errorf("backend returned no actions")
	}
	logging.VisionDebug("plan: %d actions for %q", len(payload.Actions), firstLine(instruction))
	return payload.Actions, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
