package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"advisor/pkg/models"
)

// PersonaConfig describes one LLM-backed advisory persona.
type PersonaConfig struct {
	// ID is the unique worker identifier (e.g. "career").
	ID string `mapstructure:"id" yaml:"id"`
	// Name is the display name (e.g. "Career Coach").
	Name string `mapstructure:"name" yaml:"name"`
	// Capabilities are the domain tags the persona declares.
	Capabilities []string `mapstructure:"capabilities" yaml:"capabilities"`
	// ConfidenceThreshold gates merge inclusion, in [0,1].
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	// SystemPrompt frames the persona's expertise for the model.
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`
	// Knowledge holds static domain facts keyed by domain tag, exposed
	// through KnowledgeSnapshot.
	Knowledge map[string]map[string]any `mapstructure:"knowledge" yaml:"knowledge"`
}

// PersonaWorker is a Worker backed by the Anthropic Messages API. Each
// persona carries its own system prompt and capability tags; the
// coordination core stays unaware of how the text is produced.
type PersonaWorker struct {
	cfg    PersonaConfig
	client *Client
}

// NewPersonaWorker creates a persona worker from its configuration and a
// shared API client.
func NewPersonaWorker(cfg PersonaConfig, client *Client) (*PersonaWorker, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("persona worker requires an id")
	}
	if client == nil {
		return nil, fmt.Errorf("persona worker %q requires an API client", cfg.ID)
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("persona worker %q: confidence threshold %v outside [0,1]", cfg.ID, cfg.ConfidenceThreshold)
	}
	return &PersonaWorker{cfg: cfg, client: client}, nil
}

// ID returns the persona's worker identifier.
func (p *PersonaWorker) ID() string { return p.cfg.ID }

// Capabilities returns the persona's declared domain tags.
func (p *PersonaWorker) Capabilities() []string { return p.cfg.Capabilities }

// ConfidenceThreshold returns the merge-inclusion threshold.
func (p *PersonaWorker) ConfidenceThreshold() float64 { return p.cfg.ConfidenceThreshold }

// Process answers the query in the persona's voice, rendering the request
// context into the prompt so the model can use the caller's signals.
func (p *PersonaWorker) Process(ctx context.Context, query string, reqCtx models.Context) (string, error) {
	prompt := query
	if rendered := renderContext(reqCtx); rendered != "" {
		prompt = fmt.Sprintf("%s\n\nRequest context:\n%s", query, rendered)
	}

	text, err := p.client.Complete(ctx, p.cfg.SystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("persona %s: %w", p.cfg.ID, err)
	}
	return text, nil
}

// recommendPrompt asks for machine-readable recommendations. The response
// schema mirrors models.Recommendation.
const recommendPrompt = `Based on the user data below, produce your top recommendations.
Respond with a JSON array only. Each element must have:
  "type" (string), "priority" (number), "summary" (string),
  and optionally "tags", "required_skills", "provided_skills" (string arrays)
  and "details" (object).

User data:
%s`

// Recommend asks the persona for prioritized recommendations and parses the
// JSON reply. Items the model malformed are skipped rather than failing the
// batch.
func (p *PersonaWorker) Recommend(ctx context.Context, userData models.Context) ([]models.Recommendation, error) {
	text, err := p.client.Complete(ctx, p.cfg.SystemPrompt, fmt.Sprintf(recommendPrompt, renderContext(userData)))
	if err != nil {
		return nil, fmt.Errorf("persona %s: %w", p.cfg.ID, err)
	}

	recs, err := parseRecommendations(text)
	if err != nil {
		return nil, fmt.Errorf("persona %s: %w", p.cfg.ID, err)
	}
	return recs, nil
}

// KnowledgeSnapshot exposes the persona's static domain facts. Domains the
// persona has no facts for yield a nil map, which the enhancer treats as no
// contribution.
func (p *PersonaWorker) KnowledgeSnapshot(domain string) (map[string]any, error) {
	if len(p.cfg.Knowledge) == 0 {
		return nil, nil
	}
	return p.cfg.Knowledge[domain], nil
}

// renderContext formats a context as stable "key: value" lines.
func renderContext(c models.Context) string {
	if len(c) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, c[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseRecommendations extracts the first JSON array from the model output
// and unmarshals it, dropping items that fail validation.
func parseRecommendations(text string) ([]models.Recommendation, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var raw []models.Recommendation
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parse recommendations: %w", err)
	}

	recs := make([]models.Recommendation, 0, len(raw))
	for _, r := range raw {
		if r.Valid() {
			recs = append(recs, r)
		}
	}
	return recs, nil
}
