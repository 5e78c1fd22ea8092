package guardrail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relabs-ai/relay/model"
)

// Classifier is a model-backed Guardrail: it asks a fast model to judge the
// text against its instructions and maps the structured answer to a
// verdict.
type Classifier struct {
	name         string
	instructions string
	m            model.Model
	modelID      string
	// decide maps the raw classification to a verdict.
	decide func(c Classification) *Verdict
}

// ClassifierOptions configure a Classifier.
type ClassifierOptions struct {
	// Model is the model id classification requests run on. Empty uses
	// the provider default.
	Model string
}

// WithModel pins the classifier to a specific model id, typically a fast
// tier model.
func WithModel(id string) func(o *ClassifierOptions) {
	return func(o *ClassifierOptions) { o.Model = id }
}

// Classification is the JSON answer expected from the classifier model.
type Classification struct {
	Reasoning string `json:"reasoning"`
	Flagged   bool   `json:"flagged"`
	// Topical reports whether the text is about the guarded topic at all.
	// Only meaningful for guardrails that scope to a topic.
	Topical bool `json:"topical"`
}

// NewClassifier builds a model-backed guardrail. decide may be nil, in
// which case a flagged classification is rejected with the model's
// reasoning.
func NewClassifier(name, instructions string, m model.Model, decide func(c Classification) *Verdict, optFns ...func(o *ClassifierOptions)) *Classifier {
	var opts ClassifierOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if decide == nil {
		decide = func(c Classification) *Verdict {
			if c.Flagged {
				return &Verdict{Allowed: false, Reason: c.Reasoning}
			}
			return &Verdict{Allowed: true}
		}
	}
	return &Classifier{name: name, instructions: instructions, m: m, modelID: opts.Model, decide: decide}
}

// Name implements Guardrail.
func (c *Classifier) Name() string { return c.name }

const classifierFormat = `Respond with a single JSON object and nothing else: ` +
	`{"reasoning": "<brief reasoning>", "flagged": <true|false>, "topical": <true|false>}`

// Check implements Guardrail.
func (c *Classifier) Check(ctx context.Context, text string) (*Verdict, error) {
	resp, err := c.m.Complete(ctx, model.Request{
		Model:        c.modelID,
		Instructions: c.instructions + "\n\n" + classifierFormat,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("guardrail %s: classifier call failed: %w", c.name, err)
	}

	classification, err := parseClassification(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("guardrail %s: %w", c.name, err)
	}

	return c.decide(*classification), nil
}

// parseClassification tolerates models that wrap the JSON in code fences or
// prose.
func parseClassification(content string) (*Classification, error) {
	raw := content
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	var c Classification
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("unparseable classification %q: %w", content, err)
	}
	return &c, nil
}

// NewUSWeatherGuardrail rejects input asking about weather outside the
// United States. Non-weather input always passes.
func NewUSWeatherGuardrail(m model.Model, optFns ...func(o *ClassifierOptions)) *Classifier {
	return NewClassifier(
		"us_weather_only",
		"Determine whether the user is asking about weather, and if so whether the location is inside the United States. "+
			"Set topical=true when the request is about weather. "+
			"Set flagged=true only when the request is about weather at a location outside the United States.",
		m,
		func(c Classification) *Verdict {
			if c.Topical && c.Flagged {
				return &Verdict{
					Allowed: false,
					Reason:  "this service only supports weather in the US",
				}
			}
			return &Verdict{Allowed: true}
		},
		optFns...,
	)
}

// NewNoPoemGuardrail rejects output that is primarily a poem.
func NewNoPoemGuardrail(m model.Model, optFns ...func(o *ClassifierOptions)) *Classifier {
	return NewClassifier(
		"no_poem",
		"Determine if the provided text is a poem. Set flagged=true if the text is primarily poetic "+
			"(multiple short lines, deliberate rhyme, meter-like structure, stanza formatting). "+
			"Otherwise set flagged=false. Provide concise reasoning.",
		m,
		func(c Classification) *Verdict {
			if c.Flagged {
				return &Verdict{Allowed: false, Reason: "output appears to be a poem"}
			}
			return &Verdict{Allowed: true}
		},
		optFns...,
	)
}
