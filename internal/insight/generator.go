// Package insight turns score results into short natural-language
// assessments. Scoring never depends on this package; when the language
// model is unreachable the generator degrades to a deterministic
// rule-based summary.
package insight

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/site-scout/internal/config"
	"github.com/sells-group/site-scout/internal/model"
	"github.com/sells-group/site-scout/pkg/anthropic"
)

// Insight is one generated assessment.
type Insight struct {
	Text      string `json:"text"`
	Generated bool   `json:"generated"` // false when the fallback produced it
}

// Generator produces insights for score results.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	log       *zap.Logger
}

// NewGenerator builds a Generator. client may be nil, in which case
// every call takes the fallback path.
func NewGenerator(client anthropic.Client, cfg config.AnthropicConfig) *Generator {
	return &Generator{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       zap.L().Named("insight"),
	}
}

// Generate returns an assessment for the result. Provider failures are
// absorbed: the caller always gets usable text, with Generated marking
// whether the model or the fallback wrote it. Context cancellation is
// the one error that propagates.
func (g *Generator) Generate(ctx context.Context, result model.ScoreResult) (Insight, error) {
	if g.client == nil {
		return Insight{Text: Fallback(result)}, nil
	}

	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: buildUserPrompt(result)},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return Insight{}, ctx.Err()
		}
		g.log.Warn("insight generation failed, using fallback",
			zap.String("city", result.City),
			zap.Error(err),
		)
		return Insight{Text: Fallback(result)}, nil
	}

	resp.Usage.LogCost(g.model, "insight")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		g.log.Warn("insight response empty, using fallback")
		return Insight{Text: Fallback(result)}, nil
	}

	return Insight{Text: text, Generated: true}, nil
}

// Fallback writes a deterministic rule-based assessment. Same input,
// same text.
func Fallback(result model.ScoreResult) string {
	s := result.Scores

	var b strings.Builder
	fmt.Fprintf(&b, "Location %s scores %.1f/100 overall (%s). ", result.Location, s.GlobalScore, verdict(s.GlobalScore))
	fmt.Fprintf(&b, "Attractiveness is %s (%.1f) and accessibility is %s (%.1f). ",
		grade(s.Attractiveness), s.Attractiveness, grade(s.Accessibility), s.Accessibility)

	switch {
	case s.Competition >= 70:
		fmt.Fprintf(&b, "The market is crowded (competition %.1f); differentiation will matter more than foot traffic.", s.Competition)
	case s.Competition <= 30:
		fmt.Fprintf(&b, "Competitive pressure is low (%.1f), leaving room for a first mover.", s.Competition)
	default:
		fmt.Fprintf(&b, "Competitive pressure is moderate (%.1f).", s.Competition)
	}

	return b.String()
}

func verdict(global float64) string {
	switch {
	case global >= 70:
		return "a strong candidate"
	case global >= 45:
		return "a viable candidate"
	default:
		return "a weak candidate"
	}
}

func grade(v float64) string {
	switch {
	case v >= 70:
		return "high"
	case v >= 40:
		return "moderate"
	default:
		return "low"
	}
}
