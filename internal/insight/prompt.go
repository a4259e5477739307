package insight

import (
	"fmt"
	"strings"

	"github.com/sells-group/site-scout/internal/model"
)

const systemPrompt = `You are a retail site-selection analyst. You receive location scores (0-100 scales) and raw point-of-interest counts for a candidate retail location. Write a concise assessment in 3-5 sentences: overall verdict first, then the strongest factor, the weakest factor, and one concrete recommendation. Plain prose, no markdown, no lists. Competition is a density measure: high competition means a crowded market.`

// buildUserPrompt renders one score result as the model input. Features
// are listed in canonical order so identical results produce identical
// prompts, which keeps responses cacheable upstream.
func buildUserPrompt(result model.ScoreResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Location: %s (city: %s, radius: %.0fm)\n\n", result.Location, result.City, result.RadiusMeters)
	fmt.Fprintf(&b, "Scores:\n")
	fmt.Fprintf(&b, "- attractiveness: %.2f\n", result.Scores.Attractiveness)
	fmt.Fprintf(&b, "- competition: %.2f\n", result.Scores.Competition)
	fmt.Fprintf(&b, "- accessibility: %.2f\n", result.Scores.Accessibility)
	fmt.Fprintf(&b, "- suitability: %.2f\n", result.Scores.Suitability)
	fmt.Fprintf(&b, "- global: %.2f\n\n", result.Scores.GlobalScore)

	fmt.Fprintf(&b, "Raw features:\n")
	for _, name := range model.AllFeatures {
		fmt.Fprintf(&b, "- %s: %.1f\n", name, result.Features.Get(name))
	}

	return b.String()
}
