package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"recruiter-crm/internal/cv"
	"recruiter-crm/internal/llm"
	"recruiter-crm/internal/storage"
)

// ScorePromptMaxChars bounds the CV text sent for scoring.
const ScorePromptMaxChars = 12000

// Result is one scoring outcome: an integer score in [0,100] and a prose
// justification naming which conditions were met and unmet.
type Result struct {
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

// breakdown is the structured response requested from the model. The final
// score is computed locally from the category points so the knock-out cap is
// enforced deterministically rather than trusted to the model's arithmetic.
type breakdown struct {
	MandatoryPoints  float64  `json:"mandatory_points"`
	DesirablePoints  float64  `json:"desirable_points"`
	ExperiencePoints float64  `json:"experience_points"`
	UnmetMandatory   []string `json:"unmet_mandatory"`
	Justification    string   `json:"justification"`
}

// Scorer evaluates a CV against a posting's conditions using the LLM.
type Scorer struct {
	gen   llm.Generator
	cache *Cache
}

func NewScorer(gen llm.Generator) *Scorer {
	return &Scorer{
		gen:   gen,
		cache: NewCache(5 * time.Minute),
	}
}

// Score runs one evaluation. Transport and parse failures are returned as
// errors; the caller persists the failure sentinel and retries on the next
// sweep.
func (s *Scorer) Score(ctx context.Context, cvText string, posting *storage.Posting, variant Variant) (*Result, error) {
	if s.gen == nil {
		return nil, fmt.Errorf("LLM service not configured")
	}

	text := cv.Truncate(cvText, ScorePromptMaxChars)

	if cached, ok := s.cache.Get(posting.ID, variant, text); ok {
		log.Printf("[Scorer] cache hit for posting %d", posting.ID)
		return cached, nil
	}

	prompt := buildScoringPrompt(text, posting, variant)

	response, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm scoring failed: %w", err)
	}

	jsonStr := llm.ExtractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no valid JSON in LLM response")
	}

	var b breakdown
	if err := json.Unmarshal([]byte(jsonStr), &b); err != nil {
		return nil, fmt.Errorf("failed to parse llm scores: %w", err)
	}

	result := finalize(&b, variant.Weights())
	s.cache.Set(posting.ID, variant, text, result)
	return result, nil
}

// finalize clamps category points to their caps, sums, rounds, and applies
// the knock-out cap when any mandatory condition is unmet.
func finalize(b *breakdown, w Weights) *Result {
	mandatory := clampFloat(b.MandatoryPoints, 0, float64(w.Mandatory))
	desirable := clampFloat(b.DesirablePoints, 0, float64(w.Desirable))
	experience := clampFloat(b.ExperiencePoints, 0, float64(w.Experience))

	score := int(math.Round(mandatory + desirable + experience))
	if len(b.UnmetMandatory) > 0 && score > HardCap {
		score = HardCap
	}
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	return &Result{Score: score, Justification: b.Justification}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func buildScoringPrompt(cvText string, posting *storage.Posting, variant Variant) string {
	w := variant.Weights()
	var sb strings.Builder

	sb.WriteString("You are an expert technical recruiter. Evaluate this candidate's CV against the job posting using the exact rubric below.\n\n")

	sb.WriteString("## JOB POSTING\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n", posting.Title))
	sb.WriteString(fmt.Sprintf("Description: %s\n\n", posting.Description))

	sb.WriteString("### MANDATORY CONDITIONS (knock-out)\n")
	if len(posting.MandatoryConditions) == 0 {
		sb.WriteString("- none\n")
	}
	for _, c := range posting.MandatoryConditions {
		sb.WriteString(fmt.Sprintf("- %s\n", c))
	}

	sb.WriteString("\n### DESIRABLE CONDITIONS\n")
	if len(posting.DesirableConditions) == 0 {
		sb.WriteString("- none\n")
	}
	for _, c := range posting.DesirableConditions {
		sb.WriteString(fmt.Sprintf("- %s\n", c))
	}

	sb.WriteString("\n## CV TEXT\n\"\"\"\n")
	sb.WriteString(cvText)
	sb.WriteString("\n\"\"\"\n\n")

	sb.WriteString("## RUBRIC\n")
	sb.WriteString(fmt.Sprintf("- Mandatory conditions: up to %d points, split evenly across the %d mandatory conditions. A condition is met only with clear evidence in the CV.\n",
		w.Mandatory, max(len(posting.MandatoryConditions), 1)))
	sb.WriteString(fmt.Sprintf("- Desirable conditions: up to %d points, split evenly across the %d desirable conditions. Partial fulfillment earns half the condition's weight.\n",
		w.Desirable, max(len(posting.DesirableConditions), 1)))
	sb.WriteString(fmt.Sprintf("- Experience and alignment: up to %d points, composed of role alignment (max %d), impact and quality of evidence (max %d), and inferred soft skills (max %d).\n",
		w.Experience, w.RoleAlignment, w.Impact, w.SoftSkills))

	if variant == VariantStrict {
		sb.WriteString("\nClassify every condition as MET, PARTIAL, or KNOCK-OUT (unmet mandatory). PARTIAL applies only to desirable conditions; a mandatory condition is either met or a knock-out.\n")
	}

	sb.WriteString("\n## RESPONSE FORMAT (JSON only, no markdown)\n")
	sb.WriteString(`{
  "mandatory_points": 0,
  "desirable_points": 0,
  "experience_points": 0,
  "unmet_mandatory": ["exact text of each unmet mandatory condition, empty array if all met"],
  "justification": "One prose paragraph: verdict first, then a comparative argument naming which specific conditions were met and unmet, then a recommendation."
}
`)
	sb.WriteString("\nImportant:\n")
	sb.WriteString("- If ANY mandatory condition is unmet the candidate cannot be recommended outright; list it in unmet_mandatory.\n")
	sb.WriteString("- The justification must name the specific conditions, not paraphrase them vaguely.\n")
	sb.WriteString("- Write the justification in the language of the posting.\n")

	return sb.String()
}
