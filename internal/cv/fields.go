package cv

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"unicode/utf8"

	"recruiter-crm/internal/llm"
)

// FieldPromptMaxChars bounds the text sent for contact extraction; the first
// page carries the contact block, the rest only costs tokens.
const FieldPromptMaxChars = 4000

// Fields is the contact data extracted from a CV. Any field the model could
// not find stays nil.
type Fields struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// FieldExtractor asks the LLM for {full name, email, phone}. It never fails:
// transport or parse errors degrade to all-nil fields, because ingestion must
// not abort solely over missing contact data.
type FieldExtractor struct {
	gen llm.Generator
}

func NewFieldExtractor(gen llm.Generator) *FieldExtractor {
	return &FieldExtractor{gen: gen}
}

func (e *FieldExtractor) ExtractFields(ctx context.Context, text string) Fields {
	if e.gen == nil {
		return Fields{}
	}

	prompt := buildFieldPrompt(Truncate(text, FieldPromptMaxChars))

	response, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		log.Printf("[FieldExtractor] LLM call failed: %v", err)
		return Fields{}
	}

	jsonStr := llm.ExtractJSON(response)
	if jsonStr == "" {
		log.Printf("[FieldExtractor] no JSON in LLM response")
		return Fields{}
	}

	var fields Fields
	if err := json.Unmarshal([]byte(jsonStr), &fields); err != nil {
		log.Printf("[FieldExtractor] failed to parse LLM response: %v", err)
		return Fields{}
	}
	return fields
}

func buildFieldPrompt(text string) string {
	return fmt.Sprintf(`You are an expert CV parser. Extract the candidate's contact data from this CV text.

CV Text:
"""
%s
"""

Return ONLY a single valid JSON object (no markdown, no explanation) with exactly these three keys:
{
  "full_name": "Full name or null",
  "email": "email@example.com or null",
  "phone": "phone number or null"
}

Important:
- Be flexible with formatting: emails sometimes contain stray internal spaces ("juan @ mail . com" is "juan@mail.com").
- If several phone numbers appear, prefer the mobile number.
- Use JSON null (not the string "null") for anything you cannot find.`, text)
}

// Truncate bounds text to max bytes without splitting a multi-byte rune. A
// cut landing exactly on a rune boundary keeps that rune.
func Truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if r, size := utf8.DecodeLastRuneInString(cut); r == utf8.RuneError && size <= 1 {
		// The cut split a rune; back off its partial bytes.
		for len(cut) > 0 && !utf8.RuneStart(cut[len(cut)-1]) {
			cut = cut[:len(cut)-1]
		}
		if len(cut) > 0 && cut[len(cut)-1] >= utf8.RuneSelf {
			cut = cut[:len(cut)-1]
		}
	}
	return cut
}
