package llm

// ExtractJSON finds and extracts the first balanced JSON object from text.
// Handles cases where the model adds markdown fences or extra prose.
func ExtractJSON(text string) string {
	start := -1
	end := -1
	braceCount := 0

	for i, char := range text {
		if char == '{' {
			if start == -1 {
				start = i
			}
			braceCount++
		} else if char == '}' {
			braceCount--
			if braceCount == 0 && start != -1 {
				end = i + 1
				break
			}
		}
	}

	if start != -1 && end != -1 {
		return text[start:end]
	}

	return ""
}
