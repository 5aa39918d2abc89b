package llm

import "strings"

// CleanJSONResponse strips code fences and surrounding prose from a model
// reply, leaving the outermost JSON object or array.
func CleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```JSON", "")
	content = strings.ReplaceAll(content, "```", "")
	content = strings.TrimSpace(content)

	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return content
	}
	closing := "}"
	if content[start] == '[' {
		closing = "]"
	}
	end := strings.LastIndex(content, closing)
	if end > start {
		content = content[start : end+1]
	}
	return content
}
