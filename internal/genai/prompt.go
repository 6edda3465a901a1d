// internal/genai/prompt.go
package genai

import (
	"fmt"
	"strings"
)

// systemInstruction is the fixed output contract for the generation model.
const systemInstruction = `You are a code-generator that generates readable and clear html, css and js files.
You will output ONLY valid html, css and js files with no explanation, no markdown formatting and no backticks.
The code must be ready to be used by Github Pages to deploy as-is.
IMPORTANT: Be sure to pass all the checks provided, if any.
CRITICAL: The output MUST contain a README.md file that documents the generated code.
Respond with a single JSON array of objects, each with "path" and "content" string fields, and nothing else.`

// buildPrompt composes the per-call instruction from the brief, a bulleted
// rendering of the checks, and the fixed hard requirements.
func buildPrompt(brief string, checks []string) string {
	var parts []string

	parts = append(parts, "TASK:")
	parts = append(parts, brief)

	parts = append(parts, "\nCHECKS:")
	for _, check := range checks {
		parts = append(parts, fmt.Sprintf("- %s", check))
	}

	parts = append(parts, "\nREQUIREMENTS:")
	parts = append(parts, "1. CRITICAL: The output must contain a README. The README should contain FEATURES, DOCUMENTATION, HOW TO USE and PROJECT STRUCTURE.")
	parts = append(parts, "2. CRITICAL: The output must contain an index.html page in the root directory. This is what Github pages will deploy.")
	parts = append(parts, "3. Use the attachments for data. If it is missing, handle it with mock data if external apis cannot be used/web scraped data cannot be found.")
	parts = append(parts, "4. Do NOT use any triple backticks (```) or markdown formatting.")
	parts = append(parts, "5. Return only valid code inside the files. No natural language should be used.")

	return strings.Join(parts, "\n")
}
