package extract

import "strings"

const FieldsPrompt = `Extract the following fields from this job posting:

- Position
- Company
- Salary
- Commitment (Full time, Part time, Freelance, 10 hrs/wk)
- Industry (list all that apply)
- Location (city names or 'Remote')

Rules:
- Use an empty string or empty list when the posting does not say
- Keep values short; do not invent details
- Respond with ONLY valid JSON, no markdown code blocks, no explanations

Output JSON exactly like this:

{
  "Position": "",
  "Company": "",
  "Salary": "",
  "Commitment": "",
  "Industry": [],
  "Location": []
}`

const SummaryPrompt = `Create a concise 2-3 sentence summary of this job posting that captures:
- The role and level
- Key responsibilities
- Most important requirements

Keep it under 300 characters. Be direct and informative. Respond with the summary only.`

// BuildFieldsPrompt appends the posting to the field extraction instructions.
func BuildFieldsPrompt(posting string) string {
	return buildPrompt(FieldsPrompt, posting)
}

// BuildSummaryPrompt appends the posting to the summary instructions.
func BuildSummaryPrompt(posting string) string {
	return buildPrompt(SummaryPrompt, posting)
}

func buildPrompt(instructions, posting string) string {
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n---\nJob posting:\n---\n")
	sb.WriteString(strings.TrimSpace(posting))
	return sb.String()
}
