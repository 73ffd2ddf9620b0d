package scan

import "strings"

// schemaDescription is the concrete example of the JSON shape the model must
// return. It is embedded verbatim into every prompt so the model has an exact
// shape to imitate; this is the primary lever for parse success rate.
const schemaDescription = `
{
  "vulnerabilities": [
    {
      "type": "SQL Injection",
      "severity": "critical",
      "line": 45,
      "code_snippet": "query = 'SELECT * FROM users WHERE id = ' + user_id",
      "description": "User input is directly concatenated into SQL query without sanitization",
      "recommendation": "Use parameterized queries or an ORM to prevent SQL injection",
      "cwe_id": "CWE-89",
      "confidence": 0.95
    }
  ]
}
`

const promptStandard = `You are a security expert. Analyze this code for vulnerabilities.

File: {filename}
Code:
` + "```" + `
{code}
` + "```" + `

RESPOND WITH ONLY JSON. NO OTHER TEXT. START WITH { and END WITH }.

Use this exact format:
{schema}

If no vulnerabilities found, return:
{"vulnerabilities": []}

JSON ONLY. NO EXPLANATIONS.`

const promptDetailed = `Security analysis for: {filename}

Code:
` + "```" + `
{code}
` + "```" + `

RETURN ONLY JSON. Format:
{schema}

Analyze: input validation, injections, auth issues, crypto, data exposure.

JSON ONLY. START WITH { END WITH }`

const promptQuick = `Security scan for: {filename}

Code:
` + "```" + `
{code}
` + "```" + `

Find common vulnerabilities. Respond with ONLY this JSON format:
{schema}

Be concise but accurate. JSON only, no other text.`

var promptTemplates = map[string]string{
	"standard": promptStandard,
	"detailed": promptDetailed,
	"quick":    promptQuick,
}

// SchemaDescription returns the example response schema text.
func SchemaDescription() string {
	return schemaDescription
}

// GetPrompt returns the prompt template for the given type. Unknown types
// resolve to the standard template.
func GetPrompt(promptType string) string {
	if t, ok := promptTemplates[promptType]; ok {
		return t
	}
	return promptStandard
}

// FormatPrompt substitutes the filename, code, and schema placeholders into
// a template, producing the final instruction text. Pure and deterministic.
func FormatPrompt(template, filename, code string) string {
	r := strings.NewReplacer(
		"{filename}", filename,
		"{code}", code,
		"{schema}", schemaDescription,
	)
	return r.Replace(template)
}
