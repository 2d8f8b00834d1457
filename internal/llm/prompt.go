package llm

import (
	"fmt"
	"strings"

	"github.com/copyflow-project/copyflow/pkg/language"
)

func translateSystemPrompt(req TranslateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Role: You are a professional copywriter and localization expert native in %s (%s).\n",
		language.DisplayName(req.Language), req.Language)
	b.WriteString("Task: Translate the user's Chinese text into the target language and specific country context.\n")
	b.WriteString("Requirements:\n")
	b.WriteString("1. PRESERVE FORMATTING: Keep all Markdown syntax, bullet points, headers, and bold text exactly as they are.\n")
	fmt.Fprintf(&b, "2. TONE: %s marketing copy.\n", req.Tone)
	b.WriteString("3. LOCALIZATION: Use idioms and spelling specific to the target country.\n")
	for _, line := range language.Guidance(req.Language, req.Tone) {
		b.WriteString("   - ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("Return only the translated text.")
	return b.String()
}

func auditSystemPrompt(req AuditRequest) string {
	var b strings.Builder
	b.WriteString("Role: You are a strict compliance officer and linguistics expert.\n")
	b.WriteString("Task: Compare the Source Chinese Text with the Target Translation and generate a structured audit report in JSON.\n")
	fmt.Fprintf(&b, "Context: The target language is %s.\n\n", req.Language)
	b.WriteString("IMPORTANT:\n")
	b.WriteString("When identifying issues, the \"target_segment\" field MUST be an EXACT copy of the substring found in the Target Translation text. ")
	b.WriteString("Do not abbreviate or change punctuation, so the system can highlight it precisely.\n\n")
	b.WriteString("Checklist for evaluation:\n")
	b.WriteString("1. Accuracy: Is the original meaning fully preserved?\n")
	b.WriteString("2. Nuance: Is it native-sounding? Detect any \"Chinglish\" or awkward phrasing.\n")
	b.WriteString("3. Safety: Are there sensitive, political, religious, or offensive words?\n")
	b.WriteString("4. Formatting: Is the structure consistent with the source?\n")
	b.WriteString("5. Ambiguity: Are there confusing or dual-meaning sentences?")
	return b.String()
}

func auditUserPrompt(req AuditRequest) string {
	return "Source Chinese:\n" + req.Source + "\n\nTarget Translation:\n" + req.Target
}
