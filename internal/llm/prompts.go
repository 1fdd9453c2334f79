package llm

import (
	_ "embed"
	"fmt"
	"strings"

	"resume-analyzer/internal/shared/telemetry"
)

//go:embed prompts/v1.txt
var promptV1 string

const (
	// DefaultPromptVersion is used when no or an unknown version is requested.
	DefaultPromptVersion = "v1"

	systemPromptStrict  = "You are a resume analysis engine. Respond with JSON only. No markdown. Never omit keys. Output must match the schema exactly."
	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."
)

// Message is a provider-neutral chat message.
type Message struct {
	Role    string
	Content string
}

// PromptTemplate returns the prompt template text and whether the version was recognized.
func PromptTemplate(version string) (string, bool) {
	switch version {
	case "v1":
		return promptV1, true
	default:
		return promptV1, false
	}
}

// BuildMessages creates the chat messages for a resume analysis request. A non-empty
// extraSystem is sent first.
func BuildMessages(input AnalyzeInput, model string, extraSystem string) []Message {
	_, developer := resolvePromptTemplate(input, model)
	messages := make([]Message, 0, 4)
	if strings.TrimSpace(extraSystem) != "" {
		messages = append(messages, Message{Role: "system", Content: extraSystem})
	}
	return append(messages,
		Message{Role: "system", Content: systemPromptStrict},
		Message{Role: "developer", Content: developer},
		Message{Role: "user", Content: buildUserPrompt(input)},
	)
}

// BuildFixMessages creates the chat messages asking the model to repair raw output.
func BuildFixMessages(input AnalyzeInput, model string, extraSystem string, raw []byte) []Message {
	_, developer := resolvePromptTemplate(input, model)
	messages := make([]Message, 0, 4)
	if strings.TrimSpace(extraSystem) != "" {
		messages = append(messages, Message{Role: "system", Content: extraSystem})
	}
	return append(messages,
		Message{Role: "system", Content: systemPromptFixJSON},
		Message{Role: "developer", Content: developer},
		Message{Role: "user", Content: fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", string(raw))},
	)
}

// SplitMessages joins system and developer messages into one instruction and the rest
// into one prompt, for providers without chat roles.
func SplitMessages(messages []Message) (system string, prompt string) {
	var sys, user []string
	for _, m := range messages {
		switch m.Role {
		case "system", "developer":
			sys = append(sys, m.Content)
		default:
			user = append(user, m.Content)
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(user, "\n\n")
}

func resolvePromptTemplate(input AnalyzeInput, model string) (string, string) {
	version := strings.TrimSpace(input.PromptVersion)
	template, ok := PromptTemplate(version)
	if !ok {
		telemetry.Warn("llm.prompt_version_unknown", map[string]any{"requested": version, "used": DefaultPromptVersion})
		version = DefaultPromptVersion
	}

	role := strings.TrimSpace(input.TargetRole)
	if role == "" {
		role = "N/A"
	}
	replacer := strings.NewReplacer(
		"{{PROMPT_VERSION}}", version,
		"{{MODEL}}", model,
		"{{JOB_TITLE}}", role,
	)
	return version, replacer.Replace(template)
}

func buildUserPrompt(input AnalyzeInput) string {
	jd := input.JobDescription
	if strings.TrimSpace(jd) == "" {
		jd = "N/A"
	}
	title := input.TargetRole
	if strings.TrimSpace(title) == "" {
		title = "N/A"
	}
	return fmt.Sprintf("Job Title:\n%s\n\nJob Description:\n%s\n\nResume Text:\n%s", title, jd, input.ResumeText)
}
