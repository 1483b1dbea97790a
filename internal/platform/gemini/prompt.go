package gemini

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
)

// defaultPromptTemplate is used when no template file is configured
const defaultPromptTemplate = `Transcribe the attached audio recording.

The speaker mostly uses the language "{{.Language}}" and may mix in English words.
Return only the transcribed text, with natural punctuation added.
Remove filler words such as "um" or "uh" when they do not carry meaning.
Fix obvious homophone mistakes from context, but never add or drop facts.
Do not add any prefix, suffix, explanation or quotation marks.`

// promptData represents the data passed to the prompt template
type promptData struct {
	Language string
}

// loadPrompt renders the configured template, or the default one when path
// is empty
func loadPrompt(path, language string) (string, error) {
	content := defaultPromptTemplate
	name := "default"
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: failed to read prompt template from %s: %v",
				ErrInvalidConfig, path, err)
		}
		content = string(raw)
		name = path
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Language: language}); err != nil {
		return "", fmt.Errorf("%w: failed to execute prompt template: %v", ErrInvalidConfig, err)
	}
	if buf.Len() == 0 {
		return "", fmt.Errorf("%w: prompt template renders to an empty prompt", ErrInvalidConfig)
	}
	return buf.String(), nil
}
