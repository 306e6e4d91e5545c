package rewrite

import "fmt"

const promptTemplate = `Rewrite the following text in a %s tone. The output should only be the rewritten text, without any introductory phrases like "Here is the rewritten text:" or any other commentary.

Original Text:
---
%s
---
`

// BuildPrompt builds the instruction sent to the model. The tone name and
// the text are embedded verbatim.
func BuildPrompt(text string, tone Tone) string {
	return fmt.Sprintf(promptTemplate, tone.Label(), text)
}
