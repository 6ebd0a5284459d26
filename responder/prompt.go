package responder

import (
	"fmt"
	"strings"

	"github.com/chorusmesh/chorus/core"
)

// SystemPrompt renders the role-conditioned system instruction shared by the
// provider adapters.
func SystemPrompt(role string) string {
	base := "You are one responder in a multi-agent conversation. Answer the user directly and concisely."
	if role == "" {
		return base
	}
	return fmt.Sprintf("%s Act in the role of %s.", base, role)
}

// UserPrompt serializes an input into the user-side prompt text. Prior
// results from earlier pipeline stages are included as context so a
// refinement stage can build on them.
func UserPrompt(input core.Input) string {
	var b strings.Builder

	if len(input.PriorResults) > 0 {
		b.WriteString("Earlier responses in this turn:\n")
		for _, prior := range input.PriorResults {
			if prior.Data == nil || prior.Data.Content == "" {
				continue
			}
			fmt.Fprintf(&b, "- [%s] %s\n", prior.ResponderID, prior.Data.Content)
		}
		b.WriteString("\nRefine or extend these when answering.\n\n")
	}

	b.WriteString(input.UserMessage)
	return b.String()
}
