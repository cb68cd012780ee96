package ollama

import "strings"

const maxUtterance = 1000

func buildIntentPrompt(text string, labels []string) string {
	snippet := text
	if len(snippet) > maxUtterance {
		snippet = snippet[:maxUtterance]
	}

	return `You classify short shopping and order-history requests.
Pick exactly one intent from this list:
` + strings.Join(labels, ", ") + `
Return strict JSON object with keys:
intent (string, one of the list), confidence (number from 0 to 1).
No markdown, no extra keys.

Request:
` + snippet
}
