// Package knowledge holds the reference document the assistant is grounded
// on and assembles the system prompt seeded into every new session.
package knowledge

import (
	"fmt"
	"os"
	"strings"
)

// DefaultDocument is the Superset / Internship Preparation Program reference
// sheet shown to the model. Answers must come from here and nowhere else.
const DefaultDocument = `Internship Preparation Program (IPP)
- IPP is mandatory before accessing Superset.
- Superset is Ashoka University's internship & placement platform.
- Only verified data is shared with recruiters.
- Resume must be one page and factually correct.
- Minimum internship duration: 30 days.
- Coursera certificates are allowed.
- Proof verification takes up to 48 hours.`

const promptHeader = "You are an AI assistant for Ashoka University students.\nAnswer ONLY using this document:"

const promptRules = `Rules:
1. Only answer Superset/IPP related queries.
2. Be factual and concise.
3. If information is missing, say so.`

// Document returns the reference document, reading it from path when one is
// configured so deployments can update the sheet without a rebuild.
func Document(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultDocument, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read knowledge file: %w", err)
	}
	doc := strings.TrimSpace(string(data))
	if doc == "" {
		return "", fmt.Errorf("knowledge file %s is empty", path)
	}
	return doc, nil
}

// SystemPrompt builds the body of the system turn for a given document.
func SystemPrompt(doc string) string {
	return promptHeader + "\n\n" + strings.TrimSpace(doc) + "\n\n" + promptRules
}
