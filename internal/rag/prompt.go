package rag

import (
	"fmt"
	"strings"

	"github.com/campusdesk/campusdesk/internal/model"
)

const receptionistPrompt = `You are Sarah, the friendly and professional Receptionist at the college.
Your goal is to assist students and parents with information about the college using the provided CONTEXT.

GUIDELINES:
1.  **Be Warm and Human**: Use natural, conversational language. Avoid robotic phrasing.
2.  **Use Context First**: Answer questions based on the provided CONTEXT.
3.  **Handle Missing Info**: If the answer is NOT in the context:
    *   Politely apologize.
    *   Say something like "I don't have that specific information right here."
    *   Suggest contacting the administration office for the most up-to-date details.
    *   DO NOT make up specific facts, dates, or fees.
4.  **Small Talk is Okay**: If the user greets you (e.g., "Hi", "How are you"), respond warmly without needing context.
5.  **Spoken Format**: Keep answers concise (under 3-4 sentences) and easy to listen to. Avoid bullet points or complex formatting.
6.  **No Citations**: DO NOT mention "Document X", "Source", or "Context" in your response. Just provide the answer naturally as if you know it.

Remember: You represent the college, so be helpful, polite, and welcoming!`

const noContextPlaceholder = "No specific documents found matching the query."

// buildPrompt assembles the system prompt and the user message handed
// to the generator. Profile facts become hints so follow-up answers
// can stay personal without the model asking again.
func buildPrompt(results []model.RetrievalResult, profile map[string]string, question string) (systemPrompt, userMessage string) {
	systemPrompt = receptionistPrompt
	if len(profile) > 0 {
		var hints []string
		if rank := profile["rank"]; rank != "" {
			hints = append(hints, "their entrance exam rank is "+rank)
		}
		if interest := profile["interest"]; interest != "" {
			hints = append(hints, "they are interested in the "+interest+" branch")
		}
		if len(hints) > 0 {
			systemPrompt += "\n\nKNOWN ABOUT THIS VISITOR: " + strings.Join(hints, "; ") + "."
		}
	}

	contextStr := noContextPlaceholder
	if len(results) > 0 {
		parts := make([]string, 0, len(results))
		for _, r := range results {
			parts = append(parts, strings.TrimSpace(r.Chunk.Text))
		}
		contextStr = strings.Join(parts, "\n\n")
	}
	userMessage = fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION: %s", contextStr, question)
	return systemPrompt, userMessage
}

func resultSources(results []model.RetrievalResult) []string {
	var sources []string
	seen := map[string]bool{}
	for _, r := range results {
		if !seen[r.Chunk.Source] {
			seen[r.Chunk.Source] = true
			sources = append(sources, r.Chunk.Source)
		}
	}
	return sources
}

func resultContext(results []model.RetrievalResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Chunk.Text)
	}
	return out
}
