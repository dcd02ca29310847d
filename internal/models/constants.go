package models

const (
	ContextSeparator = "\n\n"
	ThinkTag         = `(?s)<think>.*?</think>`
	QuestionPrompt   = "What do you want to know about the document?\n"
)

var (
	// PromptTemplate is rendered with the langchaingo Go-template formatter.
	PromptTemplate = `
Answer the question based only on the provided context, always in English.

Context: {{.context}}

Question: {{.question}}
`
)
