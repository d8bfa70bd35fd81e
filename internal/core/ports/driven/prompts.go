package driven

// PromptStore serves the user-editable prompt templates.
type PromptStore interface {
	// Load returns the named template. Unknown names are an error.
	Load(name string) (string, error)

	// Reload forgets cached templates so edits take effect.
	Reload()
}

// Prompt names.
const (
	// PromptAnswer is formatted with the retrieved excerpts, then the question.
	PromptAnswer = "answer"

	// PromptChatSystem opens conversations that bypass retrieval. It takes
	// no arguments.
	PromptChatSystem = "chat_system"
)
