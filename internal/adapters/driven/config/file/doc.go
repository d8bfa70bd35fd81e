// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the sercha-kb data directory.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage (config.toml)
//   - PromptStore: user-editable LLM prompts (prompts/*.txt)
package file
