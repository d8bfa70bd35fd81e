package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults/*.txt
var builtinPrompts embed.FS

// promptDef describes one editable prompt.
type promptDef struct {
	name string
	// verbs is the number of %s placeholders the template must keep.
	verbs int
	about string
}

var promptDefs = []promptDef{
	{driven.PromptAnswer, 2, "answers a question from knowledge base excerpts (%s excerpts, then %s question)"},
	{driven.PromptChatSystem, 0, "system prompt for messages that do not need the knowledge base"},
}

func defFor(name string) (promptDef, bool) {
	for _, p := range promptDefs {
		if p.name == name {
			return p, true
		}
	}
	return promptDef{}, false
}

// builtin returns the embedded default for name.
func builtin(name string) (string, bool) {
	data, err := builtinPrompts.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// PromptStore serves prompts from <dir>/<name>.txt. The directory is
// seeded with the built-in prompts on first Load, never earlier, and files
// the user already edited are left alone.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]string
}

// NewPromptStore creates a store rooted at dir, or ~/.sercha-kb/prompts
// when dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		root, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(root, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template for name. A missing, unreadable or malformed
// file falls back to the built-in prompt.
func (s *PromptStore) Load(name string) (string, error) {
	def, known := defFor(name)
	if !known {
		return "", fmt.Errorf("load prompt %q: %w", name, fs.ErrNotExist)
	}
	fallback, _ := builtin(name)

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		logger.Debug("Prompt directory unavailable, using built-in %s: %v", name, s.seedErr)
		return fallback, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}

	prompt := fallback
	data, err := os.ReadFile(s.path(name))
	switch {
	case err != nil:
		logger.Debug("Using built-in %s prompt: %v", name, err)
	case strings.Count(string(data), "%s") != def.verbs:
		logger.Warn("Prompt %s.txt has %d %%s placeholders, expected %d; using the built-in prompt",
			name, strings.Count(string(data), "%s"), def.verbs)
	default:
		prompt = strings.TrimSpace(string(data))
	}

	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached prompts so edits on disk are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// seed writes the built-in prompts and a README into the directory.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for _, p := range promptDefs {
		content, _ := builtin(p.name)
		if err := writeIfMissing(s.path(p.name), content+"\n"); err != nil {
			s.seedErr = fmt.Errorf("write default prompt %q: %w", p.name, err)
			return
		}
	}
	if err := writeIfMissing(filepath.Join(s.dir, "README.md"), readme()); err != nil {
		s.seedErr = err
	}
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readme() string {
	var b strings.Builder
	b.WriteString("# sercha-kb prompts\n\n")
	b.WriteString("Prompts sent to the language model. Edits apply to the next command,\n")
	b.WriteString("or after restarting the TUI or server.\n\n")
	for _, p := range promptDefs {
		fmt.Fprintf(&b, "- `%s.txt`: %s\n", p.name, p.about)
	}
	b.WriteString("\nA prompt must keep its `%s` placeholders, in order, or the built-in\n")
	b.WriteString("prompt is used instead.\n")
	return b.String()
}
