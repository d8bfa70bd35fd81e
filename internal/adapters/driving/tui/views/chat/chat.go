// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// ErrNoKnowledgeService indicates that no knowledge service was provided.
var ErrNoKnowledgeService = errors.New("knowledge service is required")

// Role identifies who wrote a turn.
type Role int

const (
	// RoleUser is a message typed by the user.
	RoleUser Role = iota
	// RoleAssistant is a reply.
	RoleAssistant
)

// Turn is one entry in the transcript.
type Turn struct {
	Role    Role
	Text    string
	Route   domain.ChatRoute
	Sources []domain.RetrievedChunk
	Err     error
}

// chrome is the number of rows used by the input and the status bar.
const chrome = 5

// View is the chat transcript with an input line and status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.ChatInput
	transcript viewport.Model
	statusbar  *status.Bar

	knowledge driving.KnowledgeService
	chat      driving.ChatService
	ctx       context.Context

	turns       []Turn
	pending     bool
	showSources bool
	width       int
	height      int
	err         error
}

// NewView creates a new chat view. chat may be nil, in which case every
// message is asked of the knowledge base.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	knowledge driving.KnowledgeService,
	chat driving.ChatService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:      s,
		keymap:      km,
		input:       input.NewChatInput(s),
		transcript:  viewport.New(80, 24-chrome),
		statusbar:   status.NewBar(s, km),
		knowledge:   knowledge,
		chat:        chat,
		ctx:         context.Background(),
		showSources: true,
		width:       80,
		height:      24,
	}
	v.refresh()
	return v
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blink.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.ReplyReceived:
		v.pending = false
		turn := Turn{Role: RoleAssistant, Err: msg.Err}
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
		} else {
			v.err = nil
			v.statusbar.Clear()
			turn.Text = msg.Reply.Response
			turn.Route = msg.Reply.Route
			turn.Sources = msg.Sources()
		}
		v.turns = append(v.turns, turn)
		v.refresh()
		return v, nil

	case messages.StatsLoaded:
		if msg.Err == nil && msg.Stats != nil {
			v.statusbar.SetRecords(msg.Stats.Records)
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.statusbar, cmd = v.statusbar.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Send):
		return v, v.submit()

	case keymap.Matches(keyStr, v.keymap.Back):
		v.input.Reset()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Clear):
		v.turns = nil
		v.err = nil
		v.statusbar.Clear()
		v.refresh()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Sources):
		v.showSources = !v.showSources
		v.refresh()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.ScrollUp):
		v.transcript.SetYOffset(v.transcript.YOffset - v.transcript.Height)
		return v, nil

	case keymap.Matches(keyStr, v.keymap.ScrollDown):
		v.transcript.SetYOffset(v.transcript.YOffset + v.transcript.Height)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed message. It is a no-op while a reply is pending or
// when the input is blank.
func (v *View) submit() tea.Cmd {
	text := strings.TrimSpace(v.input.Value())
	if text == "" || v.pending {
		return nil
	}

	v.input.Reset()
	v.pending = true
	v.turns = append(v.turns, Turn{Role: RoleUser, Text: text})
	v.refresh()

	return tea.Batch(v.statusbar.SetState(status.StateThinking), v.send(text))
}

// send returns a command that delivers text to the chat service, or asks
// the knowledge base directly when no chat service is configured.
func (v *View) send(text string) tea.Cmd {
	ctx := v.ctx
	chat := v.chat
	knowledge := v.knowledge

	return func() tea.Msg {
		if chat != nil {
			reply, err := chat.Chat(ctx, text)
			return messages.ReplyReceived{Text: text, Reply: reply, Err: err}
		}
		if knowledge == nil {
			return messages.ReplyReceived{Text: text, Err: ErrNoKnowledgeService}
		}
		answer, err := knowledge.Ask(ctx, text, domain.AskOptions{})
		if err != nil {
			return messages.ReplyReceived{Text: text, Err: err}
		}
		return messages.ReplyReceived{Text: text, Reply: &domain.ChatReply{
			Response: answer.Response,
			Route:    domain.ChatRouteKnowledgeBase,
			Answer:   answer,
		}}
	}
}

// View renders the chat view.
func (v *View) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		v.transcript.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// refresh re-renders the transcript and scrolls to the newest turn.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render("Ask a question about the files you have added.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))
	var b strings.Builder
	for i, t := range v.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		switch t.Role {
		case RoleUser:
			b.WriteString(v.styles.User.Render("You"))
			b.WriteString("\n")
			b.WriteString(wrap.Render(v.styles.Normal.Render(t.Text)))
		case RoleAssistant:
			b.WriteString(v.styles.Assistant.Render("Assistant"))
			if tag := v.routeTag(t.Route); tag != "" {
				b.WriteString(" " + tag)
			}
			b.WriteString("\n")
			if t.Err != nil {
				b.WriteString(wrap.Render(v.styles.Error.Render("Error: " + t.Err.Error())))
			} else {
				b.WriteString(wrap.Render(v.styles.Normal.Render(t.Text)))
			}
			if v.showSources && len(t.Sources) > 0 {
				b.WriteString("\n")
				b.WriteString(v.renderSources(t.Sources))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) routeTag(route domain.ChatRoute) string {
	switch route {
	case domain.ChatRouteKnowledgeBase:
		return v.styles.RouteKnowledgeBase.Render("[knowledge base]")
	case domain.ChatRouteDirect:
		return v.styles.RouteDirect.Render("[direct]")
	default:
		return ""
	}
}

func (v *View) renderSources(sources []domain.RetrievedChunk) string {
	lines := make([]string, 0, len(sources)+1)
	lines = append(lines, v.styles.Muted.Render("Sources:"))
	for i := range sources {
		lines = append(lines, v.styles.Source.Render(
			fmt.Sprintf("[%d] %s (%.2f)", i+1, sourceLabel(&sources[i]), sources[i].Score)))
	}
	return strings.Join(lines, "\n")
}

// sourceLabel names a chunk by file and page or row.
func sourceLabel(rc *domain.RetrievedChunk) string {
	name := filepath.Base(rc.Source)
	if page, ok := rc.Metadata[domain.MetaPage]; ok {
		return fmt.Sprintf("%s, page %v", name, page)
	}
	if row, ok := rc.Metadata[domain.MetaRow]; ok {
		return fmt.Sprintf("%s, row %v", name, row)
	}
	return name
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.transcript.Width = width
	v.transcript.Height = max(height-chrome, 1)
	v.refresh()
}

// Turns returns the transcript.
func (v *View) Turns() []Turn {
	return v.turns
}

// Pending reports whether a reply is in flight.
func (v *View) Pending() bool {
	return v.pending
}

// Input returns the current input value.
func (v *View) Input() string {
	return v.input.Value()
}

// Err returns the last reply error.
func (v *View) Err() error {
	return v.err
}

// ShowSources reports whether citations are rendered under answers.
func (v *View) ShowSources() bool {
	return v.showSources
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// Records returns the indexed chunk count shown in the status bar.
func (v *View) Records() int {
	return v.statusbar.Records()
}
