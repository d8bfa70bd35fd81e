package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/chat"
)

const windowTitle = "sercha-kb"

// App is the root Bubbletea model. It owns the chat view and a help
// screen, handles quitting and refreshes the record count after replies.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	chatView *chat.View
	view     messages.ViewType

	// err is the most recent failure reported by a service call.
	err error

	width, height int
	// ready is set by the first window size message; nothing is drawn before it.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the application. Ports must carry a knowledge service.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	st := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	return &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   st,
		keymap:   km,
		help:     help.New(),
		chatView: chat.NewView(st, km, ports.Knowledge, ports.Chat),
		view:     messages.ViewChat,
	}, nil
}

// WithContext bounds every service call made from the TUI by ctx.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init sets the window title, starts the chat view and loads stats.
func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle(windowTitle), a.chatView.Init(), a.loadStats())
}

func (a *App) loadStats() tea.Cmd {
	ctx, knowledge := a.ctx, a.ports.Knowledge
	return func() tea.Msg {
		stats, err := knowledge.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// Update routes msg. Keys are handled by handleKey; everything else the
// app does not consume goes to the chat view.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(msg)
	case messages.ViewChanged:
		a.view = msg.View
		return a, nil
	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil
	case messages.Quit:
		return a, tea.Quit
	case messages.ReplyReceived:
		a.err = msg.Err
		// Other surfaces may have added files since the last count.
		return a, tea.Batch(a.forward(msg), a.loadStats())
	case messages.StatsLoaded:
		if msg.Err != nil {
			a.err = msg.Err
		}
	}
	return a, a.forward(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Quit):
		return a, tea.Quit
	case a.view == messages.ViewHelp:
		if keymap.Matches(key, a.keymap.Back) || keymap.Matches(key, a.keymap.Help) {
			a.view = messages.ViewChat
		}
		return a, nil
	case keymap.Matches(key, a.keymap.Help):
		a.view = messages.ViewHelp
		return a, nil
	}
	return a, a.forward(msg)
}

func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	a.chatView, cmd = a.chatView.Update(msg)
	return cmd
}

// View renders the active screen.
func (a *App) View() string {
	switch {
	case !a.ready:
		return "Initialising..."
	case a.view == messages.ViewHelp:
		return a.helpScreen()
	}
	return a.chatView.View()
}

func (a *App) helpScreen() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Title.Render(windowTitle),
		"",
		a.styles.Normal.Render("Type a question and press enter. Questions about your files are answered"),
		a.styles.Normal.Render("from the knowledge base with numbered sources; other messages go to the model."),
		"",
		a.help.FullHelpView(a.keymap.FullHelp()),
		"",
		a.styles.Help.Render("[esc] back to chat"),
	)
}

// Run blocks until the user quits or the context is cancelled.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

// CurrentView returns the active screen.
func (a *App) CurrentView() messages.ViewType { return a.view }

// ChatView returns the conversation view.
func (a *App) ChatView() *chat.View { return a.chatView }

// Err returns the most recent service failure.
func (a *App) Err() error { return a.err }

// Ready reports whether a window size has been received.
func (a *App) Ready() bool { return a.ready }

// SetDimensions resizes the app and its views.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true
	a.help.Width = width
	a.chatView.SetDimensions(width, height)
}
