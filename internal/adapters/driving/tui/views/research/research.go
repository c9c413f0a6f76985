// Package research provides the web research view for the TUI. It shows
// live progress while the agent runs and the cited report once it finishes.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/deepsearch/internal/adapters/driving/report"
	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/deepsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
)

// ErrNoResearchService indicates that no research service was provided.
var ErrNoResearchService = errors.New("research service is required")

// eventBuffer lets the agent run ahead of rendering by a few events.
const eventBuffer = 16

// mode is what the view is currently showing.
type mode int

const (
	modeInput mode = iota
	modeRunning
	modeReport
)

// View is the research view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	spinner   spinner.Model
	viewport  viewport.Model
	statusbar *status.Bar

	service driving.ResearchService
	ctx     context.Context
	cancel  context.CancelFunc

	// run numbers each research so messages of an abandoned run are dropped.
	run    int
	events <-chan domain.ProgressEvent
	done   <-chan messages.ResearchCompleted

	mode     mode
	question string
	log      []domain.ProgressEvent
	query    *domain.ResearchQuery
	err      error

	// quitOnDone ends the program when the research finishes.
	quitOnDone bool

	width  int
	height int
	ready  bool
}

// NewView creates a new research view.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.ResearchService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Spinner

	return &View{
		styles:    s,
		keymap:    km,
		input:     input.NewResearchInput(s),
		spinner:   sp,
		viewport:  viewport.New(80, 14),
		statusbar: status.NewBar(s, km),
		service:   service,
		ctx:       context.Background(),
		mode:      modeInput,
		width:     80,
		height:    24,
	}
}

// WithContext sets the parent context for research runs.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithQuitOnDone makes the view end the program when a research finishes.
func (v *View) WithQuitOnDone() *View {
	v.quitOnDone = true
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Start begins researching question immediately.
func (v *View) Start(question string) tea.Cmd {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}
	if v.service == nil {
		return func() tea.Msg { return messages.ErrorOccurred{Err: ErrNoResearchService} }
	}
	v.stop()

	v.run++
	v.mode = modeRunning
	v.question = question
	v.log = nil
	v.query = nil
	v.err = nil
	v.input.SetValue(question)
	v.input.Blur()
	v.statusbar.SetState(status.StateResearching)
	v.statusbar.SetMessage("Decomposing question")

	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel

	events := make(chan domain.ProgressEvent, eventBuffer)
	done := make(chan messages.ResearchCompleted, 1)
	v.events, v.done = events, done

	run, svc := v.run, v.service
	go func() {
		q, err := svc.Research(ctx, question, events)
		// Closing after Research returns guarantees every event is read
		// before the completion message.
		close(events)
		done <- messages.ResearchCompleted{Run: run, Query: q, Err: err}
	}()

	return tea.Batch(v.spinner.Tick, waitForProgress(run, events, done))
}

// waitForProgress delivers the next event, or the completion once the
// event channel is closed.
func waitForProgress(run int, events <-chan domain.ProgressEvent, done <-chan messages.ResearchCompleted) tea.Cmd {
	return func() tea.Msg {
		if e, ok := <-events; ok {
			return messages.ResearchProgress{Run: run, Event: e}
		}
		return <-done
	}
}

// stop cancels the running research, if any.
func (v *View) stop() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// Update handles messages for the research view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case spinner.TickMsg:
		if v.mode != modeRunning {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.ResearchProgress:
		if msg.Run != v.run {
			return v, nil
		}
		v.log = append(v.log, msg.Event)
		v.statusbar.SetMessage(progressLine(msg.Event))
		return v, waitForProgress(v.run, v.events, v.done)

	case messages.ResearchCompleted:
		if msg.Run != v.run {
			return v, nil
		}
		v.finish(msg)
		if v.quitOnDone {
			return v, tea.Quit
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.mode = modeInput
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, v.input.Focus()
	}

	var cmd tea.Cmd
	switch v.mode {
	case modeInput:
		v.input, cmd = v.input.Update(msg)
	case modeReport:
		v.viewport, cmd = v.viewport.Update(msg)
	case modeRunning:
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	if msg.Type == tea.KeyEsc {
		v.stop()
		if v.quitOnDone {
			return v, tea.Quit
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	switch v.mode {
	case modeInput:
		if keymap.Matches(keyStr, v.keymap.Submit) {
			return v, v.Start(v.input.Value())
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd

	case modeRunning:
		if keymap.Matches(keyStr, v.keymap.Cancel) {
			v.stop()
			v.statusbar.SetMessage("Cancelling...")
		}
		return v, nil

	case modeReport:
		if keymap.Matches(keyStr, v.keymap.NewQuery) {
			v.mode = modeInput
			v.input.SetValue("")
			v.statusbar.Clear()
			return v, v.input.Focus()
		}
		// The viewport scrolls on its own paging and arrow keys.
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}
	return v, nil
}

// finish records the outcome and renders the report.
func (v *View) finish(msg messages.ResearchCompleted) {
	v.cancel = nil
	v.mode = modeReport
	v.query = msg.Query
	v.err = msg.Err

	switch {
	case msg.Err != nil && msg.Query == nil:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		v.viewport.SetContent("")
	case msg.Err != nil:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		v.viewport.SetContent(v.renderReport(msg.Query))
	default:
		v.statusbar.SetState(status.StateReport)
		v.statusbar.SetMessage(fmt.Sprintf("Report ready: %d sources", len(msg.Query.Citations)))
		v.viewport.SetContent(v.renderReport(msg.Query))
	}
	v.viewport.GotoTop()
}

// renderReport styles the plain-text report for the viewport.
func (v *View) renderReport(q *domain.ResearchQuery) string {
	text := report.Text(q)
	width := v.viewport.Width
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

// progressLine describes an event for the status bar and the log.
func progressLine(e domain.ProgressEvent) string {
	if e.Phase == domain.PhaseSearch && e.SubQuestionTotal > 0 && e.SubQuestionIndex > 0 {
		return fmt.Sprintf("[%d/%d] %s", e.SubQuestionIndex, e.SubQuestionTotal, e.Message)
	}
	return e.Message
}

// View renders the research view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("deepsearch research"), "", v.input.View(), ""}

	switch v.mode {
	case modeInput:
		if v.err != nil {
			sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
		}
		sections = append(sections, v.styles.Muted.Render("Type a question and press enter."))
	case modeRunning:
		sections = append(sections, v.renderProgress())
	case modeReport:
		if v.query == nil {
			sections = append(sections, v.styles.Error.Render("Error: "+errString(v.err)))
		} else {
			sections = append(sections, v.styles.Report.Render(v.viewport.View()))
		}
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderProgress renders the spinner and the event log.
func (v *View) renderProgress() string {
	var b strings.Builder
	b.WriteString(v.spinner.View())
	b.WriteString(" ")
	b.WriteString(v.styles.Subtitle.Render(v.phaseTitle()))
	b.WriteString("\n\n")

	// Show the tail of the log that fits.
	visible := v.height - 10
	if visible < 3 {
		visible = 3
	}
	start := 0
	if len(v.log) > visible {
		start = len(v.log) - visible
	}
	for _, e := range v.log[start:] {
		line := progressLine(e)
		style := v.styles.Success
		if strings.HasPrefix(e.Message, "Search failed") {
			style = v.styles.Warning
		}
		b.WriteString(style.Render("  " + line))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// phaseTitle summarises where the research is.
func (v *View) phaseTitle() string {
	if len(v.log) == 0 {
		return "Starting research"
	}
	last := v.log[len(v.log)-1]
	switch last.Phase {
	case domain.PhaseDecompose:
		if last.SubQuestionTotal > 0 {
			return fmt.Sprintf("Searching 0/%d", last.SubQuestionTotal)
		}
		return "Decomposing question"
	case domain.PhaseSearch:
		if last.SubQuestionIndex == last.SubQuestionTotal {
			return fmt.Sprintf("Searched %d/%d", last.SubQuestionIndex, last.SubQuestionTotal)
		}
		return fmt.Sprintf("Searching %d/%d", last.SubQuestionIndex+1, last.SubQuestionTotal)
	case domain.PhaseSynthesize:
		return "Synthesising report"
	default:
		return last.Message
	}
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	// Leave room for the header, input, report border and status bar.
	v.viewport.Width = max(20, width-4)
	v.viewport.Height = max(3, height-11)
	if v.query != nil {
		v.viewport.SetContent(v.renderReport(v.query))
	}
}

// Running returns whether a research is in progress.
func (v *View) Running() bool {
	return v.mode == modeRunning
}

// Query returns the finished research, or nil.
func (v *View) Query() *domain.ResearchQuery {
	return v.query
}

// Err returns the error of the last research, if any.
func (v *View) Err() error {
	return v.err
}

// Log returns the progress events received for the current research.
func (v *View) Log() []domain.ProgressEvent {
	return v.log
}

// Reset cancels any running research and returns to the input.
func (v *View) Reset() {
	v.stop()
	v.mode = modeInput
	v.question = ""
	v.log = nil
	v.query = nil
	v.err = nil
	v.input.SetValue("")
	v.input.Focus()
	v.statusbar.Clear()
}
