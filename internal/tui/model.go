// Package tui is the terminal front end: three fields, a submit control, the
// result section and the copy control, driven by the same request and
// clipboard states as the web page.
package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lyricfetch/internal/clipboard"
	"lyricfetch/internal/logger"
	"lyricfetch/internal/query"
	"lyricfetch/internal/render"
	"lyricfetch/internal/request"
)

const (
	fieldTitle = iota
	fieldArtist
	fieldDuration
	fieldCount
)

// Options configures a Model. Title, Artist and Duration prefill the fields.
type Options struct {
	Title    string
	Artist   string
	Duration string

	Fetcher     request.Fetcher
	Writer      clipboard.Writer
	RevertDelay time.Duration
	Logger      *logger.Logger
}

type Model struct {
	ctx     context.Context
	fetcher request.Fetcher
	writer  clipboard.Writer
	delay   time.Duration
	logger  *logger.Logger

	inputs   []textinput.Model
	focus    int
	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model
	keys     keyMap

	req    request.State
	clip   clipboard.State
	resets uint64
	notice string

	width  int
	height int
}

func New(ctx context.Context, opts Options) Model {
	if opts.Writer == nil {
		opts.Writer = clipboard.SystemWriter{}
	}
	if opts.RevertDelay <= 0 {
		opts.RevertDelay = clipboard.RevertDelay
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewWithWriter(false, io.Discard, io.Discard)
	}

	m := Model{
		ctx:      ctx,
		fetcher:  opts.Fetcher,
		writer:   opts.Writer,
		delay:    opts.RevertDelay,
		logger:   opts.Logger.Component("tui"),
		inputs:   make([]textinput.Model, fieldCount),
		viewport: viewport.New(60, 12),
		help:     help.New(),
		keys:     keys,
	}

	for i := range m.inputs {
		t := textinput.New()
		t.Prompt = ""
		t.Width = 48
		switch i {
		case fieldTitle:
			t.Placeholder = "Song title (required)"
			t.SetValue(opts.Title)
			t.Focus()
		case fieldArtist:
			t.Placeholder = "Artist"
			t.SetValue(opts.Artist)
		case fieldDuration:
			t.Placeholder = "Duration in seconds"
			t.CharLimit = 6
			t.SetValue(opts.Duration)
		}
		m.inputs[i] = t
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	m.spinner = s

	return m
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, msg.Height-16)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case responseMsg:
		next, ok := m.req.Resolve(msg.Token, msg.Result)
		if !ok {
			m.logger.Debug("request %d: stale response dropped (latest is %d)", msg.Token, m.req.Token)
			return m, nil
		}
		m.logger.Debug("request %d settled: %s", msg.Token, msg.Result.Kind)
		m.req = next
		if next.Phase == request.Succeeded {
			m.viewport.SetContent(next.Lyrics)
			m.viewport.GotoTop()
		}
		return m, nil

	case copyDoneMsg:
		if msg.Err != nil {
			m.notice = clipboard.FailureNotice
			return m, nil
		}
		if msg.Epoch != m.resets {
			return m, nil
		}
		m.clip = m.clip.Copied()
		return m, revertAfter(m.delay, m.clip.Generation)

	case revertMsg:
		if next, ok := m.clip.Revert(msg.Generation); ok {
			m.clip = next
		}
		return m, nil

	case spinner.TickMsg:
		if !m.req.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// The notice blocks everything until dismissed.
	if m.notice != "" {
		if key.Matches(msg, dismiss) {
			m.notice = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Copy):
		return m.copy()
	case key.Matches(msg, m.keys.Next):
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keys.Prev):
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDn):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

func (m Model) fields() (title, artist, duration string) {
	return m.inputs[fieldTitle].Value(), m.inputs[fieldArtist].Value(), m.inputs[fieldDuration].Value()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.req.Busy() {
		return m, nil
	}

	q, err := query.Build(m.fields())
	if err == nil {
		var next request.State
		next, err = m.req.Begin(q)
		if err == nil {
			m.req = next
		}
	}
	var verr *query.ValidationError
	if errors.As(err, &verr) {
		m.notice = verr.Notice()
		return m, nil
	}

	m.resets++
	m.clip = m.clip.Reset()
	m.logger.Debug("request %d: %s", m.req.Token, q.Path())
	return m, tea.Batch(m.spinner.Tick, m.fetch(m.req.Token, q))
}

// fetch performs the call off the update loop. A panicking fetcher settles as
// a transport failure so the busy state always ends.
func (m Model) fetch(token uint64, q query.SearchQuery) tea.Cmd {
	ctx, fetcher, log := m.ctx, m.fetcher, m.logger
	return func() (msg tea.Msg) {
		msg = responseMsg{Token: token, Result: request.TransportFailure()}
		defer func() {
			if r := recover(); r != nil {
				log.Error("request %d panicked: %v", token, r)
			}
		}()
		resp, err := fetcher.Fetch(ctx, q)
		if err != nil {
			log.Warn("request %d failed: %v", token, err)
		}
		return responseMsg{Token: token, Result: request.Classify(resp, err)}
	}
}

func (m Model) copy() (tea.Model, tea.Cmd) {
	if m.req.Phase != request.Succeeded {
		return m, nil
	}
	ctx, w, text, epoch, log := m.ctx, m.writer, m.req.Lyrics, m.resets, m.logger
	return m, func() tea.Msg {
		err := w.WriteText(ctx, text)
		if err != nil {
			log.Warn("clipboard write failed: %v", err)
			err = &clipboard.CopyError{Err: err}
		}
		return copyDoneMsg{Epoch: epoch, Err: err}
	}
}

func revertAfter(d time.Duration, gen uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return revertMsg{Generation: gen}
	})
}

// Render returns the current view state.
func (m Model) Render() render.View {
	return render.Render(m.req).
		WithClipboard(m.clip).
		WithPreview(query.BuildPreview(m.fields()))
}

func (m Model) View() string {
	if m.notice != "" {
		box := noticeStyle.Render(m.notice + "\n\n" + previewStyle.Render("enter to dismiss"))
		if m.width == 0 {
			return box
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	v := m.Render()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Lyrics Finder"))
	b.WriteString("\n")

	labels := [fieldCount]string{"Title", "Artist", "Duration"}
	for i, in := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString(previewStyle.Render(v.Preview))
	b.WriteString("\n\n")

	if v.SubmitDisabled {
		b.WriteString(disabledButtonStyle.Render(v.SubmitLabel))
		b.WriteString(" ")
		b.WriteString(m.spinner.View())
	} else {
		b.WriteString(buttonStyle.Render(v.SubmitLabel))
	}
	b.WriteString("\n\n")

	if v.ResultVisible {
		switch v.Pane {
		case render.PaneLyrics:
			b.WriteString(resultStyle.Render(m.viewport.View()))
		case render.PaneError:
			b.WriteString(resultStyle.Render(errorStyle.Render(v.Text)))
		}
		b.WriteString("\n")
		if v.CopyVisible {
			b.WriteString(copyButton(v.Copy.Label, v.Copy.Background))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}
