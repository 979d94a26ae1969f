// Package tui is the interactive collection browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"k8s.io/utils/clock"

	"github.com/jaekwang-park/todo-console/internal/apiclient"
	"github.com/jaekwang-park/todo-console/internal/debounce"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/mutation"
	"github.com/jaekwang-park/todo-console/internal/view"
)

// Column renders one field of T. An empty SortKey means the column cannot
// be sorted on.
type Column[T view.Entity] struct {
	Title   string
	Width   int
	SortKey string
	Value   func(T) string
}

// Filter is the structured filter cycled with f.
type Filter struct {
	Name   string
	Values []string
}

// Notes exposes the most recent mutation notification.
type Notes interface {
	Last() (mutation.Notification, bool)
}

type Config[T view.Entity] struct {
	Title    string
	Columns  []Column[T]
	Filter   Filter
	Debounce time.Duration
	Notes    Notes
	// Clock drives the search debouncer.
	Clock clock.WithDelayedExecution
	// Send delivers messages produced off the update loop. Run sets it to
	// the program's Send.
	Send func(tea.Msg)
}

type loadedMsg struct{ err error }

type deletedMsg struct{ err error }

type searchMsg string

type Browser[T view.Entity, F any] struct {
	ctx  context.Context
	ctrl *view.Controller[T, F]
	cfg  Config[T]

	table     table.Model
	search    textinput.Model
	searching bool
	debouncer *debounce.Debouncer[string]
	sortCol   int
	status    mutation.Notification
	err       error
	quitting  bool
}

func New[T view.Entity, F any](ctx context.Context, ctrl *view.Controller[T, F], cfg Config[T]) *Browser[T, F] {
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	b := &Browser[T, F]{ctx: ctx, ctrl: ctrl, cfg: cfg}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search"
	ti.CharLimit = 128
	b.search = ti

	b.table = table.New(
		table.WithColumns(b.columns()),
		table.WithFocused(true),
		table.WithHeight(ctrl.Query().PageSize+1),
		table.WithStyles(tableStyles()),
	)
	b.debouncer = debounce.New(cfg.Debounce, b.settled, debounce.WithClock(cfg.Clock))
	return b
}

// Run shows b full screen until the user quits.
func Run[T view.Entity, F any](ctx context.Context, b *Browser[T, F]) error {
	p := tea.NewProgram(b, tea.WithAltScreen(), tea.WithContext(ctx))
	b.cfg.Send = p.Send
	_, err := p.Run()
	b.debouncer.Stop()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return err
	}
	return b.err
}

func (b *Browser[T, F]) settled(text string) {
	if b.cfg.Send != nil {
		b.cfg.Send(searchMsg(text))
	}
}

func (b *Browser[T, F]) Init() tea.Cmd {
	return b.load()
}

func (b *Browser[T, F]) load() tea.Cmd {
	ctrl, ctx := b.ctrl, b.ctx
	return func() tea.Msg {
		return loadedMsg{err: ctrl.Load(ctx)}
	}
}

func (b *Browser[T, F]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		b.refresh()
		if errors.Is(msg.err, apiclient.ErrAuthentication) {
			b.err = msg.err
			b.quitting = true
			return b, tea.Quit
		}
		return b, nil

	case deletedMsg:
		if n, ok := b.notes(); ok {
			b.status = n
		}
		if msg.err != nil {
			b.refresh()
			return b, nil
		}
		return b, b.load()

	case searchMsg:
		b.ctrl.SetSearch(string(msg))
		return b, b.load()

	case tea.KeyMsg:
		if _, ok := b.ctrl.Modal().(view.ConfirmDelete[T]); ok {
			return b.updateConfirm(msg)
		}
		if b.searching {
			return b.updateSearch(msg)
		}
		return b.updateList(msg)
	}
	return b, nil
}

func (b *Browser[T, F]) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		b.quitting = true
		b.debouncer.Stop()
		return b, tea.Quit
	case "n":
		if b.ctrl.NextPage() {
			return b, b.load()
		}
	case "p":
		if b.ctrl.PrevPage() {
			return b, b.load()
		}
	case "left":
		b.moveSortColumn(-1)
	case "right":
		b.moveSortColumn(1)
	case "s":
		if key := b.sortKey(); key != "" {
			b.ctrl.CycleSort(key)
			b.table.SetColumns(b.columns())
			return b, b.load()
		}
	case "f":
		if b.cfg.Filter.Name != "" {
			b.ctrl.SetFilter(b.cfg.Filter.Name, b.nextFilter())
			return b, b.load()
		}
	case "c":
		b.ctrl.ClearFilters()
		b.search.SetValue("")
		b.debouncer.Sync("")
		return b, b.load()
	case "r":
		return b, b.load()
	case "/":
		b.searching = true
		return b, b.search.Focus()
	case "d":
		if row, ok := b.selected(); ok {
			_ = b.ctrl.OpenDelete(row)
		}
	default:
		var cmd tea.Cmd
		b.table, cmd = b.table.Update(msg)
		return b, cmd
	}
	return b, nil
}

func (b *Browser[T, F]) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		b.searching = false
		b.search.Blur()
		b.debouncer.Flush()
		return b, nil
	case "esc", "ctrl+c":
		b.searching = false
		b.search.Blur()
		return b, nil
	}
	var cmd tea.Cmd
	b.search, cmd = b.search.Update(msg)
	b.debouncer.Set(b.search.Value())
	return b, cmd
}

func (b *Browser[T, F]) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		if b.ctrl.DeletingID() != "" {
			return b, nil
		}
		ctrl, ctx := b.ctrl, b.ctx
		return b, func() tea.Msg {
			return deletedMsg{err: ctrl.ConfirmDelete(ctx)}
		}
	case "n", "esc":
		_ = b.ctrl.Close()
	}
	return b, nil
}

func (b *Browser[T, F]) notes() (mutation.Notification, bool) {
	if b.cfg.Notes == nil {
		return mutation.Notification{}, false
	}
	return b.cfg.Notes.Last()
}

// refresh copies the controller's current rows into the table.
func (b *Browser[T, F]) refresh() {
	state := b.ctrl.View()
	rows := make([]table.Row, 0, len(state.Rows))
	for _, r := range state.Rows {
		cells := make(table.Row, len(b.cfg.Columns))
		for i, col := range b.cfg.Columns {
			cells[i] = col.Value(r)
		}
		rows = append(rows, cells)
	}
	b.table.SetRows(rows)
	if b.table.Cursor() >= len(rows) {
		b.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (b *Browser[T, F]) selected() (T, bool) {
	rows := b.ctrl.View().Rows
	i := b.table.Cursor()
	if i < 0 || i >= len(rows) {
		var zero T
		return zero, false
	}
	return rows[i], true
}

func (b *Browser[T, F]) sortKey() string {
	if b.sortCol < 0 || b.sortCol >= len(b.cfg.Columns) {
		return ""
	}
	return b.cfg.Columns[b.sortCol].SortKey
}

// moveSortColumn steps to the next sortable column in direction dir.
func (b *Browser[T, F]) moveSortColumn(dir int) {
	n := len(b.cfg.Columns)
	for i := 1; i <= n; i++ {
		next := ((b.sortCol+dir*i)%n + n) % n
		if b.cfg.Columns[next].SortKey != "" {
			b.sortCol = next
			break
		}
	}
	b.table.SetColumns(b.columns())
}

func (b *Browser[T, F]) nextFilter() string {
	values := b.cfg.Filter.Values
	current := b.ctrl.Query().Filters[b.cfg.Filter.Name]
	if current == "" {
		return values[0]
	}
	for i, v := range values {
		if v == current && i+1 < len(values) {
			return values[i+1]
		}
	}
	return ""
}

func (b *Browser[T, F]) columns() []table.Column {
	q := b.ctrl.Query()
	cols := make([]table.Column, len(b.cfg.Columns))
	for i, c := range b.cfg.Columns {
		title := c.Title
		if c.SortKey != "" && c.SortKey == q.SortKey {
			if q.SortDir == model.SortDesc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		if i == b.sortCol {
			title = "[" + title + "]"
		}
		cols[i] = table.Column{Title: title, Width: c.Width}
	}
	return cols
}

func (b *Browser[T, F]) View() string {
	if b.quitting {
		return ""
	}
	state := b.ctrl.View()

	var s strings.Builder
	s.WriteString(titleStyle.Render(b.cfg.Title))
	s.WriteString("\n")
	if b.searching || b.search.Value() != "" {
		s.WriteString(b.search.View())
		s.WriteString("\n")
	}
	s.WriteString(b.table.View())
	s.WriteString("\n")
	s.WriteString(footerStyle.Render(b.summary(state)))
	s.WriteString("\n")

	if m, ok := state.Modal.(view.ConfirmDelete[T]); ok {
		prompt := m.Prompt() + "  (y/n)"
		if state.DeletingID != "" {
			prompt = "Deleting..."
		} else if m.Err != nil {
			prompt = apiclient.Message(m.Err, m.Err.Error()) + "  Retry? (y/n)"
		}
		s.WriteString(confirmStyle.Render(prompt))
		s.WriteString("\n")
	}

	switch {
	case state.Err != nil:
		s.WriteString(errorStyle.Render(apiclient.Message(state.Err, state.Err.Error())))
		s.WriteString("\n")
	case b.status.Message != "":
		style := successStyle
		if b.status.Level == mutation.LevelError {
			style = errorStyle
		}
		s.WriteString(style.Render(b.status.Message))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("↑/↓ move • n/p page • ←/→ column • s sort • / search • f filter • c clear • d delete • q quit"))
	return s.String()
}

func (b *Browser[T, F]) summary(state view.State[T]) string {
	q := state.Query
	parts := []string{fmt.Sprintf("Page %d of %d", q.PageIndex+1, max(state.PageCount, 1)), fmt.Sprintf("%d total", state.Total)}
	if q.SortKey != "" {
		parts = append(parts, fmt.Sprintf("sort %s %s", q.SortKey, q.SortDir))
	}
	if v := q.Filters[b.cfg.Filter.Name]; v != "" {
		parts = append(parts, fmt.Sprintf("%s=%s", b.cfg.Filter.Name, v))
	}
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", q.Search))
	}
	if state.Loading {
		parts = append(parts, "loading...")
	}
	return strings.Join(parts, " • ")
}
