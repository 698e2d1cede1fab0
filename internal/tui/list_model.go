package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/planfocus/internal/pagedlist"
	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/tui/detail"
	listview "github.com/rshade/planfocus/internal/tui/list"
)

const (
	defaultWidth  = 100
	defaultHeight = 24

	// chromeHeight is the number of lines used by the header and footer.
	chromeHeight = 6

	eventBuffer = 64

	searchInputCharLimit = 64
	searchInputWidth     = 40
)

// Filter is a named list scope. Selecting it replaces the controller's fetcher.
type Filter struct {
	Name    string
	Fetcher pagedlist.PageFetcher[record.Record]
}

// SortMode reorders the loaded items for display. A nil Compare keeps arrival order.
type SortMode struct {
	Name    string
	Compare pagination.Compare
}

// DetailFunc builds the detail loader for a selected record.
type DetailFunc func(rec record.Record) detail.Loader

// SearchFunc reports whether rec matches a search query.
type SearchFunc func(rec record.Record, query string) bool

type stateMsg struct {
	state pagedlist.State[record.Record]
}

type errorMsg struct {
	err error
}

// ListModel is a Bubble Tea model over a paged list controller.
//
// Controller notifications arrive on a buffered channel and are turned into messages,
// so the list state is only touched from Update.
type ListModel struct {
	ctx        context.Context
	title      string
	controller *pagedlist.Controller[record.Record]

	events      chan tea.Msg
	done        chan struct{}
	unsubscribe func()

	state   pagedlist.State[record.Record]
	list    *listview.VirtualListModel[record.Record]
	loading *LoadingState
	spin    bool

	filters   []Filter
	filterIdx int
	sorts     []SortMode
	sortIdx   int

	search      textinput.Model
	searching   bool
	query       string
	matchSearch SearchFunc

	detailFor DetailFunc
	detail    *detail.Model

	notice   string
	width    int
	height   int
	quitting bool
}

// NewListModel creates a model over controller. The controller's fetcher is the
// first filter's scope when filters are configured.
func NewListModel(
	ctx context.Context,
	title string,
	controller *pagedlist.Controller[record.Record],
	render listview.RenderFunc[record.Record],
) *ListModel {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = searchInputCharLimit
	ti.Width = searchInputWidth

	return &ListModel{
		ctx:        ctx,
		title:      title,
		controller: controller,
		events:     make(chan tea.Msg, eventBuffer),
		done:       make(chan struct{}),
		list:       listview.NewVirtualListModel[record.Record](nil, defaultHeight-chromeHeight, defaultWidth, render),
		loading:    NewLoadingState(),
		sorts:      []SortMode{{Name: "arrival"}},
		search:     ti,
		width:      defaultWidth,
		height:     defaultHeight,
	}
}

// WithFilters sets the scopes cycled by 'f'.
func (m *ListModel) WithFilters(filters ...Filter) *ListModel {
	m.filters = filters
	return m
}

// WithSorts sets the display orders cycled by 's'.
func (m *ListModel) WithSorts(modes ...SortMode) *ListModel {
	if len(modes) > 0 {
		m.sorts = modes
	}
	return m
}

// WithSearch enables '/' search over the loaded items.
func (m *ListModel) WithSearch(match SearchFunc) *ListModel {
	m.matchSearch = match
	return m
}

// WithDetail enables the detail pane on enter.
func (m *ListModel) WithDetail(fn DetailFunc) *ListModel {
	m.detailFor = fn
	return m
}

// Init subscribes to the controller and loads the first page.
func (m *ListModel) Init() tea.Cmd {
	m.unsubscribe = m.controller.Subscribe(pagedlist.ObserverFuncs[record.Record]{
		Change: func(s pagedlist.State[record.Record]) { m.send(stateMsg{state: s}) },
		Error:  func(err error) { m.send(errorMsg{err: err}) },
	})
	m.controller.LoadFirstPage(m.ctx)
	return m.waitForEvent()
}

func (m *ListModel) send(msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-m.done:
	}
}

func (m *ListModel) waitForEvent() tea.Cmd {
	events, done := m.events, m.done
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-done:
			return nil
		}
	}
}

// Update handles controller events, keys and resizes.
func (m *ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		return m, tea.Batch(m.applyState(msg.state), m.waitForEvent())
	case errorMsg:
		m.notice = msg.err.Error()
		return m, m.waitForEvent()
	case spinner.TickMsg:
		if !m.state.Loading {
			m.spin = false
			return m, nil
		}
		return m, m.loading.Update(msg)
	case detail.LoadedMsg:
		if m.detail == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-chromeHeight, 1))
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *ListModel) applyState(s pagedlist.State[record.Record]) tea.Cmd {
	m.state = s
	m.refreshRows()

	if s.Loading && !m.spin {
		m.spin = true
		return m.loading.Init()
	}
	return nil
}

// refreshRows recomputes the displayed rows from the last state.
func (m *ListModel) refreshRows() {
	rows := slices.Clone(m.state.Items)
	if m.query != "" && m.matchSearch != nil {
		rows = slices.DeleteFunc(rows, func(rec record.Record) bool {
			return !m.matchSearch(rec, m.query)
		})
	}
	if cmp := m.sorts[m.sortIdx].Compare; cmp != nil {
		rows = pagination.SortStable(rows, cmp)
	}
	m.list.SetItems(rows)
}

func (m *ListModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	m.notice = ""

	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.detail != nil {
		return m.handleDetailKey(msg)
	}

	switch msg.String() {
	case "q":
		return m.quit()
	case "m":
		m.controller.LoadNextPage(m.ctx)
		return m, nil
	case "r":
		m.controller.LoadFirstPage(m.ctx)
		return m, nil
	case "f":
		m.nextFilter()
		return m, nil
	case "s":
		m.sortIdx = (m.sortIdx + 1) % len(m.sorts)
		m.refreshRows()
		return m, nil
	case "/":
		if m.matchSearch == nil {
			return m, nil
		}
		m.searching = true
		m.search.SetValue(m.query)
		return m, m.search.Focus()
	case "enter":
		return m.openDetail()
	}

	m.list.Update(msg)
	if m.list.AtBottom() && m.state.CanLoadMore() {
		m.controller.LoadNextPage(m.ctx)
	}
	return m, nil
}

func (m *ListModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.query = strings.TrimSpace(m.search.Value())
		m.searching = false
		m.search.Blur()
		m.refreshRows()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	default:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
}

func (m *ListModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.detail = nil
		return m, nil
	case "q":
		return m.quit()
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *ListModel) openDetail() (tea.Model, tea.Cmd) {
	if m.detailFor == nil {
		return m, nil
	}
	rec := m.list.SelectedItem()
	if rec == nil {
		return m, nil
	}
	m.detail = detail.New(m.ctx, m.title, m.detailFor(*rec))
	return m, m.detail.Init()
}

func (m *ListModel) nextFilter() {
	if len(m.filters) < 2 {
		return
	}
	m.filterIdx = (m.filterIdx + 1) % len(m.filters)
	m.list.SetSelected(0)
	m.controller.SetFilter(m.ctx, m.filters[m.filterIdx].Fetcher)
}

func (m *ListModel) quit() (tea.Model, tea.Cmd) {
	if !m.quitting {
		m.quitting = true
		close(m.done)
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		m.controller.Dispose()
	}
	return m, tea.Quit
}

// State returns the last controller state the model applied.
func (m *ListModel) State() pagedlist.State[record.Record] {
	return m.state
}

// Rows returns the displayed rows in display order.
func (m *ListModel) Rows() []record.Record {
	return m.list.Items()
}

// View renders the list.
func (m *ListModel) View() string {
	if m.quitting {
		return ""
	}
	if m.detail != nil {
		return BoxStyle.Width(max(m.width-2, 1)).Render(m.detail.View())
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(m.title))
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("  %s", m.scopeLine())))
	b.WriteString("\n\n")

	switch {
	case m.list.ItemCount() > 0:
		b.WriteString(m.list.View())
	case m.state.Loading:
	case m.query != "":
		b.WriteString(InfoStyle.Render("No items match the search."))
	default:
		b.WriteString(InfoStyle.Render("No items."))
	}
	b.WriteString("\n\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m *ListModel) scopeLine() string {
	parts := []string{fmt.Sprintf("%d loaded", m.state.Len())}
	if len(m.filters) > 0 {
		parts = append(parts, "scope: "+m.filters[m.filterIdx].Name)
	}
	parts = append(parts, "sort: "+m.sorts[m.sortIdx].Name)
	if m.query != "" {
		parts = append(parts, fmt.Sprintf("search: %q", m.query))
	}
	return strings.Join(parts, " | ")
}

func (m *ListModel) footer() string {
	var lines []string
	switch {
	case m.state.Loading:
		lines = append(lines, m.loading.View("Loading..."))
	case m.state.HasMore:
		lines = append(lines, InfoStyle.Render("m: load more"))
	case m.state.Len() > 0:
		lines = append(lines, SubtleStyle.Render("End of list"))
	}
	if m.notice != "" {
		lines = append(lines, ErrorStyle.Render("Error: "+m.notice))
	}
	if m.searching {
		lines = append(lines, m.search.View())
	} else {
		lines = append(lines, SubtleStyle.Render(m.helpLine()))
	}
	return strings.Join(lines, "\n")
}

func (m *ListModel) helpLine() string {
	keys := []string{"↑/↓ move", "m more", "r refresh"}
	if len(m.filters) > 1 {
		keys = append(keys, "f scope")
	}
	if len(m.sorts) > 1 {
		keys = append(keys, "s sort")
	}
	if m.matchSearch != nil {
		keys = append(keys, "/ search")
	}
	if m.detailFor != nil {
		keys = append(keys, "enter details")
	}
	keys = append(keys, "q quit")
	return strings.Join(keys, "  ")
}
