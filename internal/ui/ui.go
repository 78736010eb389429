package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"koken/internal/browse"
	"koken/internal/config"
	"koken/internal/logging"
	"koken/internal/recipe"
	"koken/internal/source"
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
)

// Used until the first WindowSizeMsg arrives.
const fallbackWidth = 80

type loadedMsg struct {
	store *recipe.Store
}

type loadFailedMsg struct {
	err error
}

type keyMap struct {
	quit      key.Binding
	up        key.Binding
	down      key.Binding
	search    key.Binding
	cancel    key.Binding
	expand    key.Binding
	pin       key.Binding
	nextCat   key.Binding
	prevCat   key.Binding
	toggleCat key.Binding
	clear     key.Binding
}

func newKeyMap(k config.Keymap) keyMap {
	return keyMap{
		quit:      key.NewBinding(key.WithKeys(k.Quit, "ctrl+c")),
		up:        key.NewBinding(key.WithKeys(k.Up, "up")),
		down:      key.NewBinding(key.WithKeys(k.Down, "down")),
		search:    key.NewBinding(key.WithKeys(k.Search)),
		cancel:    key.NewBinding(key.WithKeys(k.Cancel, "enter")),
		expand:    key.NewBinding(key.WithKeys(k.Expand, k.ExpandAlt)),
		pin:       key.NewBinding(key.WithKeys(k.Pin)),
		nextCat:   key.NewBinding(key.WithKeys(k.NextCategory)),
		prevCat:   key.NewBinding(key.WithKeys(k.PrevCategory)),
		toggleCat: key.NewBinding(key.WithKeys(k.ToggleCategory)),
		clear:     key.NewBinding(key.WithKeys(k.ClearFilters)),
	}
}

// card is one focusable recipe on screen, in display order: the pinned
// strip first, then the main list.
type card struct {
	recipe recipe.Recipe
}

type Model struct {
	src       source.Source
	cfg       config.Config
	collation recipe.Collation
	keys      keyMap

	store   *recipe.Store
	state   browse.State
	view    browse.View
	loading bool
	loadErr error

	cursor int
	chip   int
	mode   mode
	input  textinput.Model
	width  int
	height int
	status string
}

func New(src source.Source, cfg config.Config, c recipe.Collation) Model {
	ti := textinput.New()
	ti.Placeholder = "title or ingredient"
	ti.CharLimit = 128
	ti.Width = 40
	ti.Prompt = ""

	return Model{
		src:       src,
		cfg:       cfg,
		collation: c,
		keys:      newKeyMap(cfg.Keys),
		state:     browse.NewState(),
		loading:   true,
		input:     ti,
		mode:      modeBrowse,
		status:    "Loading recipes...",
	}
}

func Run(src source.Source, cfg config.Config, c recipe.Collation) error {
	program := tea.NewProgram(New(src, cfg, c), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return loadCmd(m.src, m.cfg.Timeout(), m.collation)
}

func loadCmd(src source.Source, timeout time.Duration, c recipe.Collation) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		raw, err := src.Fetch(ctx)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return loadedMsg{store: recipe.NewStore(raw, c)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		m.store = msg.store
		m.refresh()
		m.status = fmt.Sprintf("Loaded %d recipes from %s", m.store.Len(), m.src.Name())
		logging.Info().Int("recipes", m.store.Len()).Int("categories", len(m.store.Categories)).Msg("recipes loaded")
		return m, nil
	case loadFailedMsg:
		m.loading = false
		m.loadErr = msg.err
		m.status = ""
		logging.Error().Err(msg.err).Str("source", m.src.Name()).Msg("recipe load failed")
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-12)
		m.refreshKeeping(m.currentTitle())
		return m, nil
	case tea.KeyMsg:
		if m.mode == modeSearch {
			return m.updateSearchMode(msg)
		}
		return m.updateBrowseMode(msg)
	}
	return m, nil
}

func (m Model) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.cancel):
		m.mode = modeBrowse
		m.input.Blur()
		m.status = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.state.Search {
		m.state.SetSearch(m.input.Value())
		m.refresh()
		m.cursor = 0
	}
	return m, cmd
}

func (m Model) updateBrowseMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	if m.loading || m.loadErr != nil {
		return m, nil
	}

	cards := m.cards()
	switch {
	case key.Matches(msg, m.keys.down):
		m.cursor = clampCursor(m.cursor+1, len(cards))
	case key.Matches(msg, m.keys.up):
		m.cursor = clampCursor(m.cursor-1, len(cards))
	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		m.status = "Type to search, enter or esc to return to the list"
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.pin):
		if len(cards) == 0 {
			return m, nil
		}
		title := cards[m.cursor].recipe.Title
		if m.state.TogglePin(title) {
			m.status = fmt.Sprintf("Pinned %q", title)
		} else {
			m.status = fmt.Sprintf("Unpinned %q", title)
		}
		m.refreshKeeping(title)
	case key.Matches(msg, m.keys.expand):
		if len(cards) == 0 {
			return m, nil
		}
		m.state.ToggleExpanded(cards[m.cursor].recipe.Title, m.view.Pinned)
	case key.Matches(msg, m.keys.nextCat):
		m.chip = wrapIndex(m.chip+1, len(m.view.Chips))
	case key.Matches(msg, m.keys.prevCat):
		m.chip = wrapIndex(m.chip-1, len(m.view.Chips))
	case key.Matches(msg, m.keys.toggleCat):
		if len(m.view.Chips) == 0 {
			return m, nil
		}
		label := m.view.Chips[clampCursor(m.chip, len(m.view.Chips))].Label
		m.state.ToggleCategory(label)
		m.refreshKeeping(m.currentTitle())
		for i, c := range m.view.Chips {
			if c.Label == label {
				m.chip = i
				break
			}
		}
		m.status = m.filterSummary()
	case key.Matches(msg, m.keys.clear):
		m.state.ClearFilters()
		m.input.SetValue("")
		m.refresh()
		m.cursor = 0
		m.status = "Filters cleared"
	}
	return m, nil
}

func (m Model) wide() bool {
	return m.width >= m.cfg.WideWidth
}

func (m *Model) refresh() {
	m.view = browse.Compute(m.store, m.state, m.wide())
	m.cursor = clampCursor(m.cursor, len(m.cards()))
	m.chip = clampCursor(m.chip, len(m.view.Chips))
}

// refreshKeeping recomputes the view and moves the cursor to title if it
// is still on screen.
func (m *Model) refreshKeeping(title string) {
	m.refresh()
	if title == "" {
		return
	}
	for i, c := range m.cards() {
		if c.recipe.Title == title {
			m.cursor = i
			return
		}
	}
}

func (m Model) currentTitle() string {
	cards := m.cards()
	if len(cards) == 0 {
		return ""
	}
	return cards[clampCursor(m.cursor, len(cards))].recipe.Title
}

func (m Model) cards() []card {
	out := make([]card, 0, len(m.view.Pinned.Cards)+len(m.view.Main))
	if m.view.Pinned.Visible {
		for _, r := range m.view.Pinned.Cards {
			out = append(out, card{recipe: r})
		}
	}
	for _, r := range m.view.Main {
		out = append(out, card{recipe: r})
	}
	return out
}

func (m Model) filterSummary() string {
	active := m.state.Active.Sorted()
	if len(active) == 0 {
		return "All categories"
	}
	return "Categories: " + strings.Join(active, ", ")
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Koken"))
	if m.store != nil {
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %d recipes", m.store.Len())))
	}
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString("Loading recipes...\n")
	case m.loadErr != nil:
		b.WriteString(errorStyle.Render(source.Describe(m.loadErr)))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderSearch())
		b.WriteString("\n")
		b.WriteString(m.renderChips())
		b.WriteString("\n\n")
		b.WriteString(m.renderCards())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(renderHelp(m.cfg.Keys))
	return b.String()
}

func (m Model) renderSearch() string {
	if m.mode == modeSearch || m.state.Search != "" {
		return labelStyle.Render("Search: ") + m.input.View()
	}
	return labelStyle.Render(fmt.Sprintf("Search: (press %s)", m.cfg.Keys.Search))
}

func (m Model) renderChips() string {
	if len(m.view.Chips) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.view.Chips))
	for i, c := range m.view.Chips {
		style := chipStyle
		if c.Active {
			style = activeChipStyle
		}
		if i == m.chip {
			style = style.Underline(true)
		}
		parts = append(parts, style.Render(c.Label))
	}
	return lipgloss.NewStyle().Width(m.screenWidth()).Render(strings.Join(parts, " "))
}

// block is a rendered row of the card area and the card indexes it holds.
type block struct {
	text  string
	first int
	last  int
}

func (m Model) renderCards() string {
	cards := m.cards()
	if m.view.Empty && !m.view.Pinned.Visible {
		return emptyStyle.Render("No recipes found.")
	}

	var blocks []block
	width := m.screenWidth()
	idx := 0
	if m.view.Pinned.Visible {
		half := width / 2
		for _, row := range m.view.Pinned.Rows() {
			left := m.renderCard(row[0], half, idx == m.cursor)
			right := m.renderCard(row[1], half, idx+1 == m.cursor)
			blocks = append(blocks, block{
				text:  lipgloss.JoinHorizontal(lipgloss.Top, left, right),
				first: idx,
				last:  idx + 1,
			})
			idx += 2
		}
	}
	if m.view.Empty {
		blocks = append(blocks, block{text: emptyStyle.Render("No recipes found."), first: -1, last: -1})
	}
	for idx < len(cards) {
		blocks = append(blocks, block{
			text:  m.renderCard(cards[idx].recipe, width, idx == m.cursor),
			first: idx,
			last:  idx,
		})
		idx++
	}

	texts := fitWindow(blocks, m.cursor, m.cardBudget())
	return strings.Join(texts, "\n")
}

func (m Model) renderCard(r recipe.Recipe, width int, selected bool) string {
	var b strings.Builder
	title := r.Title
	if m.state.Pinned.Has(r.Title) {
		title = "* " + title
	}
	b.WriteString(cardTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(categoryStyle.Render(strings.Join(r.Category, " / ")))

	if m.state.IsExpanded(r.Title) {
		b.WriteString("\n\n")
		b.WriteString(sectionStyle.Render("Ingredients"))
		for _, ing := range r.Ingredients {
			b.WriteString("\n- ")
			b.WriteString(ing)
		}
		b.WriteString("\n\n")
		b.WriteString(sectionStyle.Render("Instructions"))
		for i, step := range r.Instructions {
			b.WriteString(fmt.Sprintf("\n%d. %s", i+1, step))
		}
	}

	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	// Width excludes the border.
	return style.Width(max(10, width-2)).Render(b.String())
}

func (m Model) screenWidth() int {
	if m.width > 0 {
		return m.width
	}
	return fallbackWidth
}

// cardBudget is the number of lines left for cards; 0 means unlimited.
func (m Model) cardBudget() int {
	if m.height <= 0 {
		return 0
	}
	// header, search, chips, status and help
	return max(3, m.height-9)
}

// fitWindow picks consecutive blocks around the one holding cursor so
// that their combined height stays within budget.
func fitWindow(blocks []block, cursor, budget int) []string {
	if len(blocks) == 0 {
		return nil
	}
	at := 0
	for i, bl := range blocks {
		if bl.first >= 0 && cursor >= bl.first && cursor <= bl.last {
			at = i
			break
		}
	}
	if budget <= 0 {
		budget = int(^uint(0) >> 1)
	}

	start, end := at, at+1
	used := lipgloss.Height(blocks[at].text)
	for {
		grew := false
		if end < len(blocks) {
			if h := lipgloss.Height(blocks[end].text); used+h <= budget {
				used += h
				end++
				grew = true
			}
		}
		if start > 0 {
			if h := lipgloss.Height(blocks[start-1].text); used+h <= budget {
				used += h
				start--
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	out := make([]string, 0, end-start)
	for _, bl := range blocks[start:end] {
		out = append(out, bl.text)
	}
	return out
}

func renderHelp(k config.Keymap) string {
	return statusStyle.Render(fmt.Sprintf("%s/%s move • %s/space open • %s pin • %s search • %s/%s category • %s toggle category • %s clear • %s quit",
		k.Up, k.Down, k.Expand, k.Pin, k.Search, k.NextCategory, k.PrevCategory, k.ToggleCategory, k.ClearFilters, k.Quit))
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
