// Package tui implements the interactive dashboard: one tab per metric
// domain, a pager over the domain's entries, and a live history chart
// that redraws after every scheduler tick.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/system"
	"gitlab.com/tinyland/lab/sysgraph/display/color"
	"gitlab.com/tinyland/lab/sysgraph/internal/format"
)

// Zone ids for clickable regions.
const (
	zonePrev      = "entry-prev"
	zoneNext      = "entry-next"
	zoneTabPrefix = "tab-"
)

// UpdatedMsg reports that a domain's collector finished a refresh.
type UpdatedMsg struct {
	Domain collectors.Domain
}

// WaitForUpdate returns a command that blocks for the next update on ch.
// Update re-arms it after each message. A closed channel ends the loop.
func WaitForUpdate(ch <-chan collectors.Domain) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		d, ok := <-ch
		if !ok {
			return nil
		}
		return UpdatedMsg{Domain: d}
	}
}

// Option configures a Model.
type Option func(*Model)

// WithInterval shows the polling period in the footer.
func WithInterval(d time.Duration) Option {
	return func(m *Model) {
		m.interval = d
	}
}

// Model is the top-level Bubbletea model for the dashboard.
type Model struct {
	data    *system.Data
	domains []collectors.Domain
	updates <-chan collectors.Domain

	activeTab int
	// entries holds the selected entry per tab.
	entries []int

	zone *zone.Manager
	help help.Model

	width       int
	height      int
	ready       bool
	lastUpdated time.Time
	interval    time.Duration
	now         func() time.Time
}

// NewModel returns a Model showing the given domains in order. Updates
// from the schedulers arrive on updates; nil disables live redraws.
func NewModel(data *system.Data, domains []collectors.Domain, updates <-chan collectors.Domain, opts ...Option) Model {
	if len(domains) == 0 {
		domains = collectors.AllDomains()
	}
	ds := append([]collectors.Domain(nil), domains...)
	m := Model{
		data:    data,
		domains: ds,
		updates: updates,
		entries: make([]int, len(ds)),
		zone:    zone.New(),
		help:    help.New(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Close stops the zone manager's background worker.
func (m Model) Close() {
	if m.zone != nil {
		m.zone.Close()
	}
}

// ActiveDomain returns the domain of the selected tab.
func (m Model) ActiveDomain() collectors.Domain {
	return m.domains[m.activeTab]
}

// Entry returns the selected entry index of the active tab.
func (m Model) Entry() int {
	return m.entries[m.activeTab]
}

// Init implements tea.Model. It starts listening for scheduler updates.
func (m Model) Init() tea.Cmd {
	return WaitForUpdate(m.updates)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, keys.NextTab):
			m.activeTab = (m.activeTab + 1) % len(m.domains)
		case key.Matches(msg, keys.PrevTab):
			m.activeTab = (m.activeTab - 1 + len(m.domains)) % len(m.domains)
		case key.Matches(msg, keys.NextEntry):
			m = m.pageEntry(1)
		case key.Matches(msg, keys.PrevEntry):
			m = m.pageEntry(-1)
		case key.Matches(msg, keys.Retry):
			collectors.ResetHealth(m.collector(m.ActiveDomain()), m.Entry())
		default:
			for i, b := range keys.tabKeys() {
				if key.Matches(msg, b) {
					m = m.selectDomain(collectors.Domain(i))
					break
				}
			}
		}

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			break
		}
		for _, id := range m.zoneIDs() {
			if z := m.zone.Get(id); z != nil && z.InBounds(msg) {
				m = m.click(id)
				break
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case UpdatedMsg:
		m.lastUpdated = m.now()
		return m, WaitForUpdate(m.updates)
	}

	return m, nil
}

// collector returns the shared collector for d.
func (m Model) collector(d collectors.Domain) collectors.Collector {
	if m.data == nil {
		return collectors.Empty(d)
	}
	return m.data.Get(d)
}

// selectDomain activates d's tab if it is shown.
func (m Model) selectDomain(d collectors.Domain) Model {
	for i, shown := range m.domains {
		if shown == d {
			m.activeTab = i
		}
	}
	return m
}

// pageEntry moves the active tab's selection by one in direction dir.
func (m Model) pageEntry(dir int) Model {
	c := m.collector(m.ActiveDomain())
	cur := m.entries[m.activeTab]

	next := c.NextIndex(cur)
	if dir < 0 {
		next = c.PrevIndex(cur)
	}

	entries := append([]int(nil), m.entries...)
	entries[m.activeTab] = next
	m.entries = entries
	return m
}

// click handles a left click on a marked zone.
func (m Model) click(id string) Model {
	switch id {
	case zonePrev:
		return m.pageEntry(-1)
	case zoneNext:
		return m.pageEntry(1)
	}
	if name, ok := strings.CutPrefix(id, zoneTabPrefix); ok {
		if d, err := collectors.ParseDomain(name); err == nil {
			return m.selectDomain(d)
		}
	}
	return m
}

func (m Model) zoneIDs() []string {
	ids := []string{zonePrev, zoneNext}
	for _, d := range m.domains {
		ids = append(ids, zoneTabPrefix+d.String())
	}
	return ids
}

// View implements tea.Model. It renders the header, active page, and footer.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	content := m.renderContent()
	footer := m.renderFooter()

	return m.zone.Scan(lipgloss.JoinVertical(lipgloss.Left, header, content, footer))
}

// renderHeader renders the tab bar with the active tab highlighted.
func (m Model) renderHeader() string {
	tabs := make([]string, 0, len(m.domains))
	for i, d := range m.domains {
		name := tabTitle(d)
		if i == m.activeTab {
			name = styleActiveTab.Render(name)
		} else {
			name = styleInactiveTab.Render(name)
		}
		tabs = append(tabs, m.zone.Mark(zoneTabPrefix+d.String(), name))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return styleHeader.Width(m.width).Render(tabBar)
}

// renderContent renders the active domain's page.
func (m Model) renderContent() string {
	d := m.ActiveDomain()
	c := m.collector(d)
	lay := LayoutForSize(DetectLayout(m.width), m.width, m.height)

	idx := m.entries[m.activeTab]
	if idx >= c.Count() {
		idx = 0
	}

	var b strings.Builder
	b.WriteString(m.renderPager(c, idx))
	b.WriteString("\n\n")
	b.WriteString(renderPage(m.data, c, idx, lay))

	return styleContent.Width(m.width).Render(b.String())
}

// renderPager renders "◀ name (i/n) ▶". The arrows are clickable and are
// hidden when there is nothing to page through.
func (m Model) renderPager(c collectors.Collector, idx int) string {
	n := c.Count()
	if n == 0 {
		return styleTitle.Render(tabTitle(c.Domain()))
	}

	title := styleTitle.Render(color.StripANSI(c.EntryName(idx)))
	if n == 1 {
		return title
	}

	prev := m.zone.Mark(zonePrev, styleArrow.Render("◀"))
	next := m.zone.Mark(zoneNext, styleArrow.Render("▶"))
	pos := styleMuted.Render(fmt.Sprintf("(%d/%d)", idx+1, n))
	return prev + title + " " + pos + next
}

// renderFooter renders the help line and last updated timestamp.
func (m Model) renderFooter() string {
	footer := m.help.View(keys)
	if !m.lastUpdated.IsZero() {
		footer += fmt.Sprintf("  Updated: %s", m.lastUpdated.Format("15:04:05"))
	}
	if m.interval > 0 {
		footer += "  every " + format.Interval(m.interval)
	}
	return styleFooter.Width(m.width).Render(footer)
}

func tabTitle(d collectors.Domain) string {
	switch d {
	case collectors.CPU:
		return "CPU"
	case collectors.GPU:
		return "GPU"
	}
	s := d.String()
	return strings.ToUpper(s[:1]) + s[1:]
}
