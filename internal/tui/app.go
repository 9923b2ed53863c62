package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AScotM/tcpwatch/internal/conn"
	"github.com/AScotM/tcpwatch/internal/display"
	"github.com/AScotM/tcpwatch/internal/proc"
)

// viewState tracks which screen the TUI is currently showing.
type viewState int

const (
	viewTable viewState = iota
	viewSearch
)

// sortField defines what column to sort by.
type sortField int

const (
	sortKernel sortField = iota // kernel emission order
	sortByState
	sortByLocalPort
	sortByPeer
)

func (f sortField) String() string {
	switch f {
	case sortByState:
		return "state"
	case sortByLocalPort:
		return "port"
	case sortByPeer:
		return "peer"
	default:
		return "kernel"
	}
}

// Settings configures the dashboard.
type Settings struct {
	Version    string
	Transports []conn.Transport
	Filter     conn.Filter
	Interval   time.Duration
	ShowOwner  bool
}

// Messages for async operations.
type scanDoneMsg struct {
	conns    []conn.Connection
	reported []error
}

type tickMsg time.Time

// Model is the main Bubbletea model for the tcpwatch TUI.
type Model struct {
	settings Settings
	scanner  *conn.Scanner

	conns    []conn.Connection
	filtered []int // indices into conns for currently displayed items
	reported []error

	cursor       int
	scrollOffset int
	sortBy       sortField
	searchQuery  string
	paused       bool

	scanning bool
	spinner  spinner.Model

	width  int
	height int

	currentView viewState
}

// New creates a new TUI model.
func New(settings Settings) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorCyan)

	if settings.Interval <= 0 {
		settings.Interval = 2 * time.Second
	}
	if len(settings.Transports) == 0 {
		settings.Transports = []conn.Transport{conn.TCP, conn.TCP6}
	}

	return Model{
		settings: settings,
		scanner:  conn.NewScanner(settings.Filter, nil),
		scanning: true,
		spinner:  sp,
	}
}

// Init starts the spinner and kicks off the initial scan.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.doScan(), m.tickCmd())
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.settings.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) doScan() tea.Cmd {
	scanner := m.scanner
	settings := m.settings
	return func() tea.Msg {
		conns, reported := scanner.Snapshot(settings.Transports...)
		if settings.ShowOwner {
			owners := proc.Owners("/proc")
			for i := range conns {
				if o, ok := owners[conns[i].Inode]; ok && conns[i].Inode != 0 {
					conns[i].Process = fmt.Sprintf("%s(%d)", o.Name, o.PID)
				}
			}
		}
		return scanDoneMsg{conns: conns, reported: reported}
	}
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.scanning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tickMsg:
		if !m.paused && m.currentView == viewTable {
			return m, tea.Batch(m.doScan(), m.tickCmd())
		}
		return m, m.tickCmd()

	case scanDoneMsg:
		m.scanning = false
		m.conns = msg.conns
		m.reported = msg.reported
		m.sortConns()
		m.rebuildFiltered()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.currentView {
		case viewSearch:
			return m.updateSearch(msg)
		default:
			return m.updateTable(msg)
		}
	}

	return m, nil
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		if len(m.filtered) > 0 && m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}
	case "r":
		m.scanning = true
		return m, tea.Batch(m.doScan(), m.spinner.Tick)
	case "s":
		m.sortBy = (m.sortBy + 1) % 4
		m.sortConns()
		m.rebuildFiltered()
	case "p":
		m.paused = !m.paused
	case "/":
		m.currentView = viewSearch
		m.searchQuery = ""
	case "esc":
		if m.searchQuery != "" {
			m.searchQuery = ""
			m.rebuildFiltered()
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.currentView = viewTable
		m.rebuildFiltered()
	case "esc":
		m.currentView = viewTable
		m.searchQuery = ""
		m.rebuildFiltered()
	case "backspace":
		if len(m.searchQuery) > 0 {
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-1]
			m.rebuildFiltered()
		}
	default:
		key := msg.String()
		if len(key) == 1 {
			m.searchQuery += key
			m.rebuildFiltered()
		}
	}
	return m, nil
}

func (m *Model) sortConns() {
	switch m.sortBy {
	case sortByState:
		sort.SliceStable(m.conns, func(i, j int) bool { return m.conns[i].State < m.conns[j].State })
	case sortByLocalPort:
		sort.SliceStable(m.conns, func(i, j int) bool { return m.conns[i].LocalPort < m.conns[j].LocalPort })
	case sortByPeer:
		sort.SliceStable(m.conns, func(i, j int) bool { return m.conns[i].Peer() < m.conns[j].Peer() })
	}
}

func (m *Model) rebuildFiltered() {
	m.filtered = m.filtered[:0]
	query := strings.ToLower(m.searchQuery)
	for i, c := range m.conns {
		if query != "" {
			match := strings.Contains(strings.ToLower(string(c.State)), query) ||
				strings.Contains(strings.ToLower(c.Local()), query) ||
				strings.Contains(strings.ToLower(c.Peer()), query) ||
				strings.Contains(strings.ToLower(c.Process), query)
			if !match {
				continue
			}
		}
		m.filtered = append(m.filtered, i)
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
	m.adjustScroll()
}

func (m *Model) ensureCursorVisible() {
	visible := m.visibleRows()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+visible {
		m.scrollOffset = m.cursor - visible + 1
	}
}

func (m *Model) adjustScroll() {
	visible := m.visibleRows()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+visible {
		m.scrollOffset = m.cursor - visible + 1
	}
	maxOffset := len(m.filtered) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.scrollOffset > maxOffset {
		m.scrollOffset = maxOffset
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m Model) visibleRows() int {
	// Reserve lines for: header (2), column headers (1), scroll indicator
	// (1), warnings (1), help (2) = 7.
	const reserved = 7
	visible := m.height - reserved
	if visible < 1 {
		visible = 1
	}
	return visible
}

// View renders the TUI.
func (m Model) View() string {
	if m.currentView == viewSearch {
		return m.viewSearch()
	}
	return m.viewTable()
}

func (m Model) viewTable() string {
	var b strings.Builder

	// Header bar.
	title := titleStyle.Render(fmt.Sprintf("tcpwatch %s", m.settings.Version))
	established := 0
	listening := 0
	for _, c := range m.conns {
		switch c.State {
		case conn.StateEstablished:
			established++
		case conn.StateListen:
			listening++
		}
	}
	stats := dimStyle.Render(fmt.Sprintf("Total: %d  Established: %d  Listening: %d  sort: %s",
		len(m.conns), established, listening, m.sortBy))
	pauseIndicator := ""
	if m.paused {
		pauseIndicator = warnStyle.Render("  [PAUSED]")
	}
	b.WriteString(title + "  " + stats + pauseIndicator + "\n")

	if m.scanning && len(m.conns) == 0 {
		b.WriteString("\n" + m.spinner.View() + " Reading socket tables...\n")
		return b.String()
	}

	// Column headers.
	ownerCols := ""
	if m.settings.ShowOwner {
		ownerCols = fmt.Sprintf(" %-10s %s", "USER", "PROCESS")
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf(
		"  %-5s %-12s %-26s %-26s%s",
		"NETID", "STATE", "LOCAL", "PEER", ownerCols,
	)) + "\n")

	if len(m.filtered) == 0 {
		if m.searchQuery != "" {
			b.WriteString("\n  No results matching: " + m.searchQuery + "\n")
		} else {
			b.WriteString("\n  No connections found.\n")
		}
	} else {
		viewportRows := m.visibleRows()
		end := m.scrollOffset + viewportRows
		if end > len(m.filtered) {
			end = len(m.filtered)
		}

		for i := m.scrollOffset; i < end; i++ {
			c := m.conns[m.filtered[i]]

			cursor := "  "
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
			}

			owner := ""
			if m.settings.ShowOwner {
				user := ""
				if c.HasUID {
					user = proc.Username(c.UID)
				}
				owner = fmt.Sprintf(" %-10s %s", truncate(user, 10), truncate(c.Process, 20))
			}

			state := display.StateStyle(c.State).Render(fmt.Sprintf("%-12s", c.State))
			line := fmt.Sprintf("%-5s %s %-26s %-26s%s",
				c.Transport, state,
				truncate(c.Local(), 26),
				truncate(c.Peer(), 26),
				owner,
			)

			b.WriteString(cursor + line + "\n")
		}

		// Scroll indicator.
		if len(m.filtered) > viewportRows {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  [%d-%d of %d]",
				m.scrollOffset+1, end, len(m.filtered))) + "\n")
		}
	}

	if len(m.reported) > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  %v", m.reported[0])) + "\n")
	}

	// Search indicator.
	if m.searchQuery != "" {
		b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  filter: %s", m.searchQuery)))
	}

	// Help bar.
	b.WriteString(helpStyle.Render("j/k:navigate  r:refresh  s:sort  p:pause  /:search  q:quit") + "\n")

	return b.String()
}

func (m Model) viewSearch() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tcpwatch -- Search") + "\n\n")
	b.WriteString("  Type to filter: " + m.searchQuery + "_\n")
	b.WriteString(helpStyle.Render("\nenter:apply  esc:cancel") + "\n")

	return b.String()
}

// truncate truncates a string to max length, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	if maxLen < 4 {
		maxLen = 4
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
