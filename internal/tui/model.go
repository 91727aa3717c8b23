// Package tui is the terminal front end of the POS: a floor grid of tables
// and a detail screen per table.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"maitred/internal/models"
	"maitred/internal/pos"
	"maitred/internal/receipt"
	"maitred/internal/syncer"
)

const gridColumns = 5

type view int

const (
	viewFloor view = iota
	viewTable
	viewMenu
	viewSummary
)

// startMsg starts the session from inside the event loop
type startMsg struct{}

// clockMsg redraws the footer once a second
type clockMsg time.Time

// menuEntry is a catalog item in the picker
type menuEntry struct {
	item  models.MenuItem
	price string
}

func (e menuEntry) Title() string       { return e.item.Name }
func (e menuEntry) Description() string { return e.item.CategoryOrOther() + " · " + e.price }
func (e menuEntry) FilterValue() string { return e.item.Name }

// Model defines the application state
type Model struct {
	session *pos.Session
	ctx     context.Context
	money   receipt.Money

	view       view
	cursor     int
	table      int
	confirming bool

	lines    table.Model
	menuList list.Model
	spinner  spinner.Model

	status string
	err    string
}

// NewModel creates the UI over session. ctx bounds the session's lifetime.
func NewModel(ctx context.Context, session *pos.Session, money receipt.Money) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	columns := []table.Column{
		{Title: "Item", Width: 20},
		{Title: "Qty", Width: 5},
		{Title: "Price", Width: 12},
		{Title: "Subtotal", Width: 14},
	}
	lines := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	menuList := list.New([]list.Item{}, list.NewDefaultDelegate(), 60, 20)
	menuList.Title = "Add item"
	menuList.SetShowHelp(false)

	return Model{
		session:  session,
		ctx:      ctx,
		money:    money,
		lines:    lines,
		menuList: menuList,
		spinner:  s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return startMsg{} },
		m.spinner.Tick,
		clock(),
	)
}

func clock() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case startMsg:
		m.session.Start(m.ctx)
	case taskMsg:
		msg.fn()
	case clockMsg:
		cmd = clock()
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
	case tea.WindowSizeMsg:
		m.menuList.SetSize(msg.Width-4, msg.Height-4)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.session.Stop()
			return m, tea.Quit
		}
		switch m.view {
		case viewFloor:
			m, cmd = m.updateFloor(msg)
		case viewTable:
			m, cmd = m.updateTable(msg)
		case viewMenu:
			m, cmd = m.updateMenu(msg)
		case viewSummary:
			if s := msg.String(); s == "esc" || s == "q" || s == "enter" {
				m.view = viewFloor
			}
		}
	}

	if m.view == viewTable {
		m.refreshLines()
	}
	return m, cmd
}

func (m Model) updateFloor(msg tea.KeyMsg) (Model, tea.Cmd) {
	count := m.session.TableCount()

	switch msg.String() {
	case "q":
		m.session.Stop()
		return m, tea.Quit
	case "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case "right", "l":
		if m.cursor < count-1 {
			m.cursor++
		}
	case "up", "k":
		if m.cursor >= gridColumns {
			m.cursor -= gridColumns
		}
	case "down", "j":
		if m.cursor+gridColumns < count {
			m.cursor += gridColumns
		}
	case "enter":
		m.openTable(m.cursor + 1)
	case "r", "f5":
		m.session.Refresh()
		m.status = "refreshing tables"
	case "M":
		m.session.RefreshMenu(nil)
		m.status = "reloading menu"
	case "s":
		m.view = viewSummary
	}
	return m, nil
}

func (m Model) updateTable(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()

	if m.confirming {
		m.confirming = false
		if key == "y" {
			m.report(m.session.CancelAll(m.table, nil), fmt.Sprintf("cancelling all orders on table %d", m.table))
		} else {
			m.status = "cancel aborted"
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch key {
	case "esc", "q":
		m.view = viewFloor
		m.err = ""
	case "up", "down", "k", "j":
		m.lines, cmd = m.lines.Update(msg)
	case "a":
		m.openMenu()
	case "+", "=":
		m.adjustSelected(1)
	case "-":
		m.adjustSelected(-1)
	case "v":
		m.toggleReservation()
	case "o":
		m.report(m.session.Submit(m.table, nil), fmt.Sprintf("sending order for table %d", m.table))
	case "x":
		if lines, _ := m.session.Lines(m.table); len(lines) > 0 {
			m.confirming = true
			m.status = fmt.Sprintf("cancel every order on table %d? (y/n)", m.table)
		}
	case "p":
		_, location, err := m.session.Settle(m.table)
		m.report(err, "receipt saved to "+location)
	case "r", "f5":
		m.session.Refresh()
	}
	return m, cmd
}

func (m Model) updateMenu(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.menuList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.menuList, cmd = m.menuList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc":
		m.view = viewTable
		return m, nil
	case "enter":
		entry, ok := m.menuList.SelectedItem().(menuEntry)
		if !ok {
			return m, nil
		}
		line, err := m.session.AddItem(m.table, entry.item.ID)
		m.report(err, fmt.Sprintf("%s x%d", line.ItemName, line.Quantity))
		m.view = viewTable
		return m, nil
	}

	var cmd tea.Cmd
	m.menuList, cmd = m.menuList.Update(msg)
	return m, cmd
}

func (m *Model) openTable(table int) {
	m.table = table
	m.view = viewTable
	m.status = ""
	m.err = ""
	m.lines.SetCursor(0)
}

func (m *Model) openMenu() {
	groups := m.session.MenuByCategory()
	categories := make([]string, 0, len(groups))
	for category := range groups {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var items []list.Item
	for _, category := range categories {
		for _, item := range groups[category] {
			if !item.Available {
				continue
			}
			items = append(items, menuEntry{item: item, price: m.money.Format(item.Price)})
		}
	}

	if len(items) == 0 {
		m.err = "menu is empty, press M on the floor to reload it"
		return
	}
	m.menuList.SetItems(items)
	m.menuList.Select(0)
	m.menuList.Title = fmt.Sprintf("Add item to table %d", m.table)
	m.view = viewMenu
}

func (m *Model) adjustSelected(delta int) {
	lines, _ := m.session.Lines(m.table)
	i := m.lines.Cursor()
	if i < 0 || i >= len(lines) {
		return
	}
	m.report(m.session.Adjust(m.table, lines[i].Key(), delta), "")
}

func (m *Model) toggleReservation() {
	status, err := m.session.Status(m.table)
	if err != nil {
		m.report(err, "")
		return
	}
	if status.Status == models.TableReserved {
		m.report(m.session.CancelReservation(m.table), fmt.Sprintf("table %d reservation released", m.table))
	} else {
		m.report(m.session.Reserve(m.table), fmt.Sprintf("table %d reserved", m.table))
	}
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.err = err.Error()
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrConflict) {
			m.status = ""
		}
		return
	}
	m.err = ""
	if ok != "" {
		m.status = ok
	}
}

func (m *Model) refreshLines() {
	lines, _ := m.session.Lines(m.table)
	rows := make([]table.Row, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, table.Row{
			line.ItemName,
			fmt.Sprintf("%d", line.Quantity),
			m.money.Format(line.UnitPrice),
			m.money.Format(line.Subtotal()),
		})
	}
	m.lines.SetRows(rows)
	if c := m.lines.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.lines.SetCursor(len(rows) - 1)
	}
}

// View renders the UI
func (m Model) View() string {
	var body string
	switch m.view {
	case viewFloor:
		body = m.floorView()
	case viewTable:
		body = m.tableView()
	case viewMenu:
		body = m.menuList.View()
	case viewSummary:
		body = m.summaryView()
	}
	return docStyle.Render(body + "\n" + m.footer())
}

func (m Model) floorView() string {
	statuses := m.session.Statuses()

	var rows []string
	for start := 0; start < len(statuses); start += gridColumns {
		end := start + gridColumns
		if end > len(statuses) {
			end = len(statuses)
		}
		cells := make([]string, 0, gridColumns)
		for i := start; i < end; i++ {
			cells = append(cells, m.cell(statuses[i], i == m.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	help := helpStyle.Render("arrows move · enter open · r refresh · M reload menu · s summary · q quit")
	return titleStyle.Render("Tables") + "\n\n" + lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n" + help
}

func (m Model) cell(status models.TableStatus, selected bool) string {
	style := emptyCell
	switch status.Status {
	case models.TableOrdered:
		style = orderedCell
	case models.TableReserved:
		style = reservedCell
	}
	if selected {
		style = style.Copy().Bold(true).BorderStyle(lipgloss.ThickBorder())
	}

	text := fmt.Sprintf("Table %d", status.Table)
	if status.Status == models.TableReserved {
		text += " (R)"
	}
	if status.HasOrders() {
		headline := status.HeadlineItem
		if status.ExtraCount > 0 {
			headline += fmt.Sprintf(" +%d", status.ExtraCount)
		}
		text += "\n" + headline + "\n" + m.money.Format(status.Total)
	}
	return style.Render(text)
}

func (m Model) tableView() string {
	status, _ := m.session.Status(m.table)
	_, total := m.session.Lines(m.table)

	title := fmt.Sprintf("Table %d", m.table)
	if status.Status == models.TableReserved {
		title += " · reserved"
	}

	view := titleStyle.Render(title) + "\n\n"
	view += m.lines.View() + "\n\n"
	view += infoStyle.Render("Total: "+m.money.Format(total)) + "\n\n"
	view += helpStyle.Render("a add · +/- quantity · v reserve · o send order · x cancel all · p settle · esc back")
	return view
}

func (m Model) summaryView() string {
	summary := m.session.Summary()

	view := titleStyle.Render("Sales summary") + "\n\n"
	if summary.PopularItem == "" {
		view += "Most popular: none yet\n"
	} else {
		view += fmt.Sprintf("Most popular: %s (%d sold)\n", summary.PopularItem, summary.PopularQuantity)
	}
	view += fmt.Sprintf("Settled tables: %d\n", summary.SettledTables)
	view += fmt.Sprintf("Settled sales: %s\n", m.money.Format(summary.SettledSales))
	view += fmt.Sprintf("Open orders: %s\n", m.money.Format(summary.OpenSales))
	view += "\n" + infoStyle.Render("Total sales: "+m.money.Format(summary.TotalSales())) + "\n\n"
	view += helpStyle.Render("esc back")
	return view
}

func (m Model) footer() string {
	sync := m.session.SyncStatus()

	var parts []string
	switch {
	case sync.State == syncer.StateFetching:
		parts = append(parts, m.spinner.View()+" syncing")
	case sync.LastErr != nil:
		parts = append(parts, errorStyle.Render("offline"))
	case !sync.LastSync.IsZero():
		parts = append(parts, successStyle.Render("synced "+sync.LastSync.Format("15:04:05")))
	default:
		parts = append(parts, helpStyle.Render("waiting for backend"))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}

	footer := strings.Join(parts, "  ")
	if m.err != "" {
		footer += "\n" + errorStyle.Render(m.err)
	}

	notices := m.session.Notices()
	if len(notices) > 3 {
		notices = notices[len(notices)-3:]
	}
	for _, n := range notices {
		line := n.At.Format("15:04:05") + " " + n.Message
		if n.IsError {
			line = errorStyle.Render(line)
		} else {
			line = helpStyle.Render(line)
		}
		footer += "\n" + line
	}
	return footer
}
