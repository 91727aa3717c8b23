package tui

import "github.com/charmbracelet/lipgloss"

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	cellStyle = lipgloss.NewStyle().
			Width(18).
			Height(3).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())

	emptyCell    = cellStyle.Copy().BorderForeground(lipgloss.Color("240"))
	orderedCell  = cellStyle.Copy().BorderForeground(lipgloss.Color("#0a84ff"))
	reservedCell = cellStyle.Copy().BorderForeground(lipgloss.Color("#ff9f0a"))
)
