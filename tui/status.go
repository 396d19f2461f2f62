package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// State - What the status view is showing.
type State int

// States.
const (
	StateIdle State = iota
	StateScanning
	StateFound
	StateError
)

// StartedMsg - The scan has started probing.
type StartedMsg struct {
	Total int
}

// ProgressMsg - Another probe completed.
type ProgressMsg struct{}

// ResultMsg - The scan finished. Err is set if nothing was found or the scan failed.
type ResultMsg struct {
	Address string
	Err     error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	foundStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// StatusModel - Shows the state of one scan.
type StatusModel struct {
	spinner spinner.Model
	state   State
	target  string
	cidr    string
	done    int
	total   int
	address string
	err     error
	cancel  func()
}

// NewStatusModel - Status view for a scan. Cancel is called if the user quits while scanning.
func NewStatusModel(target string, cidr string, cancel func()) StatusModel {
	return StatusModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		target:  target,
		cidr:    cidr,
		cancel:  cancel,
	}
}

// State - Current state.
func (m StatusModel) State() State {
	return m.state
}

// Address - Found address, if found.
func (m StatusModel) Address() string {
	return m.address
}

// Err - Scan error, if any.
func (m StatusModel) Err() error {
	return m.err
}

func (m StatusModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil && (m.state == StateIdle || m.state == StateScanning) {
				m.cancel()
			}
			return m, tea.Quit
		}
	case StartedMsg:
		m.state = StateScanning
		m.total = msg.Total
	case ProgressMsg:
		m.done++
	case ResultMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateFound
			m.address = msg.Address
		}
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m StatusModel) View() string {
	view := titleStyle.Render(fmt.Sprintf("radar: %s in %s", m.target, m.cidr)) + "\n\n"
	switch m.state {
	case StateIdle:
		view += "Preparing scan...\n"
	case StateScanning:
		view += fmt.Sprintf("%s Scanning %d/%d hosts\n", m.spinner.View(), m.done, m.total)
	case StateFound:
		view += foundStyle.Render("Found: "+m.address) + "\n"
	case StateError:
		view += errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.state == StateIdle || m.state == StateScanning {
		view += "\n" + helpStyle.Render("q: cancel") + "\n"
	}
	return view
}
