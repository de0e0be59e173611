package selectcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/crates/pkg/github"
	"github.com/papercomputeco/crates/pkg/utils"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

var (
	pickerTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	pickerMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	pickerDividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	pickerBranchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	pickerPrivateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	pickerHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
)

type pickerKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Quit  key.Binding
}

func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Enter, k.Quit}
}

func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Down, k.Up}, {k.Enter, k.Quit}}
}

func defaultPickerKeyMap() pickerKeyMap {
	return pickerKeyMap{
		Up:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Quit:  key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

type pickerModel struct {
	repos    []*github.Repository
	filtered []*github.Repository
	input    textinput.Model
	cursor   int
	width    int
	height   int
	choice   string
	keys     pickerKeyMap
	help     help.Model
}

func newPickerModel(repos []*github.Repository) pickerModel {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Type to filter repositories"
	input.Focus()
	input.CharLimit = 0

	return pickerModel{
		repos:    repos,
		filtered: repos,
		input:    input,
		keys:     defaultPickerKeyMap(),
		help:     help.New(),
	}
}

func runPicker(ctx context.Context, repos []*github.Repository) (string, error) {
	program := bubbletea.NewProgram(newPickerModel(repos),
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)

	final, err := program.Run()
	if err != nil {
		return "", err
	}

	model, ok := final.(pickerModel)
	if !ok {
		return "", nil
	}
	return model.choice, nil
}

func (m pickerModel) Init() bubbletea.Cmd {
	return textinput.Blink
}

func (m pickerModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case bubbletea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			m.choice = ""
			return m, bubbletea.Quit
		case "enter":
			if len(m.filtered) > 0 {
				m.choice = m.filtered[m.cursor].FullName
			}
			return m, bubbletea.Quit
		case "up":
			m.cursor = clamp(m.cursor-1, len(m.filtered)-1)
			return m, nil
		case "down":
			m.cursor = clamp(m.cursor+1, len(m.filtered)-1)
			return m, nil
		}

		var cmd bubbletea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.filtered = filterRepos(m.repos, m.input.Value())
		m.cursor = clamp(m.cursor, len(m.filtered)-1)
		return m, cmd
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	header := pickerTitleStyle.Render("crates select")
	count := pickerMutedStyle.Render(fmt.Sprintf("%d/%d repositories", len(m.filtered), len(m.repos)))

	lines := make([]string, 0, 12)
	lines = append(lines, header+"  "+count)
	lines = append(lines, pickerDividerStyle.Render(strings.Repeat("─", width)))
	lines = append(lines, m.input.View(), "")

	if len(m.filtered) == 0 {
		lines = append(lines, pickerMutedStyle.Render("no repositories match"))
	} else {
		lines = append(lines, m.viewList()...)
	}

	lines = append(lines, "", pickerMutedStyle.Render(m.help.View(m.keys)))

	return strings.Join(lines, "\n")
}

func (m pickerModel) viewList() []string {
	maxVisible := m.height - 7
	if maxVisible < 5 {
		maxVisible = 5
	}

	nameWidth := 0
	for _, repo := range m.filtered {
		if len(repo.FullName) > nameWidth {
			nameWidth = len(repo.FullName)
		}
	}

	lines := make([]string, 0, maxVisible)
	start, end := visibleRange(len(m.filtered), m.cursor, maxVisible)
	for i := start; i < end; i++ {
		repo := m.filtered[i]

		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}

		marker := " "
		if repo.Private {
			marker = pickerPrivateStyle.Render("●")
		}

		line := fmt.Sprintf("%s %s %-*s  %s  %s",
			cursor,
			marker,
			nameWidth,
			repo.FullName,
			pickerBranchStyle.Render(repo.DefaultBranch),
			pickerMutedStyle.Render(utils.Truncate(repo.Description, 48)),
		)

		if i == m.cursor {
			line = pickerHighlightStyle.Render(fmt.Sprintf("%s %-*s", cursor, nameWidth, repo.FullName))
		}

		lines = append(lines, line)
	}

	return lines
}

// filterRepos keeps repositories whose full name contains the filter,
// case-insensitively. An empty filter keeps everything.
func filterRepos(repos []*github.Repository, filter string) []*github.Repository {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return repos
	}

	filtered := make([]*github.Repository, 0, len(repos))
	for _, repo := range repos {
		if strings.Contains(strings.ToLower(repo.FullName), filter) {
			filtered = append(filtered, repo)
		}
	}
	return filtered
}

func clamp(value, upper int) int {
	if value < 0 {
		return 0
	}
	if value > upper {
		return upper
	}
	return value
}

func visibleRange(total, cursor, size int) (int, int) {
	if total <= 0 || size <= 0 {
		return 0, 0
	}
	if total <= size {
		return 0, total
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	start := max(cursor-(size/2), 0)
	end := start + size
	if end > total {
		end = total
		start = max(end-size, 0)
	}
	return start, end
}
