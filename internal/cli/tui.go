package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/vkmsctl/pkg/configfs"
)

// List styles
var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// DevicePicker - Interactive device selection
// =============================================================================

// DeviceRow is one device offered by the picker.
type DeviceRow struct {
	Name     string
	State    string // enabled, disabled or corrupt
	Entities int
}

// DevicePickerModel is the bubbletea model for interactive device selection.
type DevicePickerModel struct {
	Title    string
	Devices  []DeviceRow
	Cursor   int
	Selected *DeviceRow
	Height   int
	Offset   int
}

// NewDevicePickerModel creates a new device picker model.
func NewDevicePickerModel(title string, devices []DeviceRow) DevicePickerModel {
	return DevicePickerModel{
		Title:   title,
		Devices: devices,
		Height:  15,
	}
}

func (m DevicePickerModel) Init() tea.Cmd {
	return nil
}

func (m DevicePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Devices)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Devices) == 0 {
				return m, tea.Quit
			}
			row := m.Devices[m.Cursor]
			m.Selected = &row
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m DevicePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Devices))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Devices[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, d.Name, d.State, strconv.Itoa(d.Entities)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Device", "State", "Entities").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Devices) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if idx == m.Cursor {
				base = base.Bold(true)
			}
			if col == 2 {
				switch m.Devices[idx].State {
				case "enabled":
					return base.Foreground(colorGreen)
				case "corrupt":
					return base.Foreground(colorRed)
				}
				return base.Foreground(colorGray)
			}
			if idx == m.Cursor {
				return base.Foreground(colorCyan)
			}
			return base.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Devices))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// deviceRows describes every device under the tree for the picker. Devices
// that cannot be read are still offered, marked corrupt.
func deviceRows(ctx context.Context, r *configfs.Reader) ([]DeviceRow, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]DeviceRow, 0, len(names))
	for _, name := range names {
		d, err := r.Read(ctx, name)
		switch {
		case err == nil:
			rows = append(rows, DeviceRow{Name: name, State: enabledLabel(d.Enabled), Entities: d.EntityCount()})
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			rows = append(rows, DeviceRow{Name: name, State: "corrupt"})
		}
	}
	return rows, nil
}

// pickDevice runs the picker and returns the chosen name, or "" when the
// user quit without choosing.
func pickDevice(title string, rows []DeviceRow) (string, error) {
	final, err := tea.NewProgram(NewDevicePickerModel(title, rows)).Run()
	if err != nil {
		return "", fmt.Errorf("device picker: %w", err)
	}
	if m, ok := final.(DevicePickerModel); ok && m.Selected != nil {
		return m.Selected.Name, nil
	}
	return "", nil
}
