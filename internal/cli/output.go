package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/projectpulse/internal/theme"
)

// renderTable writes rows under headers as a bordered table.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeaderStyle
			}
			return theme.TableCellStyle
		})
	fmt.Fprintln(w, t.Render())
}

// renderFields writes label/value pairs, one per line.
func renderFields(w io.Writer, fields [][2]string) {
	width := 0
	for _, f := range fields {
		width = max(width, lipgloss.Width(f[0]))
	}
	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(width + 1)
	for _, f := range fields {
		fmt.Fprintf(w, "%s %s\n", label.Render(f[0]+":"), f[1])
	}
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, theme.SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func optMoney(v *float64) string {
	if v == nil {
		return "-"
	}
	return money(*v)
}

func hours(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// days renders a days-left figure, or reason when it is unknown.
func days(v *int, reason string) string {
	if v == nil {
		if reason == "" {
			return "-"
		}
		return reason
	}
	return fmt.Sprintf("%d", *v)
}

// confirmPrompt asks a yes/no question on the terminal.
func confirmPrompt(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// passwordPrompt reads a secret without echoing it.
func passwordPrompt(title string) (string, error) {
	var secret string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&secret).
		Run()
	return secret, err
}
