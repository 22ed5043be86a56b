package ui

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles derived from a theme's palette.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Dim     lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Border  lipgloss.Style
}

// NewStyles builds the styles for t.
func NewStyles(t Theme) Styles {
	p := t.Palette
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(p.Accent).Padding(0, 1),
		Cell:    lipgloss.NewStyle().Foreground(p.Text).Padding(0, 1),
		Label:   lipgloss.NewStyle().Foreground(p.Dim),
		Value:   lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(p.Dim),
		Success: lipgloss.NewStyle().Foreground(p.Success),
		Error:   lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		Border:  lipgloss.NewStyle().Foreground(p.Border),
	}
}

// CurrentStyles returns the styles of the active theme.
func CurrentStyles() Styles { return NewStyles(GetCurrentTheme()) }
