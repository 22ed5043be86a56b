package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestInitTheme(t *testing.T) {
	orig := GetCurrentTheme()
	defer SetCurrentTheme(orig)

	t.Setenv("NO_COLOR", "")
	InitTheme(false)
	if IsColorEnabled() {
		t.Error("NO_COLOR present (even empty) should disable colors")
	}
}

func TestInitTheme_Flag(t *testing.T) {
	orig := GetCurrentTheme()
	defer SetCurrentTheme(orig)

	InitTheme(true)
	if GetCurrentTheme().Name != "none" {
		t.Errorf("theme = %q, want none", GetCurrentTheme().Name)
	}
	if ColorRed() != "" || ColorReset() != "" || ColorBold() != "" {
		t.Error("no-color theme must not emit escape sequences")
	}
}

func TestSetTheme(t *testing.T) {
	orig := GetCurrentTheme()
	defer SetCurrentTheme(orig)

	tests := []struct{ name, want string }{
		{"dark", "dark"},
		{"light", "light"},
		{"none", "none"},
		{"neon", "dark"},
	}
	for _, tt := range tests {
		SetTheme(tt.name)
		if got := GetCurrentTheme().Name; got != tt.want {
			t.Errorf("SetTheme(%q) -> %q, want %q", tt.name, got, tt.want)
		}
	}

	SetTheme("dark")
	for name, c := range map[string]string{
		"primary": ColorPrimary(), "secondary": ColorSecondary(), "green": ColorGreen(),
		"yellow": ColorYellow(), "red": ColorRed(), "underline": ColorUnderline(),
	} {
		if !strings.HasPrefix(c, "\033[") {
			t.Errorf("%s color %q is not an escape sequence", name, c)
		}
	}
}

func TestNewStyles_NoColor(t *testing.T) {
	s := NewStyles(NoColorTheme)
	if _, ok := s.Error.GetForeground().(lipgloss.NoColor); !ok {
		t.Errorf("error style foreground = %T, want NoColor", s.Error.GetForeground())
	}
	if got := s.Dim.Render("x"); got != "x" {
		t.Errorf("no-color render = %q", got)
	}
}
