// Package ui holds the color themes shared by the command's presentation
// code: raw ANSI sequences for plain output and lipgloss styles for tables.
// It honors NO_COLOR and the --no-color flag.
package ui
