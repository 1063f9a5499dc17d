package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// FloorplanTheme provides a custom theme for the application.
type FloorplanTheme struct{}

var _ fyne.Theme = (*FloorplanTheme)(nil)

func (t *FloorplanTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x25, G: 0x63, B: 0xEB, A: 0xFF} // Classroom blue
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xF5, G: 0x9E, B: 0x0B, A: 0x80} // Amber, matches selection outline
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *FloorplanTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *FloorplanTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *FloorplanTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}
