//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Dot fills, looked up through the app theme.
const (
	colorNameDotIdle      fyne.ThemeColorName = "earshotDotIdle"
	colorNameDotListening fyne.ThemeColorName = "earshotDotListening"
	colorNameDotSpeaking  fyne.ThemeColorName = "earshotDotSpeaking"
)

// pillTheme is a dark theme for the floating dot window.
type pillTheme struct{}

func (pillTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.RGBA{18, 18, 18, 235}
	case theme.ColorNameForeground:
		return color.RGBA{200, 200, 200, 255}
	case colorNameDotIdle:
		return color.RGBA{110, 110, 110, 255}
	case colorNameDotListening:
		return color.RGBA{90, 180, 255, 255}
	case colorNameDotSpeaking:
		return color.RGBA{80, 220, 130, 255}
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (pillTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (pillTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (pillTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}
