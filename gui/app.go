//go:build gui

package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"github.com/go-gl/glfw/v3.3/glfw"

	"earshot/dots"
)

// App is a small floating window with the dot row. It stays hidden until a
// listening session starts.
type App struct {
	fyneApp  fyne.App
	window   fyne.Window
	dots     *DotsWidget
	row      *dots.Row
	onReady  func()
	onToggle func()
	posX     int
	posY     int
}

// NewApp draws row. onReady runs in its own goroutine once the event loop
// is about to start; onToggle backs the tray's Listen item.
func NewApp(row *dots.Row, onReady, onToggle func()) *App {
	return &App{row: row, onReady: onReady, onToggle: onToggle}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.earshot.gui")
	a.fyneApp.Settings().SetTheme(pillTheme{})

	if desk, ok := a.fyneApp.(desktop.App); ok {
		menu := fyne.NewMenu("earshot",
			fyne.NewMenuItem("Listen", func() {
				if a.onToggle != nil {
					a.onToggle()
				}
			}),
			fyne.NewMenuItem("Quit", func() {
				a.fyneApp.Quit()
			}),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(theme.MediaRecordIcon())
	}

	var screenW, screenH int
	if monitor := glfw.GetPrimaryMonitor(); monitor != nil {
		_, _, screenW, screenH = monitor.GetWorkarea()
	} else {
		screenW, screenH = 1920, 1080
	}

	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.window = drv.CreateSplashWindow()
	} else {
		a.window = a.fyneApp.NewWindow("earshot")
	}

	a.dots = NewDotsWidget(a.row)
	a.window.SetContent(a.dots)
	a.window.SetFixedSize(true)
	a.window.SetPadded(false)

	size := a.dots.MinSize()
	a.window.Resize(size)

	// Bottom center, clear of the dock.
	a.posX = (screenW - int(size.Width)) / 2
	a.posY = screenH - int(size.Height) - 20

	go a.onReady()

	a.fyneApp.Run()
	a.dots.Stop()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

func (a *App) show() {
	fyne.Do(func() {
		if a.window == nil {
			return
		}
		a.row.Attach()
		if glfwWin := glfw.GetCurrentContext(); glfwWin != nil {
			glfwWin.SetPos(a.posX, a.posY)
			glfwWin.SetAttrib(glfw.FocusOnShow, glfw.False)
			glfwWin.SetAttrib(glfw.Floating, glfw.True)
			glfwWin.Show()
			return
		}
		a.window.Show()
	})
}

func (a *App) hide() {
	fyne.Do(func() {
		if a.window != nil {
			a.window.Hide()
		}
		a.row.Detach()
	})
}

// EventSink implementation.

func (a *App) ListeningStart() {
	a.dots.SetListening(true)
	a.show()
}

func (a *App) ListeningStop() {
	a.dots.SetListening(false)
	a.hide()
}

// Speaking needs nothing extra: the widget reads the speaking attribute
// off the row on every frame.
func (a *App) Speaking()              {}
func (a *App) NoSpeech(active bool)   {}
func (a *App) DeviceLine(text string) {}
