// Package color provides terminal styling for CopyFlow output.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

var state struct {
	once       sync.Once
	enabled    atomic.Bool
	overridden atomic.Bool
}

// Init initializes the color system from the environment and the --no-color flag.
func Init(noColorFlag bool) {
	state.once.Do(func() {
		if state.overridden.Load() {
			return
		}
		disabled := noColorFlag
		if _, exists := os.LookupEnv("NO_COLOR"); exists {
			disabled = true
		}
		if os.Getenv("TERM") == "dumb" {
			disabled = true
		}
		state.enabled.Store(!disabled)
	})
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	Init(false)
	return state.enabled.Load()
}

// Disable turns off color output.
func Disable() {
	state.overridden.Store(true)
	state.enabled.Store(false)
}

// Enable turns on color output.
func Enable() {
	state.overridden.Store(true)
	state.enabled.Store(true)
}

// Palette (ANSI 16-color indexes so output degrades well on basic terminals).
var (
	Red    = lipgloss.Color("1")
	Green  = lipgloss.Color("2")
	Yellow = lipgloss.Color("3")
	Blue   = lipgloss.Color("4")
	Cyan   = lipgloss.Color("6")
	Gray   = lipgloss.Color("8")
)

// Style renders s with st when colors are enabled and returns s unchanged otherwise.
func Style(st lipgloss.Style, s string) string {
	if !Enabled() {
		return s
	}
	return st.Render(s)
}

var (
	successStyle   = lipgloss.NewStyle().Foreground(Green)
	errorStyle     = lipgloss.NewStyle().Foreground(Red)
	warningStyle   = lipgloss.NewStyle().Foreground(Yellow)
	infoStyle      = lipgloss.NewStyle().Foreground(Cyan)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Faint(true)
	highlightStyle = lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	codeStyle      = lipgloss.NewStyle().Bold(true).Faint(true)
	idStyle        = lipgloss.NewStyle().Foreground(Cyan)
)

// Success formats a success message in green.
func Success(s string) string { return Style(successStyle, s) }

// Successf formats a success message with printf-style arguments.
func Successf(format string, args ...any) string { return Success(fmt.Sprintf(format, args...)) }

// Error formats an error message in red.
func Error(s string) string { return Style(errorStyle, s) }

// Errorf formats an error message with printf-style arguments.
func Errorf(format string, args ...any) string { return Error(fmt.Sprintf(format, args...)) }

// Warning formats a warning message in yellow.
func Warning(s string) string { return Style(warningStyle, s) }

// Warningf formats a warning message with printf-style arguments.
func Warningf(format string, args ...any) string { return Warning(fmt.Sprintf(format, args...)) }

// Info formats an informational message in cyan.
func Info(s string) string { return Style(infoStyle, s) }

// ID formats an issue or history id.
func ID(s string) string { return Style(idStyle, s) }

// Header formats a header in bold.
func Header(s string) string { return Style(headerStyle, s) }

// Dim formats secondary information.
func Dim(s string) string { return Style(dimStyle, s) }

// Highlight highlights important text.
func Highlight(s string) string { return Style(highlightStyle, s) }

// Code formats command strings.
func Code(s string) string { return Style(codeStyle, s) }
