package runner

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Verbosity controls how much the console reporter prints.
type Verbosity int

const (
	// VerbosityQuiet shows only warnings, errors and the final result
	VerbosityQuiet Verbosity = iota
	// VerbosityNormal shows checkpoints and artifacts (default)
	VerbosityNormal
	// VerbosityVerbose adds state transitions and page diagnostics
	VerbosityVerbose
	// VerbosityDebug shows everything
	VerbosityDebug
)

// ParseVerbosity converts a verbosity name to its level.
func ParseVerbosity(level string) (Verbosity, error) {
	switch level {
	case "quiet":
		return VerbosityQuiet, nil
	case "normal", "":
		return VerbosityNormal, nil
	case "verbose":
		return VerbosityVerbose, nil
	case "debug":
		return VerbosityDebug, nil
	default:
		return VerbosityNormal, fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", level)
	}
}

// Console prints run progress for the operator.
type Console struct {
	level  Verbosity
	writer io.Writer

	header  lipgloss.Style
	section lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	info    lipgloss.Style
	muted   lipgloss.Style

	stepCount int
}

// NewConsole creates a reporter writing to w. Colours are only emitted when
// w is a terminal that supports them.
func NewConsole(w io.Writer, level Verbosity) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		level:   level,
		writer:  w,
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		section: r.NewStyle().Foreground(lipgloss.Color("6")),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		info:    r.NewStyle().Foreground(lipgloss.Color("217")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (c *Console) line(style lipgloss.Style, text string) {
	fmt.Fprintln(c.writer, style.Render(text))
}

// Header prints a prominent header message
func (c *Console) Header(message string) {
	if c.level >= VerbosityNormal {
		rule := strings.Repeat("=", 70)
		fmt.Fprintln(c.writer)
		c.line(c.header, rule)
		c.line(c.header, "  "+message)
		c.line(c.header, rule)
	}
}

// Step prints a numbered checkpoint
func (c *Console) Step(message string) {
	if c.level >= VerbosityNormal {
		c.stepCount++
		c.line(c.section, fmt.Sprintf("[%d] %s", c.stepCount, message))
	}
}

// Successf prints a success message with checkmark
func (c *Console) Successf(format string, args ...interface{}) {
	if c.level >= VerbosityNormal {
		c.line(c.success, "✓ "+fmt.Sprintf(format, args...))
	}
}

// Infof prints an informational message
func (c *Console) Infof(format string, args ...interface{}) {
	if c.level >= VerbosityNormal {
		c.line(c.info, fmt.Sprintf(format, args...))
	}
}

// Warningf prints a warning message
func (c *Console) Warningf(format string, args ...interface{}) {
	c.line(c.warning, "⚠ Warning: "+fmt.Sprintf(format, args...))
}

// Errorf prints an error message
func (c *Console) Errorf(format string, args ...interface{}) {
	c.line(c.failure, "✗ Error: "+fmt.Sprintf(format, args...))
}

// Verbosef prints detailed information (only in verbose mode)
func (c *Console) Verbosef(format string, args ...interface{}) {
	if c.level >= VerbosityVerbose {
		c.line(c.muted, "→ "+fmt.Sprintf(format, args...))
	}
}

// Debugf prints debug information (only in debug mode)
func (c *Console) Debugf(format string, args ...interface{}) {
	if c.level >= VerbosityDebug {
		c.line(c.muted, "[DEBUG] "+fmt.Sprintf(format, args...))
	}
}

// Artifact reports a screenshot that was written
func (c *Console) Artifact(path string) {
	if c.level >= VerbosityNormal {
		c.line(c.muted, "  📸 "+path)
	}
}

// Summary prints the outcome of one scenario. It is printed at every
// verbosity level.
func (c *Console) Summary(result *Result) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintln(c.writer)
	c.line(c.header, rule)
	c.line(c.header, "  SCENARIO "+strings.ToUpper(result.Scenario))
	c.line(c.header, rule)

	if result.Succeeded() {
		c.line(c.success, "  ✓ Verification completed successfully!")
	} else {
		c.line(c.failure, fmt.Sprintf("  ✗ An error occurred: %v", result.Err))
	}
	fmt.Fprintf(c.writer, "  Duration: %s\n", result.Duration.Round(time.Millisecond))

	if len(result.Artifacts) > 0 {
		fmt.Fprintf(c.writer, "  Screenshots:\n")
		for _, path := range result.Artifacts {
			fmt.Fprintf(c.writer, "    • %s\n", path)
		}
	}
	if result.Diagnostic != "" {
		fmt.Fprintf(c.writer, "  Diagnostic screenshot: %s\n", result.Diagnostic)
	}
	for _, w := range result.Warnings {
		c.line(c.warning, "  ⚠ "+w)
	}

	if c.level >= VerbosityVerbose {
		states := make([]string, len(result.States))
		for i, s := range result.States {
			states[i] = s.String()
		}
		c.line(c.muted, "  States: "+strings.Join(states, " → "))
	}

	c.line(c.header, rule)
}
