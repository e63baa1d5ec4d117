package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/temirov/viewyard/internal/utils"
)

const (
	successGlyphConstant = "✓"
	warningGlyphConstant = "!"
	failureGlyphConstant = "✗"
	skippedGlyphConstant = "-"
	glyphLineTemplate    = "%s %s\n"
	plainLineTemplate    = "%s\n"
)

// ConsoleWriter renders user-facing status lines with color-coded glyphs.
//
// All writes pass through a FlushingWriter so progress remains visible while
// long git operations run between lines.
type ConsoleWriter struct {
	output         io.Writer
	successPrinter *color.Color
	warningPrinter *color.Color
	failurePrinter *color.Color
	headingPrinter *color.Color
}

// NewConsoleWriter constructs a console writer targeting the provided stream.
func NewConsoleWriter(output io.Writer) *ConsoleWriter {
	return &ConsoleWriter{
		output:         utils.NewFlushingWriter(output),
		successPrinter: color.New(color.FgGreen),
		warningPrinter: color.New(color.FgYellow),
		failurePrinter: color.New(color.FgRed, color.Bold),
		headingPrinter: color.New(color.Bold),
	}
}

// Printf writes an uncolored formatted line.
func (writer *ConsoleWriter) Printf(format string, formatArguments ...any) {
	fmt.Fprintf(writer.output, plainLineTemplate, fmt.Sprintf(format, formatArguments...))
}

// Headingf writes a bold heading line.
func (writer *ConsoleWriter) Headingf(format string, formatArguments ...any) {
	writer.headingPrinter.Fprintf(writer.output, plainLineTemplate, fmt.Sprintf(format, formatArguments...))
}

// Successf writes a green check-marked line.
func (writer *ConsoleWriter) Successf(format string, formatArguments ...any) {
	writer.successPrinter.Fprintf(writer.output, glyphLineTemplate, successGlyphConstant, fmt.Sprintf(format, formatArguments...))
}

// Warningf writes a yellow warning line.
func (writer *ConsoleWriter) Warningf(format string, formatArguments ...any) {
	writer.warningPrinter.Fprintf(writer.output, glyphLineTemplate, warningGlyphConstant, fmt.Sprintf(format, formatArguments...))
}

// Errorf writes a red failure line.
func (writer *ConsoleWriter) Errorf(format string, formatArguments ...any) {
	writer.failurePrinter.Fprintf(writer.output, glyphLineTemplate, failureGlyphConstant, fmt.Sprintf(format, formatArguments...))
}

// Skippedf writes an uncolored line for work that was intentionally not attempted.
func (writer *ConsoleWriter) Skippedf(format string, formatArguments ...any) {
	fmt.Fprintf(writer.output, glyphLineTemplate, skippedGlyphConstant, fmt.Sprintf(format, formatArguments...))
}
