package ui_test

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/temirov/viewyard/internal/ui"
)

func TestConsoleWriterRendersGlyphLines(testInstance *testing.T) {
	previousNoColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = previousNoColor }()

	testCases := []struct {
		name           string
		write          func(writer *ui.ConsoleWriter)
		expectedOutput string
	}{
		{
			name: "plain_line",
			write: func(writer *ui.ConsoleWriter) {
				writer.Printf("workspace %s", "views/feature")
			},
			expectedOutput: "workspace views/feature\n",
		},
		{
			name: "heading_line",
			write: func(writer *ui.ConsoleWriter) {
				writer.Headingf("View %s", "feature")
			},
			expectedOutput: "View feature\n",
		},
		{
			name: "success_line",
			write: func(writer *ui.ConsoleWriter) {
				writer.Successf("%s pushed", "service")
			},
			expectedOutput: "✓ service pushed\n",
		},
		{
			name: "warning_line",
			write: func(writer *ui.ConsoleWriter) {
				writer.Warningf("%s has stashed changes", "service")
			},
			expectedOutput: "! service has stashed changes\n",
		},
		{
			name: "failure_line",
			write: func(writer *ui.ConsoleWriter) {
				writer.Errorf("%s failed", "service")
			},
			expectedOutput: "✗ service failed\n",
		},
		{
			name: "skipped_line",
			write: func(writer *ui.ConsoleWriter) {
				writer.Skippedf("%s not attempted", "library")
			},
			expectedOutput: "- library not attempted\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			outputBuffer := &bytes.Buffer{}
			consoleWriter := ui.NewConsoleWriter(outputBuffer)

			testCase.write(consoleWriter)

			require.Equal(testInstance, testCase.expectedOutput, outputBuffer.String())
		})
	}
}
