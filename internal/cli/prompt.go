package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// PromptResult contains the result of a user prompt interaction.
type PromptResult struct {
	// Accepted is true if the user typed "y" or "yes".
	Accepted bool
	// Cancelled is true if reading the answer failed.
	Cancelled bool
	// NonInteractive is true if no terminal was available to ask.
	NonInteractive bool
}

// Confirm asks a yes/no question on writer and reads the answer from reader.
// Without a terminal it declines immediately. An empty answer declines.
func Confirm(writer io.Writer, reader io.Reader, interactive bool, question string) PromptResult {
	if !interactive {
		return PromptResult{NonInteractive: true}
	}

	fmt.Fprintf(writer, "? %s [y/N] ", question)

	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if scanner.Err() != nil {
			return PromptResult{Cancelled: true}
		}
		return PromptResult{}
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return PromptResult{Accepted: true}
	default:
		return PromptResult{}
	}
}

// ConfirmWithStdin asks on writer and reads from os.Stdin when it is a terminal.
func ConfirmWithStdin(writer io.Writer, question string) PromptResult {
	return Confirm(writer, os.Stdin, isTerminal(os.Stdin), question)
}
