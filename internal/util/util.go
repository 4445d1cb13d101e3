package util

import (
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
)

var (
	IsDebug        bool
	minQueryLength = 2

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7EBFBF")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D97979")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D9C379")).
			Italic(true)
)

// SetDebugMode sets the debug mode.
func SetDebugMode(debug bool) {
	IsDebug = debug
}

// GetSearchQuery returns the search query from the remaining command line
// arguments, prompting the user when none were given.
func GetSearchQuery() (string, error) {
	if len(flag.Args()) > 0 {
		query := strings.TrimSpace(strings.Join(flag.Args(), " "))
		if len(query) < minQueryLength {
			return "", errors.Errorf("search query must have at least %d characters, you entered: %q", minQueryLength, query)
		}
		fmt.Println(titleStyle.Render("Searching: " + query))
		return query, nil
	}

	prompt := promptui.Prompt{
		Label: "Search for a movie, series or anime",
		Validate: func(input string) error {
			if len(strings.TrimSpace(input)) < minQueryLength {
				return errors.New("query too short")
			}
			return nil
		},
	}
	query, err := prompt.Run()
	if err != nil {
		return "", errors.Wrap(err, "failed to read search query")
	}
	return strings.TrimSpace(query), nil
}

// Helper prints CLI usage.
func Helper() {
	fmt.Println(titleStyle.Render("gocenima - stream movies, series and anime from the terminal"))
	fmt.Println(`
Usage:
  gocenima [flags] [search query]

Flags:
  -type string   restrict search to movie, series or anime
  -debug         enable debug logging
  -version       show version information
  -help, -h      show this message

Examples:
  gocenima breaking bad
  gocenima -type anime one piece`)
}

// ErrorHandler returns a styled error message. Debug mode includes the full
// error chain.
func ErrorHandler(err error) string {
	if IsDebug {
		return errorStyle.Render(fmt.Sprintf("%+v", err))
	}
	msg := errorStyle.Render(fmt.Sprintf("error: %v", err))
	hint := hintStyle.Render("run with -debug to see details")
	return fmt.Sprintf("%s\n%s", msg, hint)
}
