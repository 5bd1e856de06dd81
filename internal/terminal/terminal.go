// Package terminal interprets the workspace terminal's fixed command table.
// Commands have canned output and change no state.
package terminal

import (
	"fmt"
	"strings"
)

// Kind classifies an output line.
type Kind string

const (
	KindInput  Kind = "input"
	KindOutput Kind = "output"
	KindError  Kind = "error"
)

// Line is one line of terminal output.
type Line struct {
	Content string `json:"content"`
	Kind    Kind   `json:"type"`
}

// Result is what a command prints. Clear asks the client to drop earlier
// output first.
type Result struct {
	Lines []Line `json:"lines"`
	Clear bool   `json:"clear"`
}

// Welcome is printed when a terminal opens.
const Welcome = "Welcome to the AppForge terminal! Type 'help' for available commands."

const helpText = `Available commands:
- help: Show this help message
- clear: Clear the terminal
- install <package>: Install a package
- start: Start the development server
- build: Build the project
- deploy: Deploy to production`

// Interpret runs one command line. Matching ignores case and surrounding
// space. The echoed input line keeps the text as typed.
func Interpret(cmd string) Result {
	command := strings.ToLower(strings.TrimSpace(cmd))
	if command == "" {
		return Result{Lines: []Line{}}
	}
	if command == "clear" {
		return Result{Lines: []Line{}, Clear: true}
	}

	lines := []Line{{Content: "$ " + cmd, Kind: KindInput}}
	out := func(s ...string) Result {
		for _, c := range s {
			lines = append(lines, Line{Content: c, Kind: KindOutput})
		}
		return Result{Lines: lines}
	}

	switch {
	case command == "help":
		return out(helpText)
	case strings.HasPrefix(command, "install "):
		pkg := strings.Fields(command)[1]
		return out(fmt.Sprintf("Installing %s...", pkg), fmt.Sprintf("Successfully installed %s", pkg))
	case command == "start":
		return out("Starting development server...", "Server running at http://localhost:3000")
	case command == "build":
		return out("Building project...", "Build completed successfully!")
	case command == "deploy":
		return out("Deploying to production...", "Deployment completed! Your app is live at https://your-app.vercel.app")
	default:
		lines = append(lines, Line{Content: "Command not found: " + command, Kind: KindError})
		return Result{Lines: lines}
	}
}
