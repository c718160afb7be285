package statsview

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
)

func init() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		disableColors()
	} else if !term.IsTerminal(int(os.Stdout.Fd())) {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorBold, colorDim, colorGreen, colorCyan, colorYellow = "", "", "", "", "", ""
}

// termWidth returns the terminal width, defaulting to 80.
func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// Render formats a Summary as a one-line stat ("12 lines human, 40 lines AI
// (claude-code)"), per spec §7's post-commit terminal output. A Summary with
// no AI lines renders without the parenthetical breakdown.
func Render(s Summary) string {
	if s.HumanLines == 0 && s.AILines == 0 {
		return colorDim + "no attributable line changes" + colorReset
	}

	line := fmt.Sprintf("%s%d%s lines human, %s%d%s lines AI",
		colorGreen, s.HumanLines, colorReset,
		colorCyan, s.AILines, colorReset)

	if tools := s.tools(); len(tools) > 0 {
		parts := make([]string, 0, len(tools))
		for _, t := range tools {
			parts = append(parts, fmt.Sprintf("%s: %d", t, s.ByTool[t]))
		}
		line += fmt.Sprintf(" %s(%s)%s", colorYellow, strings.Join(parts, ", "), colorReset)
	}
	return line
}

// RenderBoxed wraps Render's line inside a bordered box sized to the
// terminal width, used by `attrgit show` for a single-commit detail view.
func RenderBoxed(title string, s Summary) string {
	innerW := termWidth() - 4
	if innerW < 30 {
		innerW = 30
	}

	content := Render(s)
	plainLen := visibleLen(content)

	var out []string
	if title != "" {
		label := fmt.Sprintf("─ %s ", title)
		borderLen := innerW + 2 - visibleLen(label)
		if borderLen < 0 {
			borderLen = 0
		}
		out = append(out, fmt.Sprintf("┌%s%s┐", label, strings.Repeat("─", borderLen)))
	} else {
		out = append(out, fmt.Sprintf("┌%s┐", strings.Repeat("─", innerW+2)))
	}
	pad := innerW - plainLen
	if pad < 0 {
		pad = 0
	}
	out = append(out, fmt.Sprintf("│ %s%s │", content, strings.Repeat(" ", pad)))
	out = append(out, fmt.Sprintf("└%s┘", strings.Repeat("─", innerW+2)))
	return strings.Join(out, "\n")
}

// visibleLen counts runes excluding ANSI SGR escape sequences, so box
// borders stay aligned when color is enabled.
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\033':
			inEscape = true
		default:
			n++
		}
	}
	return n
}
