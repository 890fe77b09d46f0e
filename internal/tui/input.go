package tui

import (
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 500

// editInput applies a keystroke to an inline text field. Backspace removes
// one rune, typed or pasted runes are appended up to maxInputLen, and every
// other key leaves the text unchanged.
func editInput(text string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyBackspace:
		if text == "" {
			return text
		}
		runes := []rune(text)
		return string(runes[:len(runes)-1])
	case tea.KeySpace:
		return appendRunes(text, []rune{' '})
	case tea.KeyRunes:
		return appendRunes(text, msg.Runes)
	}
	return text
}

func appendRunes(text string, add []rune) string {
	room := maxInputLen - utf8.RuneCountInString(text)
	if room <= 0 {
		return text
	}
	if len(add) > room {
		add = add[:room]
	}
	return text + string(add)
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderInput renders a labeled single-line field with a cursor when focused.
func renderInput(label, value, placeholder string, focused bool) string {
	cursor := "  "
	style := metaStyle
	if focused {
		cursor = inputPromptStyle.Render("> ")
		style = selectedStyle
	}
	shown := normalStyle.Render(value)
	if value == "" && placeholder != "" {
		shown = inputPlaceholderStyle.Render(placeholder)
	}
	if focused {
		shown += accentStyle.Render("█")
	}
	return cursor + style.Render(label+":") + " " + shown
}
