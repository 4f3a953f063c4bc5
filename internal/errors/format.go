package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

var colorEnabled = true

// DisableColors turns off ANSI escapes in Format.
func DisableColors() { colorEnabled = false }

// EnableColors turns on ANSI escapes in Format.
func EnableColors() { colorEnabled = true }

func paint(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + ansiReset
}

// Format renders the error for a terminal.
//
//	ERROR E101: Ambiguous route node
//
//	  pageroutes.json
//
//	  "/pages/user/$[id].html" conflicts with "/pages/user/$[id]/$.html"
//
//	  Two bindings resolve to the same node, or one path is both a page
//	  and a directory.
//
//	  Hint: Rename one of the files
func (e *RouteError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(paint(ansiRed+ansiBold, "ERROR "))
	if e.Code != "" {
		b.WriteString(paint(ansiBold, e.Code+": "))
	}
	b.WriteString(e.Message)
	b.WriteString("\n\n")

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", paint(ansiCyan, e.Location.String()))
		writeContext(&b, e.Location, e.Context)
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}

	if tmpl, ok := registry[e.Code]; ok && tmpl.Detail != "" {
		for _, line := range wrapText(tmpl.Detail, 70) {
			fmt.Fprintf(&b, "  %s\n", paint(ansiGray, line))
		}
		b.WriteString("\n")
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", paint(ansiCyan, "Hint: "), e.Suggestion)
	}

	if e.DocURL != "" {
		fmt.Fprintf(&b, "  %s%s\n", paint(ansiGray, "Learn more: "), paint(ansiBlue, e.DocURL))
	}

	return b.String()
}

func writeContext(b *strings.Builder, loc *Location, lines []string) {
	if len(lines) == 0 {
		return
	}
	first := loc.Line - len(lines)/2
	if first < 1 {
		first = 1
	}
	for i, line := range lines {
		n := first + i
		if n == loc.Line {
			fmt.Fprintf(b, "  %s%4d%s%s\n", paint(ansiRed, "→ "), n, paint(ansiGray, " │ "), line)
			if loc.Column > 0 {
				fmt.Fprintf(b, "       %s%s%s\n", paint(ansiGray, "│ "), strings.Repeat(" ", loc.Column-1), paint(ansiRed, "^"))
			}
			continue
		}
		fmt.Fprintf(b, "    %4d%s%s\n", n, paint(ansiGray, " │ "), line)
	}
	b.WriteString("\n")
}

// FormatCompact renders the error on one line.
func (e *RouteError) FormatCompact() string {
	var b strings.Builder
	if e.Location != nil {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Error())
	return b.String()
}

// FormatJSON renders the error as a JSON object.
func (e *RouteError) FormatJSON() string {
	type location struct {
		File   string `json:"file"`
		Line   int    `json:"line,omitempty"`
		Column int    `json:"column,omitempty"`
	}
	out := struct {
		Code       string    `json:"code,omitempty"`
		Category   Category  `json:"category"`
		Message    string    `json:"message"`
		Detail     string    `json:"detail,omitempty"`
		Location   *location `json:"location,omitempty"`
		Suggestion string    `json:"suggestion,omitempty"`
		DocURL     string    `json:"docUrl,omitempty"`
	}{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Location != nil {
		out.Location = &location{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	data, _ := json.Marshal(out)
	return string(data)
}

func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && cur.Len()+len(word)+1 > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// Fprint writes err to w, formatted when it is a *RouteError.
func Fprint(w io.Writer, err error) {
	if re, ok := As(err); ok {
		fmt.Fprint(w, re.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint(ansiRed+ansiBold, "ERROR:"), err.Error())
}
