package errors

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
)

// Category groups codes by the stage that reports them.
type Category string

const (
	CategoryCompile Category = "compile"
	CategoryRuntime Category = "runtime"
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
)

// Location points at a line in a manifest, config or page file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns "file:line[:column]".
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Line == 0 {
		return l.File
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// RouteError is a coded diagnostic shown by the CLI.
type RouteError struct {
	// Code is the registered identifier, e.g. "E101".
	Code string

	Category Category

	// Message is the one-line summary from the registry.
	Message string

	// Detail explains the specific failure.
	Detail string

	Location *Location

	// Context holds the lines around Location.
	Context []string

	// Suggestion tells the user how to fix it.
	Suggestion string

	DocURL string

	// Wrapped is the underlying error.
	Wrapped error
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap supports errors.Is and errors.As.
func (e *RouteError) Unwrap() error {
	return e.Wrapped
}

// WithLocation sets the location and reads the surrounding lines from file.
func (e *RouteError) WithLocation(file string, line, column int) *RouteError {
	e.Location = &Location{File: file, Line: line, Column: column}
	if line > 0 {
		e.Context = readContextLines(file, line, 5)
	}
	return e
}

// WithOffset sets the location from a byte offset into data, as reported by
// encoding/json syntax errors.
func (e *RouteError) WithOffset(file string, data []byte, offset int64) *RouteError {
	if offset < 0 || offset > int64(len(data)) {
		return e.WithLocation(file, 0, 0)
	}
	before := data[:offset]
	line := bytes.Count(before, []byte("\n")) + 1
	col := int(offset) - bytes.LastIndexByte(before, '\n')
	return e.WithLocation(file, line, col)
}

// WithFile sets the location to a whole file.
func (e *RouteError) WithFile(file string) *RouteError {
	e.Location = &Location{File: file}
	return e
}

func (e *RouteError) WithSuggestion(s string) *RouteError {
	e.Suggestion = s
	return e
}

func (e *RouteError) WithDetail(d string) *RouteError {
	e.Detail = d
	return e
}

// Wrap sets the underlying error. The detail defaults to its message.
func (e *RouteError) Wrap(err error) *RouteError {
	e.Wrapped = err
	if e.Detail == "" && err != nil {
		e.Detail = err.Error()
	}
	return e
}

func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	start := targetLine - contextSize/2
	end := targetLine + contextSize/2

	var lines []string
	scanner := bufio.NewScanner(file)
	for n := 1; scanner.Scan() && n <= end; n++ {
		if n >= start {
			lines = append(lines, scanner.Text())
		}
	}
	return lines
}

// New creates a RouteError from a registered code.
func New(code string) *RouteError {
	tmpl, ok := registry[code]
	if !ok {
		return &RouteError{Code: code, Message: "Unknown error"}
	}
	return &RouteError{
		Code:     code,
		Category: tmpl.Category,
		Message:  tmpl.Message,
		DocURL:   tmpl.DocURL,
	}
}

// Newf creates an uncoded RouteError.
func Newf(category Category, format string, args ...any) *RouteError {
	return &RouteError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}
