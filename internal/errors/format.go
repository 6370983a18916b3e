package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	errorLabel = color.New(color.FgRed, color.Bold)
	codeLabel  = color.New(color.FgWhite, color.Bold)
	pathLabel  = color.New(color.FgCyan)
	hintLabel  = color.New(color.FgHiBlack)
)

// DisableColors disables ANSI color output.
func DisableColors() {
	color.NoColor = true
}

// Format returns a multi-line error message for terminal display.
func (e *HumusError) Format() string {
	var b strings.Builder

	b.WriteString(errorLabel.Sprint("ERROR "))
	if e.Code != "" {
		b.WriteString(codeLabel.Sprint(e.Code + ": "))
	}
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Path != nil {
		b.WriteString("\n  ")
		b.WriteString(pathLabel.Sprintf("at path %v", e.Path))
		b.WriteString("\n")
	}
	if e.Detail != "" {
		b.WriteString("\n  ")
		b.WriteString(e.Detail)
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		b.WriteString("\n  ")
		b.WriteString(hintLabel.Sprintf("caused by: %v", e.Wrapped))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *HumusError) FormatCompact() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Path != nil {
		fmt.Fprintf(&b, " at %v", e.Path)
	}
	return b.String()
}

// Fprint writes err to w. Joined errors are printed one per block and
// HumusErrors use Format.
func Fprint(w io.Writer, err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			Fprint(w, e)
		}
		return
	}
	var he *HumusError
	if errors.As(err, &he) {
		fmt.Fprint(w, he.Format())
		return
	}
	fmt.Fprintf(w, "%s%s\n", errorLabel.Sprint("ERROR: "), err.Error())
}
