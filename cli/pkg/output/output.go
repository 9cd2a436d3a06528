// Package output renders lendctl results as colored messages, tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Stdout and Stderr are the destinations of every helper. Tests swap them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgWhite, color.Bold)
)

func Success(format string, a ...interface{}) {
	successColor.Fprintf(Stdout, "✓ "+format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	errorColor.Fprintf(Stderr, "✗ "+format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	infoColor.Fprintf(Stdout, format+"\n", a...)
}

func Warn(format string, a ...interface{}) {
	warnColor.Fprintf(Stdout, "⚠ "+format+"\n", a...)
}

func JSON(v interface{}) error {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func YAML(v interface{}) error {
	enc := yaml.NewEncoder(Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Render writes v in format. The table format calls table, which renders v itself.
func Render(format string, v interface{}, table func()) error {
	switch format {
	case "json":
		return JSON(v)
	case "yaml":
		return YAML(v)
	case "table", "":
		table()
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

// Colorize returns s in the color associated with a status, grade or risk level.
func Colorize(s string) string {
	switch strings.ToUpper(s) {
	case "APPROVED", "VERIFIED", "EXCELLENT", "LOW":
		return color.GreenString(s)
	case "REJECTED", "POOR", "HIGH":
		return color.RedString(s)
	case "UNDER_REVIEW", "PENDING", "FAIR", "MEDIUM":
		return color.YellowString(s)
	case "CANCELLED", "EXPIRED":
		return color.HiBlackString(s)
	}
	return s
}

type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers []string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
	}
}

func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *Table) Render() {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if n := visibleLen(cell); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	for i, header := range t.headers {
		headerColor.Fprintf(Stdout, "%-*s  ", widths[i], header)
	}
	fmt.Fprintln(Stdout)

	for i := range t.headers {
		fmt.Fprint(Stdout, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(Stdout)

	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			fmt.Fprint(Stdout, cell+strings.Repeat(" ", widths[i]-visibleLen(cell))+"  ")
		}
		fmt.Fprintln(Stdout)
	}
}

// visibleLen is the printed width of s, ignoring ANSI color sequences.
func visibleLen(s string) int {
	n, inEscape := 0, false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			n++
		}
	}
	return n
}
