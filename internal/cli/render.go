package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/cookiestore/internal/cookies"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const maxValueWidth = 40

func outputCookies(cmd *cobra.Command, cs []*cookies.Cookie, asJSON bool) error {
	if asJSON {
		if cs == nil {
			cs = []*cookies.Cookie{}
		}
		return writeJSON(cmd, cs)
	}

	out := cmd.OutOrStdout()
	if len(cs) == 0 {
		fmt.Fprintln(out, "No cookies")
		return nil
	}

	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{
			strconv.FormatInt(c.CreationIndex, 10),
			c.Domain,
			c.Path,
			c.Key,
			truncate(c.Value, maxValueWidth),
			formatExpires(c),
			formatFlags(c),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("#", "DOMAIN", "PATH", "NAME", "VALUE", "EXPIRES", "FLAGS").
		Rows(rows...)

	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "%d cookie(s)\n", len(cs))
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatExpires(c *cookies.Cookie) string {
	if c.IsSession() {
		return "session"
	}
	return c.Expires.UTC().Format(time.RFC3339)
}

func formatFlags(c *cookies.Cookie) string {
	var flags []string
	if c.HostOnly {
		flags = append(flags, "host-only")
	}
	if c.Secure {
		flags = append(flags, "secure")
	}
	if c.HttpOnly {
		flags = append(flags, "httponly")
	}
	if c.SameSite != "" {
		flags = append(flags, "samesite="+c.SameSite)
	}
	return strings.Join(flags, ",")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
