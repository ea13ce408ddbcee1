// Package ui renders merged session lists as a plain text table.
package ui

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/danmuck/where/internal/protocol"
)

const (
	TimeLayout = "2006-01-02 15:04:05"
	columnGap  = 2
)

type Options struct {
	IncludeInactive bool
	// Source labels sessions that have no remote host.
	Source string
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle()
)

// Sort orders sessions oldest login first, then moves active sessions
// ahead of inactive ones without disturbing that order.
func Sort(sessions []protocol.Session) []protocol.Session {
	out := slices.Clone(sessions)
	slices.SortStableFunc(out, func(a, b protocol.Session) int {
		switch {
		case a.LoginTime < b.LoginTime:
			return -1
		case a.LoginTime > b.LoginTime:
			return 1
		}
		return 0
	})
	slices.SortStableFunc(out, func(a, b protocol.Session) int {
		switch {
		case a.Active == b.Active:
			return 0
		case a.Active:
			return -1
		}
		return 1
	})
	return out
}

// Rows is the table body without the header. Inactive sessions are
// dropped unless opts.IncludeInactive is set.
func Rows(sessions []protocol.Session, opts Options) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range Sort(sessions) {
		if !s.Active && !opts.IncludeInactive {
			continue
		}
		source := opts.Source
		if s.HasRemote {
			source = s.Remote
		}
		row := []string{
			s.Host,
			source,
			s.User,
			s.TTY,
			strconv.FormatInt(int64(s.PID), 10),
			time.Unix(s.LoginTime, 0).UTC().Format(TimeLayout),
		}
		if opts.IncludeInactive {
			act := ""
			if s.Active {
				act = "*"
			}
			row = append([]string{act}, row...)
		}
		rows = append(rows, row)
	}
	return rows
}

func Headers(opts Options) []string {
	headers := []string{"Host", "Source", "User", "TTY", "PID", "Since"}
	if opts.IncludeInactive {
		headers = append([]string{"Act"}, headers...)
	}
	return headers
}

// Render writes the session table to w.
func Render(w io.Writer, sessions []protocol.Session, opts Options) error {
	headers := Headers(opts)
	last := len(headers) - 1

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers(headers...).
		Rows(Rows(sessions, opts)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := cellStyle
			if row == table.HeaderRow {
				style = headerStyle
			}
			if col < last {
				style = style.PaddingRight(columnGap)
			}
			return style
		})

	_, err := fmt.Fprintln(w, t.String())
	return err
}
