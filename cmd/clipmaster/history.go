package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmaster/internal/control"
	"go.klb.dev/clipmaster/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd, _ := newClientCmd("history", "Show the running session's history",
		`Prints the history of the running clipmaster session, most recent first.`,
		func(cmd *cobra.Command, v *viper.Viper, c *control.Client) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			entries, err := c.History(ctx)
			if err != nil {
				return friendly(err)
			}
			if v.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			printHistory(cmd.OutOrStdout(), entries, time.Now())
			return nil
		})
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

type jsonEntry struct {
	Text     string    `json:"text"`
	CopiedAt time.Time `json:"copied_at"`
}

func printJSON(w io.Writer, entries []history.Entry) error {
	out := make([]jsonEntry, len(entries))
	for i, e := range entries {
		out[i] = jsonEntry(e)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printHistory(w io.Writer, entries []history.Entry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "History is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "#\tCOPIED\tTEXT\n")
	_, _ = fmt.Fprintf(tw, "-\t------\t----\n")
	for i, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, fmtAge(e.CopiedAt, now), oneLine(history.Preview(e.Text)))
	}
	_ = tw.Flush()
}

func fmtAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := now.Sub(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Local().Format("15:04:05")
}

// oneLine keeps multi-line entries on a single table row.
func oneLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", " ⏎ ")
}
