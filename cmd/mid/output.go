package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"mid-go/internal/app"
	"mid-go/internal/mid"

	"gopkg.in/yaml.v3"
)

// printResponse writes resp to out in format. In text mode a failure goes to
// errOut instead.
func printResponse(out, errOut io.Writer, format string, resp *app.Response) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	}

	if !resp.Success {
		_, err := fmt.Fprintf(errOut, "Error: %s\n", resp.Error)
		return err
	}

	switch data := resp.Data.(type) {
	case []*mid.BackupRecord:
		return printRecords(out, data)
	case *mid.Reading:
		_, err := fmt.Fprintln(out, data.Value)
		return err
	}

	if resp.Message == "" {
		return nil
	}
	_, err := fmt.Fprintln(out, resp.Message)
	return err
}

func printRecords(out io.Writer, records []*mid.BackupRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No backups.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tKIND\tVALUE\tDESCRIPTION")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.CreatedAt().Local().Format("2006-01-02 15:04:05"),
			r.EffectiveKind(),
			r.Value,
			r.Description,
		)
	}
	return tw.Flush()
}
