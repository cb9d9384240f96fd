package main

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// list prints a table of the stored certificates.
func (cli *commandLine) list() error {
	records, err := cli.svc.ListAll(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOURSE\tISSUED\tSTORED")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rec.ID, rec.UserName, rec.CourseName, rec.IssueDate, formatTime(rec.StoredAt))
	}
	if err = w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d certificate(s)\n", len(records))
	return nil
}
