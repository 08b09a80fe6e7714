package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/closureme/closureme"
	"github.com/closureme/closureme/mirror"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTransfer(w io.Writer, t closureme.Transfer) error {
	if jsonOutput {
		return writeJSON(w, t)
	}
	_, _ = fmt.Fprintln(w, transferLine(t))
	return nil
}

func printBatch(w io.Writer, r *mirror.BatchReport) error {
	if jsonOutput {
		return writeJSON(w, r)
	}

	for _, t := range r.Transfers {
		_, _ = fmt.Fprintln(w, transferLine(t))
	}
	if len(r.Transfers) == 0 {
		_, _ = fmt.Fprintln(w, "Nothing to transfer")
	}
	_, _ = fmt.Fprintf(w, "\n%d downloaded, %d uploaded, %d skipped, %d failed\n",
		r.Downloaded, r.Uploaded, r.Skipped, r.Failed)
	return nil
}

func printHistory(w io.Writer, page closureme.TransferPage) error {
	if jsonOutput {
		return writeJSON(w, page)
	}

	if len(page.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No transfers recorded")
		return nil
	}

	_, _ = fmt.Fprintf(w, "%-20s  %-10s  %-8s  %-8s  %s\n", "TIME", "JOB", "DIR", "STATUS", "OBJECT")
	for _, t := range page.Items {
		_, _ = fmt.Fprintf(w, "%-20s  %-10s  %-8s  %-8s  %s\n",
			t.CreatedAt.Local().Format(time.DateTime), t.Job, t.Direction, t.Status, t.ObjectKey)
	}
	if page.NextCursor != "" {
		_, _ = fmt.Fprintf(w, "\nMore entries: --cursor %s\n", page.NextCursor)
	}
	return nil
}

func transferLine(t closureme.Transfer) string {
	switch t.Status {
	case closureme.TransferSkipped:
		return fmt.Sprintf("Skipped %s: %s already exists", t.ObjectKey, t.LocalPath)
	case closureme.TransferFailed:
		return fmt.Sprintf("Failed %s: %s", t.ObjectKey, t.Error)
	}
	if t.Direction == closureme.DirectionUpload {
		return fmt.Sprintf("Uploaded %s -> %s", t.LocalPath, t.ObjectKey)
	}
	return fmt.Sprintf("Downloaded %s -> %s", t.ObjectKey, t.LocalPath)
}
