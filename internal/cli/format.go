package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/evcraddock/courier-site/internal/inquiry"
	"github.com/evcraddock/courier-site/internal/maps"
	"github.com/evcraddock/courier-site/internal/office"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printOfficeTable prints offices as a formatted table.
func printOfficeTable(out io.Writer, offices []office.Office) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tCITY\tPHONE\tEMAIL\tLOCATION"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t----\t-----\t-----\t--------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, o := range offices {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.City, o.Phone, o.Email, o.Location); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(out, "\nTotal: %d offices\n", len(offices))
	return err
}

// printPlace prints a geocoding match.
func printPlace(out io.Writer, p maps.Place) error {
	_, err := fmt.Fprintf(out, "%s\n  Location: %s\n  Bounds:   %.4f,%.4f to %.4f,%.4f\n",
		p.Label, p.Location, p.Bounds.South, p.Bounds.West, p.Bounds.North, p.Bounds.East)
	return err
}

// printRoute prints a route summary.
func printRoute(out io.Writer, origin maps.Place, city string, r maps.Route) error {
	_, err := fmt.Fprintf(out, "From:     %s\nTo:       %s\nDistance: %s\nDuration: %s\nPoints:   %d\n",
		origin.Label, city, formatDistance(r.DistanceMeters), formatDuration(r.DurationSeconds), len(r.Path))
	return err
}

// printInquiryTable prints inquiries as a formatted table.
func printInquiryTable(out io.Writer, list []*inquiry.Inquiry) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, "No inquiries found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tDATE\tNAME\tEMAIL\tSUBJECT\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t----\t----\t-----\t-------\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, in := range list {
		subject := in.Subject
		if subject == "" {
			subject = "-"
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			in.ID, in.CreatedAt.Format("2006-01-02 15:04"), truncate(in.Name, 24), in.Email,
			truncate(subject, 32), in.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(out, "\nTotal: %d inquiries\n", len(list))
	return err
}

// formatDistance renders meters as m or km.
func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// formatDuration renders seconds rounded to the minute.
func formatDuration(seconds float64) string {
	d := (time.Duration(seconds) * time.Second).Round(time.Minute)
	if d < time.Hour {
		return fmt.Sprintf("%d min", int(d.Minutes()))
	}
	return fmt.Sprintf("%d h %02d min", int(d.Hours()), int(d.Minutes())%60)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
