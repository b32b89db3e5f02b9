package snapshot

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"mqtt-monitor/internal/domain"
)

const nullText = "n/a"

// Format writes snap as an aligned table, one metric per row.
func Format(w io.Writer, snap *domain.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "# %s\t%s\n", snap.Host, snap.Taken.UTC().Format(time.RFC3339))
	for _, s := range snap.Samples() {
		value := s.Format()
		if s.Value.IsNull() {
			value = nullText
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Spec.Name, value, s.Spec.Unit)
	}

	return tw.Flush()
}
