package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/compliance-tracker/internal/model"
)

// printResult writes the details and summary tables in aligned columns.
func printResult(w io.Writer, res *model.Result) {
	p := message.NewPrinter(language.English)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tRESIDENTS\tINCOME\tSIZE\tBUCKET")
	for _, h := range res.Details {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", h.Unit, h.Residents, dollars(p, h.TotalIncome), h.Size, h.Bucket)
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BUCKET\tUNITS\tRESIDENTS\tTOTAL INCOME")
	for _, s := range res.Summary {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Label, s.Units, s.Residents, dollars(p, s.TotalIncome))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\n%d households from %d rows (%d dropped without a unit), schema %s, run %s\n",
		res.Stats.Households, res.Stats.RowsRead, res.Stats.RowsDropped, res.Schema, res.RunID)
}

func dollars(p *message.Printer, v float64) string {
	return p.Sprintf("$%.2f", v)
}
