package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Row is one line of a classification report.
type Row struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   float64
}

// Report holds per-class metrics and the summary rows.
type Report struct {
	Classes     []Row
	Accuracy    float64
	MacroAvg    Row
	WeightedAvg Row
	Total       int
}

// ReportDecimals is the rounding applied by ClassificationReport.
const ReportDecimals = 2

// ClassificationReport computes precision, recall, F1 and support for each
// class plus accuracy, macro and support-weighted averages, rounded to two
// decimals. Zero divisions yield 0.
func ClassificationReport(yTrue, yPred []int, classNames []string) (*Report, error) {
	cm, err := ConfusionMatrix(yTrue, yPred, len(classNames))
	if err != nil {
		return nil, err
	}
	r := reportFromMatrix(cm, classNames)
	r.round(ReportDecimals)
	return r, nil
}

func reportFromMatrix(cm *mat.Dense, classNames []string) *Report {
	k := len(classNames)
	r := &Report{Classes: make([]Row, k), Accuracy: Accuracy(cm), Total: int(mat.Sum(cm))}
	r.MacroAvg.Label, r.WeightedAvg.Label = "macro avg", "weighted avg"

	for i := 0; i < k; i++ {
		tp := cm.At(i, i)
		support := mat.Sum(cm.RowView(i))
		predicted := mat.Sum(cm.ColView(i))

		p := safeDiv(tp, predicted)
		rec := safeDiv(tp, support)
		row := Row{
			Label:     classNames[i],
			Precision: p,
			Recall:    rec,
			F1:        safeDiv(2*p*rec, p+rec),
			Support:   support,
		}
		r.Classes[i] = row

		r.MacroAvg.Precision += row.Precision / float64(k)
		r.MacroAvg.Recall += row.Recall / float64(k)
		r.MacroAvg.F1 += row.F1 / float64(k)

		w := safeDiv(support, float64(r.Total))
		r.WeightedAvg.Precision += row.Precision * w
		r.WeightedAvg.Recall += row.Recall * w
		r.WeightedAvg.F1 += row.F1 * w
	}
	r.MacroAvg.Support = float64(r.Total)
	r.WeightedAvg.Support = float64(r.Total)
	return r
}

func (r *Report) round(decimals int) {
	rr := func(row *Row) {
		row.Precision = round(row.Precision, decimals)
		row.Recall = round(row.Recall, decimals)
		row.F1 = round(row.F1, decimals)
	}
	for i := range r.Classes {
		rr(&r.Classes[i])
	}
	rr(&r.MacroAvg)
	rr(&r.WeightedAvg)
	r.Accuracy = round(r.Accuracy, decimals)
}

// Rows returns the class rows followed by accuracy, macro avg and weighted
// avg. The accuracy row repeats the accuracy in every column, support
// included, as a transposed report dictionary does.
func (r *Report) Rows() []Row {
	rows := append([]Row(nil), r.Classes...)
	rows = append(rows,
		Row{Label: "accuracy", Precision: r.Accuracy, Recall: r.Accuracy, F1: r.Accuracy, Support: r.Accuracy},
		r.MacroAvg,
		r.WeightedAvg,
	)
	return rows
}

var header = []string{"", "precision", "recall", "f1-score", "support"}

func (row Row) cells() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', ReportDecimals, 64) }
	support := f(row.Support)
	if row.Support == math.Trunc(row.Support) {
		support = strconv.Itoa(int(row.Support))
	}
	return []string{row.Label, f(row.Precision), f(row.Recall), f(row.F1), support}
}

// WriteTable renders the report as an aligned text table.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	line := func(cells []string) {
		for _, c := range cells {
			fmt.Fprintf(tw, "%s\t", c)
		}
		fmt.Fprintln(tw)
	}
	line(header)
	for _, row := range r.Rows() {
		line(row.cells())
	}
	return errors.Wrap(tw.Flush(), "write report table")
}

// WriteCSV renders the report as CSV with a header line.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write report header")
	}
	for _, row := range r.Rows() {
		if err := cw.Write(row.cells()); err != nil {
			return errors.Wrap(err, "write report row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush report")
}
