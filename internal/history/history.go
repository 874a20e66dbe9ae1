// Package history reads per-epoch training metrics written by a training
// run, either as a JSON object of series or as a CSV log, and can follow
// the file while it is being written.
package history

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Well-known series names.
const (
	Loss        = "loss"
	ValLoss     = "val_loss"
	Accuracy    = "accuracy"
	ValAccuracy = "val_accuracy"
)

// ErrMissingSeries is returned when a requested series is absent.
var ErrMissingSeries = errors.New("missing history series")

// History maps a metric name to its per-epoch values.
type History map[string][]float64

// Series returns the named series or ErrMissingSeries.
func (h History) Series(name string) ([]float64, error) {
	s, ok := h[name]
	if !ok {
		return nil, errors.Wrapf(ErrMissingSeries, "%q (have %v)", name, h.Names())
	}
	return s, nil
}

// Pair returns a training series and its validation counterpart. Both must
// exist and have the same length.
func (h History) Pair(name string) (train, val []float64, err error) {
	if train, err = h.Series(name); err != nil {
		return nil, nil, err
	}
	if val, err = h.Series("val_" + name); err != nil {
		return nil, nil, err
	}
	if len(train) != len(val) {
		return nil, nil, errors.Errorf("series %q has %d epochs, %q has %d", name, len(train), "val_"+name, len(val))
	}
	return train, val, nil
}

// Names returns the series names in sorted order.
func (h History) Names() []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Epochs returns the length of the longest series.
func (h History) Epochs() int {
	n := 0
	for _, s := range h {
		n = max(n, len(s))
	}
	return n
}

// Load reads a history file. Files ending in .csv are parsed as CSV logs
// with a header row (an "epoch" column is dropped); anything else is
// parsed as a JSON object of number arrays.
func Load(path string) (History, error) {
	//nolint:gosec // G304: path is provided by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open history")
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		h, err := ParseCSV(f)
		return h, errors.Wrapf(err, "history %s", path)
	}
	h, err := ParseJSON(f)
	return h, errors.Wrapf(err, "history %s", path)
}

// ParseJSON decodes {"loss": [...], "val_loss": [...], ...}.
func ParseJSON(r io.Reader) (History, error) {
	var h History
	if err := json.NewDecoder(r).Decode(&h); err != nil {
		return nil, errors.Wrap(err, "decode json")
	}
	if len(h) == 0 {
		return nil, errors.New("empty history")
	}
	return h, nil
}

// ParseCSV decodes a CSV log whose header names the series.
func ParseCSV(r io.Reader) (History, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	h := make(History, len(header))
	for _, name := range header {
		if name != "epoch" {
			h[name] = nil
		}
	}
	if len(h) == 0 {
		return nil, errors.New("empty history")
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read row")
		}
		for i, name := range header {
			if name == "epoch" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d column %q", line, name)
			}
			h[name] = append(h[name], v)
		}
	}
	return h, nil
}
