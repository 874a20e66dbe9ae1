package metrics

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReadPredictions loads a two-column CSV of true and predicted class
// indices. A header line ("y_true,y_pred") is skipped when present.
func ReadPredictions(path string) (yTrue, yPred []int, err error) {
	//nolint:gosec // G304: path is provided by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open predictions")
	}
	defer f.Close()
	return ParsePredictions(f)
}

// ParsePredictions is ReadPredictions over a reader.
func ParsePredictions(r io.Reader) (yTrue, yPred []int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "read predictions")
		}
		t, errT := strconv.Atoi(strings.TrimSpace(rec[0]))
		p, errP := strconv.Atoi(strings.TrimSpace(rec[1]))
		if errT != nil || errP != nil {
			if line == 1 {
				continue
			}
			return nil, nil, errors.Errorf("predictions line %d: expected two integers, got %q", line, rec)
		}
		yTrue = append(yTrue, t)
		yPred = append(yPred, p)
	}
	if len(yTrue) == 0 {
		return nil, nil, errors.Wrap(ErrLabels, "no predictions")
	}
	return yTrue, yPred, nil
}
