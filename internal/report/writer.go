// Package report renders account snapshots.
package report

import (
	"encoding/csv"
	"io"
	"iter"
	"strconv"

	"github.com/terminal-bench/txengine/internal/ledger"
	"github.com/terminal-bench/txengine/pkg/decimal"
)

var header = []string{"client", "available", "held", "total", "locked"}

// Writer writes one row per account, header first.
type Writer struct {
	csv *csv.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// Write renders every account of seq and flushes.
func (w *Writer) Write(seq iter.Seq2[ledger.ClientID, *ledger.Account]) error {
	if err := w.csv.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for client, acc := range seq {
		row[0] = strconv.FormatUint(uint64(client), 10)
		row[1] = decimal.Format(acc.Available())
		row[2] = decimal.Format(acc.Held())
		row[3] = decimal.Format(acc.Total())
		row[4] = strconv.FormatBool(acc.Locked())
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}

	w.csv.Flush()
	return w.csv.Error()
}
