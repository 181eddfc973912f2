// Package ingest reads instruction streams from comma separated text.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/terminal-bench/txengine/internal/ledger"
)

const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

// Reader yields one instruction per row. The first row must be a header
// naming the columns; their order does not matter.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
	started bool
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	return &Reader{csv: cr}
}

// Next returns the next instruction, io.EOF at the end of the stream, or a
// *ParseError for a malformed row.
func (r *Reader) Next() (ledger.Instruction, error) {
	rec, err := r.NextRecord()
	if err != nil {
		return nil, err
	}
	return rec.Instruction()
}

// NextRecord returns the next row without validating it.
func (r *Reader) NextRecord() (Record, error) {
	if !r.started {
		if err := r.readHeader(); err != nil {
			return Record{}, err
		}
		r.started = true
	}

	fields, err := r.read()
	if err != nil {
		return Record{}, err
	}

	line, _ := r.csv.FieldPos(0)
	return Record{
		Line:   line,
		Type:   r.field(fields, colType),
		Client: r.field(fields, colClient),
		Tx:     r.field(fields, colTx),
		Amount: r.field(fields, colAmount),
	}, nil
}

func (r *Reader) readHeader() error {
	fields, err := r.read()
	if err != nil {
		return err
	}

	line, _ := r.csv.FieldPos(0)
	r.columns = make(map[string]int, len(fields))
	for i, name := range fields {
		r.columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{colType, colClient, colTx} {
		if _, ok := r.columns[required]; !ok {
			return &ParseError{Line: line, Err: fmt.Errorf("%w: header has no %q column", ErrMissingField, required)}
		}
	}
	return nil
}

func (r *Reader) read() ([]string, error) {
	fields, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return nil, &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	if err != nil {
		return nil, err
	}

	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}

func (r *Reader) field(fields []string, name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return fields[i]
}
