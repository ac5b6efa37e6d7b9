package testutil

import (
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
)

// Rows is a driver.Rows over a fixed set of values.
type Rows struct {
	values [][]any
	index  int
	err    error
}

// NewRows returns rows yielding each element of values in turn.
func NewRows(values ...[]any) *Rows {
	return &Rows{values: values, index: -1}
}

// WithErr makes Err return err once iteration is done.
func (r *Rows) WithErr(err error) *Rows {
	r.err = err
	return r
}

func (r *Rows) Next() bool {
	r.index++
	return r.index < len(r.values)
}

// Scan assigns the current row to dest. Each destination must be a pointer
// to the exact type of the stored value, as the native driver requires.
func (r *Rows) Scan(dest ...any) error {
	if r.index < 0 || r.index >= len(r.values) {
		return errors.New("scan called without a current row")
	}

	row := r.values[r.index]
	if len(dest) != len(row) {
		return errors.Errorf("expected %d destinations, got %d", len(row), len(dest))
	}

	for i, d := range dest {
		target := reflect.ValueOf(d)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return errors.Errorf("destination %d is not a pointer", i)
		}

		value := reflect.ValueOf(row[i])
		if value.Type() != target.Elem().Type() {
			return errors.Errorf("cannot scan %s into %s", value.Type(), target.Elem().Type())
		}

		target.Elem().Set(value)
	}

	return nil
}

func (r *Rows) Close() error {
	return nil
}

func (r *Rows) Err() error {
	return r.err
}

func (r *Rows) ColumnTypes() []driver.ColumnType {
	return nil
}

func (r *Rows) Columns() []string {
	return nil
}

func (r *Rows) ScanStruct(dest any) error {
	return errors.New("ScanStruct is not supported")
}

func (r *Rows) Totals(dest ...any) error {
	return nil
}
