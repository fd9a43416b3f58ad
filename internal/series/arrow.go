package series

import (
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// ArrowSchema returns the columnar schema of an export: a date32 "dt"
// column followed by nullable float64 value columns named as in Header.
func ArrowSchema(v Variable, forecast bool) *arrow.Schema {
	header := Header(v, forecast)
	fields := make([]arrow.Field, len(header))
	fields[0] = arrow.Field{Name: header[0], Type: arrow.FixedWidthTypes.Date32}
	for i, name := range header[1:] {
		fields[i+1] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// WriteArrow writes s as a single-record Arrow IPC file. NaN values are
// stored as nulls. The file footer needs a seekable destination.
func WriteArrow(w io.WriteSeeker, s *Series, forecast bool) error {
	mem := memory.NewGoAllocator()
	schema := ArrowSchema(s.Variable, forecast)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	dates := b.Field(0).(*array.Date32Builder)
	cols := make([]*array.Float64Builder, len(schema.Fields())-1)
	for i := range cols {
		cols[i] = b.Field(i + 1).(*array.Float64Builder)
	}
	for _, r := range s.Rows {
		dates.Append(arrow.Date32FromTime(r.Date))
		vals := []float64{r.Simulated, r.Observed}
		if forecast {
			f := forecastValues(r)
			vals = append(vals, f[:]...)
		}
		for i, c := range cols {
			if math.IsNaN(vals[i]) {
				c.AppendNull()
			} else {
				c.Append(vals[i])
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("creating arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("writing arrow record: %w", err)
	}
	return fw.Close()
}

// ReadArrow reads a file written by WriteArrow.
func ReadArrow(r ipc.ReadAtSeeker, v Variable) (*Series, error) {
	fr, err := ipc.NewFileReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("opening arrow file: %w", err)
	}
	defer fr.Close()

	out := &Series{Variable: v}
	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.Record(i)
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", i, err)
		}
		if rec.NumCols() < 3 {
			return nil, fmt.Errorf("record %d has %d columns, want at least 3", i, rec.NumCols())
		}
		dates, ok := rec.Column(0).(*array.Date32)
		if !ok {
			return nil, fmt.Errorf("column dt is %s, want date32", rec.Column(0).DataType())
		}
		vals := make([]*array.Float64, rec.NumCols()-1)
		for c := range vals {
			if vals[c], ok = rec.Column(c + 1).(*array.Float64); !ok {
				return nil, fmt.Errorf("column %s is not float64", rec.ColumnName(c+1))
			}
		}
		for j := 0; j < int(rec.NumRows()); j++ {
			row := make([]float64, len(vals))
			for c, col := range vals {
				row[c] = math.NaN()
				if col.IsValid(j) {
					row[c] = col.Value(j)
				}
			}
			r := Row{Date: dates.Value(j).ToTime(), Simulated: row[0], Observed: row[1]}
			if len(row) > 2 && anyFinite(row[2:]) {
				f := ForecastFrom(row[2:])
				r.Forecast = &f
			}
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}
