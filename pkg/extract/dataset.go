package extract

import "github.com/whoknowsbruh3425/BDA/pkg/record"

// Field names a record key and the kind it is coerced to. A missing
// optional field does not drop the record; its value is the kind's default
// with an Absent outcome.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool
}

func FloatField(name string) Field  { return Field{Name: name, Kind: Float} }
func IntField(name string) Field    { return Field{Name: name, Kind: Int} }
func StringField(name string) Field { return Field{Name: name, Kind: String} }

// Optional returns f marked optional
func Optional(f Field) Field {
	f.Optional = true
	return f
}

// Dataset is a columnar, index-aligned view over a set of records.
// Index i of every column belongs to the same source record.
type Dataset struct {
	fields  []Field
	index   map[string]int
	columns [][]Value
	dropped int
}

// Extract builds a Dataset from records. A record contributes only if every
// required key is present; otherwise the whole record is dropped. Repeated
// field names keep their first declaration.
func Extract(records []record.Player, fields ...Field) *Dataset {
	ds := newDataset(fields)
	row := make([]Value, len(ds.fields))

	for _, rec := range records {
		complete := true
		for j, f := range ds.fields {
			raw, ok := rec.Get(f.Name)
			if !ok {
				if f.Optional {
					row[j] = absent(f.Kind)
					continue
				}
				complete = false
				break
			}
			row[j] = Coerce(f.Kind, raw)
		}
		if !complete {
			ds.dropped++
			continue
		}
		for j := range ds.fields {
			ds.columns[j] = append(ds.columns[j], row[j])
		}
	}
	return ds
}

func absent(kind Kind) Value {
	v := Coerce(kind, nil)
	v.Outcome = Absent
	return v
}

func newDataset(fields []Field) *Dataset {
	ds := &Dataset{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if _, dup := ds.index[f.Name]; dup {
			continue
		}
		ds.index[f.Name] = len(ds.fields)
		ds.fields = append(ds.fields, f)
	}
	ds.columns = make([][]Value, len(ds.fields))
	for j := range ds.columns {
		ds.columns[j] = []Value{}
	}
	return ds
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	if len(d.columns) == 0 {
		return 0
	}
	return len(d.columns[0])
}

// Dropped returns how many records lacked at least one requested field
func (d *Dataset) Dropped() int { return d.dropped }

// Fields returns the extracted fields in declaration order
func (d *Dataset) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Present returns the float values of a column whose key was in the record
func (d *Dataset) Present(name string) []float64 {
	col := d.Values(name)
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if !v.Absent() {
			out = append(out, v.Float)
		}
	}
	return out
}

// Has reports whether the field was requested
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Values returns the coerced column, or nil for an unknown field
func (d *Dataset) Values(name string) []Value {
	j, ok := d.index[name]
	if !ok {
		return nil
	}
	return d.columns[j]
}

func (d *Dataset) Floats(name string) []float64 {
	col := d.Values(name)
	if col == nil {
		return nil
	}
	out := make([]float64, len(col))
	for i, v := range col {
		out[i] = v.Float
	}
	return out
}

func (d *Dataset) Ints(name string) []int64 {
	col := d.Values(name)
	if col == nil {
		return nil
	}
	out := make([]int64, len(col))
	for i, v := range col {
		out[i] = v.Int
	}
	return out
}

func (d *Dataset) Strings(name string) []string {
	col := d.Values(name)
	if col == nil {
		return nil
	}
	out := make([]string, len(col))
	for i, v := range col {
		out[i] = v.Str
	}
	return out
}

// Defaulted counts the substituted values in a column
func (d *Dataset) Defaulted(name string) int {
	n := 0
	for _, v := range d.Values(name) {
		if v.Defaulted() {
			n++
		}
	}
	return n
}

// DefaultedCounts returns per-field substitution counts, omitting zeros
func (d *Dataset) DefaultedCounts() map[string]int {
	out := make(map[string]int)
	for _, f := range d.fields {
		if n := d.Defaulted(f.Name); n > 0 {
			out[f.Name] = n
		}
	}
	return out
}

// Filter returns a new dataset holding the rows for which keep returns true.
// Dropped is carried over unchanged.
func (d *Dataset) Filter(keep func(i int) bool) *Dataset {
	out := newDataset(d.fields)
	out.dropped = d.dropped
	for i := 0; i < d.Len(); i++ {
		if !keep(i) {
			continue
		}
		for j := range d.columns {
			out.columns[j] = append(out.columns[j], d.columns[j][i])
		}
	}
	return out
}

// Strict removes every row that contains a defaulted value
func (d *Dataset) Strict() *Dataset {
	return d.Filter(func(i int) bool {
		for j := range d.columns {
			if d.columns[j][i].Defaulted() {
				return false
			}
		}
		return true
	})
}
