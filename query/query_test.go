package query

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlibre/x4grid/record"
)

func peopleSchema(t *testing.T) *record.Schema {
	t.Helper()
	s, err := record.NewSchema("id",
		record.FieldDescriptor{Name: "id", Type: record.FieldTypeInt},
		record.FieldDescriptor{Name: "name", Type: record.FieldTypeString},
		record.FieldDescriptor{Name: "age", Type: record.FieldTypeInt},
		record.FieldDescriptor{Name: "active", Type: record.FieldTypeBool},
		record.FieldDescriptor{Name: "tags", Type: record.FieldTypeArray},
		record.FieldDescriptor{Name: "adult", Type: record.FieldTypeCalculated, Calc: func(r record.Record) record.Value {
			return record.Bool(r.Get("age").I64 >= 18)
		}},
	)
	require.NoError(t, err)
	return s
}

func people() []record.Record {
	return []record.Record{
		{"id": record.Int(1), "name": record.String("Ann"), "age": record.Int(31), "active": record.Bool(true),
			"tags": record.Array([]record.Value{record.String("go"), record.String("sql")})},
		{"id": record.Int(2), "name": record.String("bob"), "age": record.Int(17), "active": record.Bool(false)},
		{"id": record.Int(3), "name": record.String("Cid"), "age": record.Int(45), "active": record.Bool(true),
			"tags": record.Array([]record.Value{record.String("rust")})},
		{"id": record.Int(4), "name": record.String("dora")},
	}
}

func matchedIDs(t *testing.T, f Filter, s *record.Schema) []int64 {
	t.Helper()
	m, err := Compile(f, s)
	require.NoError(t, err)
	var out []int64
	for _, r := range people() {
		if m(r) {
			out = append(out, r["id"].I64)
		}
	}
	return out
}

func TestCompileConditions(t *testing.T) {
	s := peopleSchema(t)

	tests := []struct {
		name string
		f    Filter
		want []int64
	}{
		{"Nil", nil, []int64{1, 2, 3, 4}},
		{"Empty", EmptyResult{}, nil},
		{"EqBool", Eq("active", record.Bool(true)), []int64{1, 3}},
		{"EqFalseIncludesMissing", Eq("active", record.Bool(false)), []int64{2, 4}},
		{"NotEqual", Condition{Field: "age", Op: OpNotEqual, Value: record.Int(17)}, []int64{1, 3, 4}},
		{"Less", Condition{Field: "age", Op: OpLess, Value: record.Int(18)}, []int64{2, 4}},
		{"LessEqual", Condition{Field: "age", Op: OpLessEqual, Value: record.Int(31)}, []int64{1, 2, 4}},
		{"Greater", Condition{Field: "age", Op: OpGreater, Value: record.Float(31.5)}, []int64{3}},
		{"GreaterEqual", Condition{Field: "age", Op: OpGreaterEqual, Value: record.Int(31)}, []int64{1, 3}},
		{"EqFold", Eq("name", record.String("ANN")), []int64{1}},
		{"EqCaseSensitive", Condition{Field: "name", Op: OpEqual, Value: record.String("ANN"), CaseSensitive: true}, nil},
		{"Regex", Condition{Field: "name", Op: OpMatch, Value: record.String("^[ab]")}, []int64{1, 2}},
		{"RegexCase", Condition{Field: "name", Op: OpMatch, Value: record.String("^[ab]"), CaseSensitive: true}, []int64{2}},
		{"In", Condition{Field: "id", Op: OpIn, Value: record.Array([]record.Value{record.Int(2), record.Int(4)})}, []int64{2, 4}},
		{"ContainsArray", Condition{Field: "tags", Op: OpContains, Value: record.String("GO")}, []int64{1}},
		{"ContainsString", Condition{Field: "name", Op: OpContains, Value: record.String("O")}, []int64{2, 4}},
		{"Calculated", Eq("adult", record.Bool(true)), []int64{1, 3}},
		{"Predicate", Where(func(r record.Record) bool { return r.Get("id").I64%2 == 0 }), []int64{2, 4}},
		{"Func", Func(func(g Getter) bool { return g.Get("adult").B }), []int64{1, 3}},
		{"And", And{Eq("active", record.Bool(true)), Condition{Field: "age", Op: OpGreater, Value: record.Int(40)}}, []int64{3}},
		{"Or", Or{Eq("id", record.Int(1)), Eq("id", record.Int(4))}, []int64{1, 4}},
		{"Not", Not{Filter: Eq("active", record.Bool(true))}, []int64{2, 4}},
		{"EmptyAnd", And{}, []int64{1, 2, 3, 4}},
		{"EmptyOr", Or{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchedIDs(t, tt.f, s))
		})
	}
}

func TestCompileErrors(t *testing.T) {
	s := peopleSchema(t)

	_, err := Compile(Eq("nope", record.Int(1)), s)
	assert.ErrorIs(t, err, ErrUnknownField)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "nope", fe.Field)

	_, err = Compile(Condition{Field: "name", Op: OpMatch, Value: record.String("(")}, s)
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = Compile(Condition{Field: "name", Op: "like", Value: record.String("x")}, s)
	assert.ErrorIs(t, err, ErrInvalidOperator)

	_, err = Compile(And{Eq("id", record.Int(1)), Not{Filter: Eq("bad", record.Null())}}, s)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestIsEmptyResult(t *testing.T) {
	assert.True(t, IsEmptyResult(EmptyResult{}))
	assert.True(t, IsEmptyResult(And{Eq("id", record.Int(1)), EmptyResult{}}))
	assert.True(t, IsEmptyResult(Or{}))
	assert.False(t, IsEmptyResult(Or{EmptyResult{}, Eq("id", record.Int(1))}))
	assert.False(t, IsEmptyResult(nil))
}

func TestFields(t *testing.T) {
	f := And{Eq("a", record.Int(1)), Not{Filter: Or{Eq("b", record.Int(1))}}, Where(func(record.Record) bool { return true })}
	assert.Equal(t, []string{"a", "b"}, Fields(f))
}

func sortedIDs(t *testing.T, s Sort, schema *record.Schema, recs []record.Record) []int64 {
	t.Helper()
	cmp, err := CompileSort(s, schema)
	require.NoError(t, err)
	recs = slices.Clone(recs)
	slices.SortFunc(recs, cmp)
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r["id"].I64
	}
	return out
}

func TestCompileSort(t *testing.T) {
	s := peopleSchema(t)
	recs := people()

	assert.Equal(t, []int64{1, 2, 3, 4}, sortedIDs(t, nil, s, recs))
	assert.Equal(t, []int64{4, 3, 2, 1}, sortedIDs(t, Sort{Desc("id")}, s, recs))
	assert.Equal(t, []int64{4, 2, 1, 3}, sortedIDs(t, Sort{Asc("age")}, s, recs))
}

func TestCompileSortMultiKey(t *testing.T) {
	s := peopleSchema(t)
	recs := people()

	// active false/missing first, then by age descending.
	assert.Equal(t, []int64{2, 4, 3, 1}, sortedIDs(t, Sort{Asc("active"), Desc("age")}, s, recs))
}

func TestCompileSortReverse(t *testing.T) {
	s := peopleSchema(t)
	recs := []record.Record{
		{"id": record.Int(1), "name": record.String("b")},
		{"id": record.Int(2), "name": record.String("a")},
		{"id": record.Int(3), "name": record.String("c")},
		{"id": record.Int(4), "name": record.String("a")},
	}

	asc := sortedIDs(t, Sort{Asc("name")}, s, recs)
	desc := sortedIDs(t, Sort{Desc("name")}, s, recs)
	assert.Equal(t, []int64{2, 4, 1, 3}, asc)

	slices.Reverse(desc)
	assert.Equal(t, asc, desc)
}

func TestCompileSortUnknownField(t *testing.T) {
	_, err := CompileSort(Sort{Asc("zzz")}, peopleSchema(t))
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want Filter
	}{
		{"", nil},
		{"age >= 18", Condition{Field: "age", Op: OpGreaterEqual, Value: record.Int(18)}},
		{"age<>3", Condition{Field: "age", Op: OpNotEqual, Value: record.Int(3)}},
		{"score < 1.5", Condition{Field: "score", Op: OpLess, Value: record.Float(1.5)}},
		{"active = true", Condition{Field: "active", Op: OpEqual, Value: record.Bool(true)}},
		{`name = "a and b"`, Condition{Field: "name", Op: OpEqual, Value: record.String("a and b")}},
		{"!name ~ ^A", Condition{Field: "name", Op: OpMatch, Value: record.String("^A"), CaseSensitive: true}},
		{"x = a<b", Condition{Field: "x", Op: OpEqual, Value: record.String("a<b")}},
		{"tags contains go", Condition{Field: "tags", Op: OpContains, Value: record.String("go")}},
		{`id in [1, 2, "x"]`, Condition{Field: "id", Op: OpIn, Value: record.Array([]record.Value{
			record.Int(1), record.Int(2), record.String("x"),
		})}},
		{"a = 1 AND b = 2", And{
			Condition{Field: "a", Op: OpEqual, Value: record.Int(1)},
			Condition{Field: "b", Op: OpEqual, Value: record.Int(2)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want.String(), got.String())
		})
	}

	_, err := ParseFilter("just words")
	assert.ErrorIs(t, err, ErrSyntax)

	_, err = ParseFilter("id in 1,2")
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("name, -age,+id")
	require.NoError(t, err)
	assert.Equal(t, Sort{Asc("name"), Desc("age"), Asc("id")}, s)
	assert.Equal(t, "name,-age,id", s.String())

	s, err = ParseSort("")
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = ParseSort("name,-")
	assert.ErrorIs(t, err, ErrSyntax)
}
