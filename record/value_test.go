package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAccessors(t *testing.T) {
	i, ok := Int(4).AsInt64()
	assert.True(t, ok)
	assert.Equal(t, int64(4), i)

	_, ok = Int(4).AsString()
	assert.False(t, ok)

	s, ok := String("x").AsString()
	assert.True(t, ok)
	assert.Equal(t, "x", s)
	assert.Equal(t, "", Int(1).StringValue())

	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	got, ok := Date(ts).AsTime()
	assert.True(t, ok)
	assert.Equal(t, ts, got)

	assert.True(t, Value{}.IsNull())
	assert.True(t, Null().IsNull())
}

func TestValueKey(t *testing.T) {
	assert.NotEqual(t, Int(1).Key(), String("1").Key())
	assert.NotEqual(t, Int(1).Key(), Date(time.UnixMilli(1)).Key())
	assert.Equal(t, String("a").Key(), String("a").Key())
	assert.Equal(t, "a:i:1\x1fs:b", Array([]Value{Int(1), String("b")}).Key())
}

func TestValueDisplay(t *testing.T) {
	assert.Equal(t, "", Null().String())
	assert.Equal(t, "2.5", Float(2.5).String())
	assert.Equal(t, "2024-01-02", Date(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)).String())
	assert.Equal(t, "[1, a]", Array([]Value{Int(1), String("a")}).String())
}

func TestValueJSON(t *testing.T) {
	in := []Value{Null(), Int(3), Float(1.25), String("hello"), Bool(true), Date(time.UnixMilli(42))}
	for _, v := range in {
		data, err := json.Marshal(v)
		require.NoError(t, err)

		var out Value
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, 0, Compare(v, out))
		assert.Equal(t, v.Kind, out.Kind)
	}
}

func TestRecordJSON(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"a","score":1.5,"tags":["x"],"gone":null}`), &rec))

	assert.Equal(t, KindInt, rec["id"].Kind)
	assert.Equal(t, KindFloat, rec["score"].Kind)
	assert.Equal(t, KindArray, rec["tags"].Kind)
	assert.True(t, rec["gone"].IsNull())

	data, err := json.Marshal(Record{"id": Int(1), "name": String("a")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"a"}`, string(data))
}

func TestRecordCloneIsDeep(t *testing.T) {
	rec := Record{"tags": Array([]Value{String("a")})}
	cp := rec.Clone()
	cp["tags"].A[0] = String("b")
	assert.Equal(t, "a", rec["tags"].A[0].StringValue())

	with := rec.With("x", Int(1))
	assert.NotContains(t, rec, "x")
	assert.Equal(t, int64(1), with["x"].I64)
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(json.Number("12"))
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind)

	v, err = FromAny(json.Number("1.5"))
	require.NoError(t, err)
	assert.Equal(t, KindFloat, v.Kind)

	v, err = FromAny([]any{"a", 1})
	require.NoError(t, err)
	assert.Len(t, v.A, 2)

	_, err = FromAny(struct{}{})
	assert.Error(t, err)

	_, err = FromAny(uint64(1 << 63))
	assert.Error(t, err)
}
