package record

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"IntLess", Int(1), Int(2), -1},
		{"IntEqual", Int(2), Int(2), 0},
		{"IntFloatCross", Int(2), Float(2.5), -1},
		{"FloatIntEqual", Float(3), Int(3), 0},
		{"String", String("abc"), String("abd"), -1},
		{"BoolFalseFirst", Bool(false), Bool(true), -1},
		{"Date", Date(day), Date(day.Add(time.Hour)), -1},
		{"NullNull", Null(), Null(), 0},
		{"NullVsEmptyString", Null(), String(""), 0},
		{"NullBeforeString", Null(), String("a"), -1},
		{"NullVsZero", Int(0), Null(), 0},
		{"NullVsFalse", Null(), Bool(false), 0},
		{"NullBeforeNegative", Null(), Int(-1), 1},
		{"MixedKinds", String("1"), Bool(true), -1},
		{"ArrayLex", Array([]Value{Int(1), Int(2)}), Array([]Value{Int(1), Int(3)}), -1},
		{"ArrayPrefix", Array([]Value{Int(1)}), Array([]Value{Int(1), Int(0)}), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a))
		})
	}
}

func TestCompareFold(t *testing.T) {
	assert.Equal(t, 0, CompareFold(String("ABC"), String("abc")))
	assert.Equal(t, -1, CompareFold(String("apple"), String("Banana")))
	assert.Equal(t, -1, CompareFold(Null(), String("a")))
	assert.Equal(t, 1, CompareFold(Int(3), Int(2)))
}

func TestCompareIsTotal(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	pool := []Value{Null(), Int(0), Int(-3), Int(7), Float(0.5), Float(-2), Float(7)}
	values := make([]Value, 200)
	for i := range values {
		values[i] = pool[r.IntN(len(pool))]
	}

	slices.SortFunc(values, Compare)
	for i := 1; i < len(values); i++ {
		assert.LessOrEqual(t, Compare(values[i-1], values[i]), 0)
	}
}
