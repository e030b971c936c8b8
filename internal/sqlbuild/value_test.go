package sqlbuild

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vvka-141/belaz/internal/extract"
)

func TestStringify_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, "None"},
		{"string", "hello", "hello"},
		{"empty string", "", ""},
		{"true", true, "True"},
		{"false", false, "False"},
		{"int32", int32(1), "1"},
		{"negative int64", int64(-5), "-5"},
		{"large int64", int64(1 << 40), "1099511627776"},
		{"float fraction", 2.5, "2.5"},
		{"integral float", 3.0, "3.0"},
		{"zero float", 0.0, "0.0"},
		{"small float", 0.0001, "0.0001"},
		{"tiny float", 1.5e-5, "1.5e-05"},
		{"huge float", 1e16, "1e+16"},
		{"below exponent threshold", 1e15, "1000000000000000.0"},
		{"shortest repr", 0.1, "0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.in))
		})
	}
}

func TestStringify_DateTime(t *testing.T) {
	whole := time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC)
	assert.Equal(t, "2024-03-01 12:30:05", Stringify(whole))

	frac := whole.Add(123 * time.Millisecond)
	assert.Equal(t, "2024-03-01 12:30:05.123000", Stringify(frac))

	offset := time.FixedZone("UTC+2", 2*60*60)
	assert.Equal(t, "2024-03-01 12:30:05", Stringify(whole.In(offset)), "rendered in UTC")
}

func TestStringify_BSONTypes(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex("5f1d7f3e9b1e8b3a4c2d1e0f")
	require.NoError(t, err)
	assert.Equal(t, "5f1d7f3e9b1e8b3a4c2d1e0f", Stringify(oid))

	dec, err := primitive.ParseDecimal128("12.50")
	require.NoError(t, err)
	assert.Equal(t, dec.String(), Stringify(dec))

	raw, err := bson.Marshal(bson.D{
		{Key: "doc", Value: bson.D{{Key: "k", Value: "v"}}},
		{Key: "arr", Value: bson.A{int32(1), int32(2)}},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"k":"v"}`, Stringify(bson.Raw(raw).Lookup("doc")))
	assert.Equal(t, `[1,2]`, Stringify(bson.Raw(raw).Lookup("arr")))
}

func TestClip(t *testing.T) {
	short := strings.Repeat("a", 200)
	assert.Equal(t, short, Clip(short))

	assert.Equal(t, short, Clip(strings.Repeat("a", 201)))

	multibyte := Clip(strings.Repeat("é", 250))
	assert.Equal(t, 200, utf8.RuneCountInString(multibyte))
	assert.True(t, utf8.ValidString(multibyte))

	assert.Equal(t, "", Clip(""))
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, "'plain'", Literal("plain"))
	assert.Equal(t, "'it''s'", Literal("it's"))
	assert.Equal(t, "''''''", Literal("''"))
	assert.Equal(t, "''", Literal(""))
}

func TestCell_ClipsBeforeBinding(t *testing.T) {
	long := strings.Repeat("x", 300)
	assert.Len(t, Cell(long), 200)
	assert.Equal(t, "None", Cell(nil))
}

func TestCell_NullDiffersFromAbsentField(t *testing.T) {
	data, err := bson.Marshal(bson.D{{Key: "b", Value: true}, {Key: "n", Value: nil}})
	require.NoError(t, err)

	row := extract.Project(bson.Raw(data), []string{"b", "n", "missing"})

	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = Cell(v)
	}
	assert.Equal(t, []string{"True", "None", ""}, cells)
}
