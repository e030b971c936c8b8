package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vvka-141/belaz/pkg/belaz"
)

func stream(t *testing.T, docs ...any) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, d := range docs {
		data, err := bson.Marshal(d)
		require.NoError(t, err)
		buf.Write(data)
	}
	return buf.Bytes()
}

func TestExtractFrom_MissingFieldBecomesEmptyString(t *testing.T) {
	data := stream(t, bson.D{{Key: "x", Value: int32(1)}})

	ext := ExtractFrom(bytes.NewReader(data), []string{"x", "y"})

	require.NoError(t, ext.Malformed)
	require.Len(t, ext.Rows, 1)
	assert.Equal(t, belaz.Row{int32(1), ""}, ext.Rows[0])
	assert.Equal(t, 1, ext.Documents)
}

func TestExtractFrom_RowWidthAlwaysMatchesColumns(t *testing.T) {
	data := stream(t,
		bson.D{},
		bson.D{{Key: "a", Value: "1"}},
		bson.D{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}, {Key: "extra", Value: "3"}},
		bson.D{{Key: "c", Value: "only c"}},
	)

	for _, columns := range [][]string{{"a"}, {"a", "b"}, {"c", "b", "a", "missing"}} {
		ext := ExtractFrom(bytes.NewReader(data), columns)
		require.Len(t, ext.Rows, 4)
		for i, row := range ext.Rows {
			assert.Len(t, row, len(columns), "row %d for columns %v", i, columns)
		}
	}
}

func TestExtractFrom_PreservesDocumentAndColumnOrder(t *testing.T) {
	data := stream(t,
		bson.D{{Key: "id", Value: int64(1)}, {Key: "name", Value: "ann"}},
		bson.D{{Key: "name", Value: "bob"}, {Key: "id", Value: int64(2)}},
	)

	ext := ExtractFrom(bytes.NewReader(data), []string{"name", "id"})

	require.Len(t, ext.Rows, 2)
	assert.Equal(t, belaz.Row{"ann", int64(1)}, ext.Rows[0])
	assert.Equal(t, belaz.Row{"bob", int64(2)}, ext.Rows[1])
}

func TestExtractFrom_EmptyStream(t *testing.T) {
	ext := ExtractFrom(bytes.NewReader(nil), []string{"a"})
	assert.NoError(t, ext.Malformed)
	assert.Empty(t, ext.Rows)
	assert.Equal(t, 0, ext.Documents)
}

func TestExtractFrom_MalformedStreamKeepsEarlierRows(t *testing.T) {
	good := stream(t,
		bson.D{{Key: "a", Value: "first"}},
		bson.D{{Key: "a", Value: "second"}},
	)
	third := stream(t, bson.D{{Key: "a", Value: "third"}})

	corruptType := append([]byte(nil), third...)
	corruptType[4] = 0x20 // not a BSON element type

	hugeLength := make([]byte, 8)
	binary.LittleEndian.PutUint32(hugeLength, uint32(belaz.MaxDocumentSize+1))

	tinyLength := make([]byte, 8)
	binary.LittleEndian.PutUint32(tinyLength, 3)

	tests := []struct {
		name string
		tail []byte
	}{
		{"truncated body", third[:len(third)-3]},
		{"truncated length prefix", third[:2]},
		{"corrupt element type", corruptType},
		{"length above limit", hugeLength},
		{"length below minimum", tinyLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(append([]byte(nil), good...), tt.tail...)

			ext := ExtractFrom(bytes.NewReader(data), []string{"a"})

			require.Error(t, ext.Malformed)
			assert.True(t, errors.Is(ext.Malformed, belaz.ErrMalformedDocument))
			assert.Contains(t, ext.Malformed.Error(), "document 2")
			require.Len(t, ext.Rows, 2)
			assert.Equal(t, "first", ext.Rows[0][0])
			assert.Equal(t, "second", ext.Rows[1][0])
		})
	}
}

func TestExtractFrom_ValueTypes(t *testing.T) {
	oid := primitive.NewObjectID()
	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	dec, err := primitive.ParseDecimal128("12.50")
	require.NoError(t, err)

	data := stream(t, bson.D{
		{Key: "s", Value: "text"},
		{Key: "i32", Value: int32(7)},
		{Key: "i64", Value: int64(1 << 40)},
		{Key: "f", Value: 2.5},
		{Key: "b", Value: true},
		{Key: "n", Value: nil},
		{Key: "oid", Value: oid},
		{Key: "dt", Value: primitive.NewDateTimeFromTime(when)},
		{Key: "dec", Value: dec},
		{Key: "doc", Value: bson.D{{Key: "k", Value: "v"}}},
		{Key: "arr", Value: bson.A{1, 2}},
	})
	columns := []string{"s", "i32", "i64", "f", "b", "n", "oid", "dt", "dec", "doc", "arr"}

	ext := ExtractFrom(bytes.NewReader(data), columns)
	require.NoError(t, ext.Malformed)
	require.Len(t, ext.Rows, 1)
	row := ext.Rows[0]

	assert.Equal(t, "text", row[0])
	assert.Equal(t, int32(7), row[1])
	assert.Equal(t, int64(1<<40), row[2])
	assert.Equal(t, 2.5, row[3])
	assert.Equal(t, true, row[4])
	assert.Nil(t, row[5])
	assert.Equal(t, oid, row[6])
	dt, ok := row[7].(time.Time)
	require.True(t, ok, "datetime decoded as time.Time, got %T", row[7])
	assert.True(t, when.Equal(dt))
	assert.Equal(t, time.UTC, dt.Location())
	assert.Equal(t, dec, row[8])

	doc, ok := row[9].(bson.RawValue)
	require.True(t, ok, "embedded document kept raw, got %T", row[9])
	assert.Equal(t, bsontype.EmbeddedDocument, doc.Type)

	arr, ok := row[10].(bson.RawValue)
	require.True(t, ok, "array kept raw, got %T", row[10])
	assert.Equal(t, bsontype.Array, arr.Type)
}

func TestProject_DottedColumnIsLiteralKey(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "a.b", Value: "literal"},
		{Key: "a", Value: bson.D{{Key: "b", Value: "nested"}}},
	})
	require.NoError(t, err)

	row := Project(raw, []string{"a.b"})
	assert.Equal(t, belaz.Row{"literal"}, row)
}

func TestBSONExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.bson")
	require.NoError(t, os.WriteFile(path, stream(t,
		bson.D{{Key: "x", Value: int32(1)}},
		bson.D{{Key: "y", Value: "b"}},
	), 0644))

	ext, err := NewBSONExtractor().Extract(belaz.LoadJob{Table: "t", SourceFile: path, Columns: []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, []belaz.Row{{int32(1), ""}, {"", "b"}}, ext.Rows)
}

func TestBSONExtractor_MissingFile(t *testing.T) {
	_, err := NewBSONExtractor().Extract(belaz.LoadJob{
		Table:      "t",
		SourceFile: filepath.Join(t.TempDir(), "missing.bson"),
		Columns:    []string{"x"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, belaz.ErrExtraction))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func BenchmarkExtractFrom(b *testing.B) {
	var buf bytes.Buffer
	for i := 0; i < 1000; i++ {
		data, _ := bson.Marshal(bson.D{{Key: "id", Value: int32(i)}, {Key: "name", Value: "row"}})
		buf.Write(data)
	}
	data := buf.Bytes()
	columns := []string{"id", "name", "missing"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ExtractFrom(bytes.NewReader(data), columns)
	}
}
