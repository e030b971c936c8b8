package extract

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/vvka-141/belaz/pkg/belaz"
)

const readBufferSize = 64 * 1024

// BSONExtractor reads concatenated BSON documents, the format written by
// mongodump and bsondump.
//
// Thread-Safety: stateless, safe for concurrent use.
type BSONExtractor struct{}

// NewBSONExtractor creates a new BSONExtractor.
func NewBSONExtractor() *BSONExtractor {
	return &BSONExtractor{}
}

// Extract opens job.SourceFile and projects job.Columns out of every document.
func (e *BSONExtractor) Extract(job belaz.LoadJob) (belaz.Extraction, error) {
	f, err := os.Open(job.SourceFile)
	if err != nil {
		return belaz.Extraction{}, fmt.Errorf("%w: %w", belaz.ErrExtraction, err)
	}
	defer f.Close()

	return ExtractFrom(f, job.Columns), nil
}

// ExtractFrom decodes documents from r until a clean end of stream or the
// first invalid document. Rows decoded before a broken document are kept
// and the cause is reported in Extraction.Malformed.
func ExtractFrom(r io.Reader, columns []string) belaz.Extraction {
	br := bufio.NewReaderSize(r, readBufferSize)
	var ext belaz.Extraction
	var offset int64

	for {
		header, err := br.Peek(4)
		if err != nil {
			if errors.Is(err, io.EOF) && len(header) == 0 {
				return ext
			}
			ext.Malformed = malformed(ext.Documents, offset, "truncated length prefix", err)
			return ext
		}

		size := int32(binary.LittleEndian.Uint32(header))
		if size < belaz.MinDocumentSize || size > belaz.MaxDocumentSize {
			ext.Malformed = malformed(ext.Documents, offset, fmt.Sprintf("invalid document length %d", size), nil)
			return ext
		}

		doc, err := bson.NewFromIOReader(br)
		if err != nil {
			ext.Malformed = malformed(ext.Documents, offset, "truncated document", err)
			return ext
		}
		if err := doc.Validate(); err != nil {
			ext.Malformed = malformed(ext.Documents, offset, "invalid document", err)
			return ext
		}

		ext.Rows = append(ext.Rows, Project(doc, columns))
		ext.Documents++
		offset += int64(size)
	}
}

func malformed(index int, offset int64, reason string, cause error) error {
	if cause != nil {
		return fmt.Errorf("document %d at byte %d: %s: %v: %w", index, offset, reason, cause, belaz.ErrMalformedDocument)
	}
	return fmt.Errorf("document %d at byte %d: %s: %w", index, offset, reason, belaz.ErrMalformedDocument)
}

// Project builds a row with one value per column. Fields are matched by
// exact top-level key; a dotted column name is a key, not a path.
// Absent fields become the empty string.
func Project(doc bson.Raw, columns []string) belaz.Row {
	row := make(belaz.Row, len(columns))
	for i, col := range columns {
		val, err := doc.LookupErr(col)
		if err != nil {
			row[i] = ""
			continue
		}
		row[i] = Value(val)
	}
	return row
}

// Value converts a BSON value to its natural Go type.
// Embedded documents, arrays and the rarer BSON types stay as bson.RawValue.
func Value(val bson.RawValue) any {
	switch val.Type {
	case bsontype.String:
		return val.StringValue()
	case bsontype.Int32:
		return val.Int32()
	case bsontype.Int64:
		return val.Int64()
	case bsontype.Double:
		return val.Double()
	case bsontype.Boolean:
		return val.Boolean()
	case bsontype.Null, bsontype.Undefined:
		return nil
	case bsontype.ObjectID:
		return val.ObjectID()
	case bsontype.DateTime:
		return val.Time().UTC()
	case bsontype.Decimal128:
		return val.Decimal128()
	default:
		return val
	}
}
