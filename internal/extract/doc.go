// Package extract reads BSON document streams and projects configured fields
// into rows.
//
// A document stream is a plain concatenation of BSON documents, each starting
// with its little-endian int32 length. Decoding is best effort: the first
// structurally invalid document ends the stream, and every row decoded before
// it is still returned.
package extract
