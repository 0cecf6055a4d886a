// Package output provides deterministic encoding for snapshot trees.
//
// Identical inputs always produce byte-identical output:
//
//  1. Object keys keep the order the producer chose. Struct members follow
//     declaration order; map entries are sorted by their rendered key.
//  2. Floats are rounded to at most 6 decimal places.
//  3. HTML characters are written as-is, not escaped.
//
// Snapshot comparison is textual after line endings and trailing whitespace
// are normalized, so a verified file checked out with CRLF endings still
// matches.
//
// # Usage
//
//	tree := output.Object{
//	    {Key: "name", Value: "alpha"},
//	    {Key: "score", Value: output.RoundFloat(0.1234567)},
//	}
//	data, err := output.EncodeIndented(tree, "  ")
//
//	equal, diff := output.CompareSnapshots(verified, data)
//	if !equal {
//	    t.Errorf("snapshot differs:\n%s", diff)
//	}
package output
