// Package geometry reproduces the on-disk cell/overflow arithmetic of a
// SQLite-format leaf page for a table shaped like
//
//	create table t (id integer primary key, val blob);
//
// Every exported function here mirrors a formula in spec.md §4.1 exactly;
// none of it is an approximation, and none of it may be rounded.
package geometry

// VarintLen returns the number of bytes the SQLite variable-length integer
// encoding uses for val: 1..8 bytes for the customary 7-bits-per-byte
// unsigned encoding of values below 2^56, and 9 for larger values and for
// a negative (sign-extended) value.
//
// Grounded on the record-size formula in spec.md §4.1 and on the original
// C varint_size() in original_source/blobpack.c, which classifies purely
// by magnitude rather than actually encoding the bytes.
func VarintLen(val int64) int {
	switch {
	case val < 0:
		return 9
	case val < 0x80:
		return 1
	case val < 0x4000:
		return 2
	case val < 0x200000:
		return 3
	case val < 0x10000000:
		return 4
	case val < 0x800000000:
		return 5
	case val < 0x40000000000:
		return 6
	case val < 0x2000000000000:
		return 7
	case val < 0x100000000000000:
		return 8
	default:
		return 9
	}
}
