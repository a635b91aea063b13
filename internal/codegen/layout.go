package codegen

import "github.com/dj-lang/djc/internal/symtab"

// FieldOffset computes the flattened offset (in words, excluding the
// type-code word) of fieldName as seen from an expression whose
// static type is startClass, per spec §4.3.6. The climb begins at
// startClass and continues through superclasses until the declaring
// class is found; only ancestors of the *declaring* class contribute
// padding, so the result depends solely on where the field is
// declared, never on startClass or the object's dynamic type — the
// only scheme under which the same field of the same object resolves
// to the same address no matter which (super)type accessed it.
func FieldOffset(startClass int, fieldName string, table *symtab.ClassTable) int {
	declClass := -1
	own := -1
	for cur := startClass; cur >= 1; {
		entry := table.Class(cur)
		if entry == nil {
			break
		}
		if idx := entry.FieldIndex(fieldName); idx >= 0 {
			declClass, own = cur, idx
			break
		}
		cur = entry.Superclass
	}
	if declClass == -1 {
		return -1
	}
	padding := 0
	for cur := table.Class(declClass).Superclass; cur >= 1; {
		entry := table.Class(cur)
		padding += len(entry.Fields)
		cur = entry.Superclass
	}
	return padding + own
}

// FieldCount returns the total number of fields (own plus inherited)
// an instance of class typ carries, i.e. the number of heap words it
// occupies after its type-code word.
func FieldCount(typ int, table *symtab.ClassTable) int {
	count := 0
	for cur := typ; cur >= 1; {
		entry := table.Class(cur)
		if entry == nil {
			break
		}
		count += len(entry.Fields)
		cur = entry.Superclass
	}
	return count
}

// AncestorChain returns typ's superclass chain from Object down to
// typ itself (Object first, typ last), the allocation order that
// keeps every field's offset consistent with FieldOffset: ancestors'
// fields occupy the low words, each level's own fields are appended
// as the chain descends toward the most-derived class.
func AncestorChain(typ int, table *symtab.ClassTable) []int {
	var chain []int
	for cur := typ; cur >= 0; {
		entry := table.Class(cur)
		if entry == nil {
			break
		}
		chain = append(chain, cur)
		if entry.Superclass < 0 {
			break
		}
		cur = entry.Superclass
	}
	// reverse: chain was collected most-derived first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
