package typecheck

import (
	"github.com/dj-lang/djc/internal/st"
	"github.com/dj-lang/djc/internal/symtab"
)

// Subtype reports whether sub <: super, per spec §4.2.5: reflexive,
// null is a subtype of every class, and otherwise true iff walking
// sub's superclass chain reaches super before the -4 sentinel.
func Subtype(sub, super int, table *symtab.ClassTable) bool {
	if sub == super {
		return true
	}
	if super >= int(st.ObjectType) && sub == int(st.AnyObject) {
		return true
	}
	if sub < int(st.ObjectType) {
		return false
	}

	cur := sub
	for {
		entry := table.Class(cur)
		if entry == nil {
			return false
		}
		cur = entry.Superclass
		if cur == super {
			return true
		}
		if cur < int(st.ObjectType) {
			return false
		}
	}
}

// Join returns the least common superclass of two object-ish types
// (each either st.AnyObject or a resolved class index), per §4.2.5.
// It is only ever called on such pairs, so the upward walk always
// terminates at a common ancestor or Object.
func Join(t1, t2 int, table *symtab.ClassTable) int {
	if Subtype(t1, t2, table) {
		return t2
	}
	if Subtype(t2, t1, table) {
		return t1
	}
	entry := table.Class(t1)
	return Join(entry.Superclass, t2, table)
}
