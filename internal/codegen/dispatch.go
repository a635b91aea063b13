package codegen

// writeVTable emits _VTable_Dispatch: one row per (staticClass,
// staticMethod, dynamicType) triple reachable for a receiver of the
// given static type, linearized as a sequence of compare-and-jump
// blocks that fall through to the next row on mismatch. Grounded in
// original_source/src/codegen/codegen.c's genVTable/addDynamicMethodInfo.
func (g *Generator) writeVTable() {
	g.writeln("_VTable_Dispatch:")
	for i := 1; i < g.Table.NumClasses(); i++ {
		class := g.Table.Class(i)
		for j := range class.Methods {
			g.writeDispatchRow(i, j, i, i, j)
		}
		for superType := class.Superclass; superType >= 1; {
			super := g.Table.Class(superType)
			for j, superMethod := range super.Methods {
				if idx := class.MethodIndex(superMethod.MethodName); idx >= 0 {
					g.writeDispatchRow(superType, j, i, i, idx)
				} else {
					g.writeDispatchRow(superType, j, i, superType, j)
				}
			}
			superType = super.Superclass
		}
	}
	g.writeln("    mov rdi, 44")
	g.writeln("    call _exit_program")
}

// writeDispatchRow emits one dispatch table row: a receiver whose
// static type is staticClass dispatching staticMethod, when the
// object's dynamic type is dynamicType, jumps to
// dynamicClassToCall.dynamicMethodToCall; anything else falls
// through to the next row.
func (g *Generator) writeDispatchRow(staticClass, staticMethod, dynamicType, dynamicClassToCall, dynamicMethodToCall int) {
	next := g.nextLabel()

	// Call frame on entry: [Arg][SMethod][SClass][This][RetAddr], rsp
	// pointing at Arg.
	g.writef("    mov rax, [rsp + %d]\n", 2*wordSize)
	g.writef("    cmp rax, %d\n", staticClass)
	g.writef("    jne .L%d\n", next)

	g.writef("    mov rax, [rsp + %d]\n", wordSize)
	g.writef("    cmp rax, %d\n", staticMethod)
	g.writef("    jne .L%d\n", next)

	g.writef("    mov rax, [rsp + %d]\n", 3*wordSize)
	g.writeln("    mov rax, [rax]")
	g.writef("    cmp rax, %d\n", dynamicType)
	g.writef("    jne .L%d\n", next)

	g.writef("    jmp %s\n", methodLabel(dynamicClassToCall, dynamicMethodToCall))

	g.writef(".L%d:\n", next)
}
