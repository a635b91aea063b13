package codegen

// wordSize is the machine word size in bytes; every stack slot,
// field, and heap word is one word.
const wordSize = 8

// heapWords bounds the bump-allocated object arena backing `new`,
// per spec §5.
const heapWords = 65536

// writeRuntimeHelpers emits the three fixed, library-less runtime
// routines every compiled program links against: _exit_program,
// _print_int, and _read_int. Grounded in
// original_source/src/codegen/codegen.c's genLibLessHelpers.
func (g *Generator) writeRuntimeHelpers() {
	g.writeln("")
	g.writeln("_exit_program:")
	g.writeln("    mov rax, 60")
	g.writeln("    syscall")

	g.writeln("")
	g.writeln("_print_int:")
	g.writeln("    push rbp")
	g.writeln("    mov rbp, rsp")
	g.writeln("    push rbx")
	g.writeln("    push rcx")
	g.writeln("    push rdx")
	g.writeln("    push rsi")
	g.writeln("    push rdi")
	g.writeln("    mov rcx, 0")
	g.writeln("    mov rbx, 10")
	g.writeln("    cmp rax, 0")
	g.writeln("    jne .convert_loop")
	g.writeln("    dec rsp")
	g.writeln("    mov byte [rsp], '0'")
	g.writeln("    inc rcx")
	g.writeln("    jmp .print_digits")
	g.writeln(".convert_loop:")
	g.writeln("    cmp rax, 0")
	g.writeln("    je .print_digits")
	g.writeln("    xor rdx, rdx")
	g.writeln("    div rbx")
	g.writeln("    add rdx, '0'")
	g.writeln("    dec rsp")
	g.writeln("    mov [rsp], dl")
	g.writeln("    inc rcx")
	g.writeln("    jmp .convert_loop")
	g.writeln(".print_digits:")
	g.writeln("    mov rax, 1")
	g.writeln("    mov rdi, 1")
	g.writeln("    mov rsi, rsp")
	g.writeln("    mov rdx, rcx")
	g.writeln("    syscall")
	g.writeln("    add rsp, rdx")
	g.writeln("    dec rsp")
	g.writeln("    mov byte [rsp], 10")
	g.writeln("    mov rax, 1")
	g.writeln("    mov rdi, 1")
	g.writeln("    mov rsi, rsp")
	g.writeln("    mov rdx, 1")
	g.writeln("    syscall")
	g.writeln("    inc rsp")
	g.writeln("    pop rdi")
	g.writeln("    pop rsi")
	g.writeln("    pop rdx")
	g.writeln("    pop rcx")
	g.writeln("    pop rbx")
	g.writeln("    pop rbp")
	g.writeln("    ret")

	g.writeln("")
	g.writeln("_read_int:")
	g.writeln("    push rbp")
	g.writeln("    mov rbp, rsp")
	g.writeln("    push rbx")
	g.writeln("    push rcx")
	g.writeln("    push rdx")
	g.writeln("    push rsi")
	g.writeln("    push rdi")
	g.writeln("    mov rax, 0")
	g.writeln("    mov rdi, 0")
	g.writeln("    lea rsi, [rel input_buffer]")
	g.writeln("    mov rdx, 20")
	g.writeln("    syscall")
	g.writeln("    xor rax, rax")
	g.writeln("    lea rsi, [rel input_buffer]")
	g.writeln("    xor rbx, rbx")
	g.writeln(".parse_loop:")
	g.writeln("    mov bl, [rsi]")
	g.writeln("    cmp bl, 10")
	g.writeln("    je .parse_done")
	g.writeln("    cmp bl, '0'")
	g.writeln("    jl .parse_done")
	g.writeln("    cmp bl, '9'")
	g.writeln("    jg .parse_done")
	g.writeln("    sub bl, '0'")
	g.writeln("    imul rax, 10")
	g.writeln("    add rax, rbx")
	g.writeln("    inc rsi")
	g.writeln("    jmp .parse_loop")
	g.writeln(".parse_done:")
	g.writeln("    pop rdi")
	g.writeln("    pop rsi")
	g.writeln("    pop rdx")
	g.writeln("    pop rcx")
	g.writeln("    pop rbx")
	g.writeln("    pop rbp")
	g.writeln("    ret")
}
