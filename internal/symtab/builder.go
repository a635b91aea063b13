package symtab

import (
	"fmt"

	djerrors "github.com/dj-lang/djc/internal/errors"
	"github.com/dj-lang/djc/internal/st"
	"github.com/dj-lang/djc/internal/token"
)

func internalError(n *st.Node, format string, args ...any) error {
	line := 0
	if n != nil {
		line = n.Line
	}
	return djerrors.NewInternal(token.Position{Line: line}, fmt.Sprintf(format, args...), "", "")
}

// Build walks a PROGRAM syntax tree once and produces the class
// table (with the predefined Object at index 0) and the main block,
// per spec §4.1. It never rejects an ill-typed program: unresolved
// type names are recorded as st.Unresolved for the type checker to
// diagnose. It returns an error only when the tree itself violates
// the shape contracted in spec §3.2 (a compiler-internal defect, not
// a DJ program defect).
func Build(program *st.Node) (*ClassTable, *MainBlock, error) {
	if program == nil || program.Kind != st.PROGRAM {
		return nil, nil, internalError(program, "Build: expected PROGRAM node")
	}
	classList := program.Child(0)
	mainVars := program.Child(1)
	mainExprs := program.Child(2)
	if classList == nil || classList.Kind != st.CLASS_DECL_LIST {
		return nil, nil, internalError(program, "Build: expected CLASS_DECL_LIST")
	}
	if mainVars == nil || mainVars.Kind != st.VAR_DECL_LIST {
		return nil, nil, internalError(program, "Build: expected main VAR_DECL_LIST")
	}
	if mainExprs == nil || mainExprs.Kind != st.EXPR_LIST {
		return nil, nil, internalError(program, "Build: expected main EXPR_LIST")
	}

	table := &ClassTable{Classes: []*ClassEntry{newObjectEntry()}}

	// Sizing pass: assign class indices in source order, starting at 1.
	names := make(map[string]int, len(classList.Children))
	names["Object"] = int(st.ObjectType)
	for _, decl := range classList.Children {
		nameNode := decl.Child(0)
		if nameNode == nil || nameNode.Kind != st.ID {
			return nil, nil, internalError(decl, "Build: class decl missing name")
		}
		idx := len(table.Classes)
		table.Classes = append(table.Classes, &ClassEntry{
			ClassName:     nameNode.IDValue,
			ClassNameLine: nameNode.Line,
			IsFinal:       decl.Kind == st.FINAL_CLASS_DECL,
		})
		names[nameNode.IDValue] = idx
	}

	resolveTypeName := func(name string) int {
		if idx, ok := names[name]; ok {
			return idx
		}
		return int(st.Unresolved)
	}

	// Filling pass: now every class has an index, so type names can resolve.
	for i, decl := range classList.Children {
		entry := table.Classes[i+1]

		superNode := decl.Child(1)
		if superNode == nil || superNode.Kind != st.ID {
			return nil, nil, internalError(decl, "Build: class decl missing superclass")
		}
		entry.SuperclassLine = superNode.Line
		entry.SuperclassName = superNode.IDValue
		entry.Superclass = resolveTypeName(superNode.IDValue)

		varDeclList := decl.Child(2)
		if varDeclList == nil || varDeclList.Kind != st.VAR_DECL_LIST {
			return nil, nil, internalError(decl, "Build: class decl missing VAR_DECL_LIST")
		}
		fields, err := buildFields(varDeclList, resolveTypeName)
		if err != nil {
			return nil, nil, err
		}
		entry.Fields = fields

		methodDeclList := decl.Child(3)
		if methodDeclList == nil || methodDeclList.Kind != st.METHOD_DECL_LIST {
			return nil, nil, internalError(decl, "Build: class decl missing METHOD_DECL_LIST")
		}
		methods, err := buildMethods(methodDeclList, resolveTypeName)
		if err != nil {
			return nil, nil, err
		}
		entry.Methods = methods
	}

	mainLocals, err := buildFields(mainVars, resolveTypeName)
	if err != nil {
		return nil, nil, err
	}

	return table, &MainBlock{Locals: mainLocals, Exprs: mainExprs}, nil
}

func newObjectEntry() *ClassEntry {
	return &ClassEntry{
		ClassName:  "Object",
		Superclass: int(st.NoType),
		IsFinal:    false,
	}
}

func resolveDeclaredType(typeNode *st.Node, resolve func(string) int) (int, int, string, error) {
	if typeNode == nil {
		return 0, 0, "", internalError(typeNode, "Build: var decl missing type")
	}
	switch typeNode.Kind {
	case st.NAT_TYPE:
		return int(st.Nat), typeNode.Line, "nat", nil
	case st.ID:
		return resolve(typeNode.IDValue), typeNode.Line, typeNode.IDValue, nil
	default:
		return 0, 0, "", internalError(typeNode, "Build: unexpected type node kind %s", typeNode.Kind)
	}
}

func buildFields(varDeclList *st.Node, resolve func(string) int) ([]*FieldEntry, error) {
	fields := make([]*FieldEntry, 0, len(varDeclList.Children))
	for _, vd := range varDeclList.Children {
		if vd.Kind != st.VAR_DECL {
			return nil, internalError(vd, "Build: expected VAR_DECL")
		}
		typeNode := vd.Child(0)
		nameNode := vd.Child(1)
		if nameNode == nil || nameNode.Kind != st.ID {
			return nil, internalError(vd, "Build: VAR_DECL missing name")
		}
		typ, typeLine, typeName, err := resolveDeclaredType(typeNode, resolve)
		if err != nil {
			return nil, err
		}
		fields = append(fields, &FieldEntry{
			VarName:     nameNode.IDValue,
			VarNameLine: nameNode.Line,
			Type:        typ,
			TypeLine:    typeLine,
			TypeName:    typeName,
		})
	}
	return fields, nil
}

func buildMethods(methodDeclList *st.Node, resolve func(string) int) ([]*MethodEntry, error) {
	methods := make([]*MethodEntry, 0, len(methodDeclList.Children))
	for _, md := range methodDeclList.Children {
		returnTypeNode := md.Child(0)
		nameNode := md.Child(1)
		paramTypeNode := md.Child(2)
		paramIDNode := md.Child(3)
		localVarDeclList := md.Child(4)
		bodyExprList := md.Child(5)

		if nameNode == nil || nameNode.Kind != st.ID {
			return nil, internalError(md, "Build: method decl missing name")
		}
		if paramIDNode == nil || paramIDNode.Kind != st.ID {
			return nil, internalError(md, "Build: method decl missing parameter name")
		}
		if localVarDeclList == nil || localVarDeclList.Kind != st.VAR_DECL_LIST {
			return nil, internalError(md, "Build: method decl missing local VAR_DECL_LIST")
		}
		if bodyExprList == nil || bodyExprList.Kind != st.EXPR_LIST {
			return nil, internalError(md, "Build: method decl missing body EXPR_LIST")
		}

		returnType, returnTypeLine, returnTypeName, err := resolveDeclaredType(returnTypeNode, resolve)
		if err != nil {
			return nil, err
		}
		paramType, paramTypeLine, paramTypeName, err := resolveDeclaredType(paramTypeNode, resolve)
		if err != nil {
			return nil, err
		}
		locals, err := buildFields(localVarDeclList, resolve)
		if err != nil {
			return nil, err
		}

		methods = append(methods, &MethodEntry{
			MethodName:     nameNode.IDValue,
			MethodNameLine: nameNode.Line,
			ReturnType:     returnType,
			ReturnTypeLine: returnTypeLine,
			ReturnTypeName: returnTypeName,
			ParamName:      paramIDNode.IDValue,
			ParamNameLine:  paramIDNode.Line,
			ParamType:      paramType,
			ParamTypeLine:  paramTypeLine,
			ParamTypeName:  paramTypeName,
			IsFinal:        md.Kind == st.FINAL_METHOD_DECL,
			Locals:         locals,
			Body:           bodyExprList,
		})
	}
	return methods, nil
}
