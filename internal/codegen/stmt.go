package codegen

import (
	"fmt"
	"strings"

	"github.com/cnxlang/cnxgen/internal/ast"
	"github.com/cnxlang/cnxgen/internal/symbols"
)

// Options is the caller-facing configuration for one generation run.
type Options struct {
	SourcePath         string
	CPPMode            bool
	TargetCapabilities TargetCapabilities
}

// Result is the core's output: a complete translation unit plus its
// structured diagnostics.
type Result struct {
	Code        string
	Diagnostics []Diagnostic
}

// Generate drives the whole run: the statement emitter walks
// top-level declarations in source order, threading the state
// lifecycle, and the include aggregator prepends the required
// prelude only after the full walk completes.
func Generate(file *ast.Node, ts *ast.TokenStream, si *symbols.SymbolInfo, opts Options) Result {
	mode := ModeC
	if opts.CPPMode {
		mode = ModeCPP
	}
	s := New(si, mode, opts.TargetCapabilities, opts.SourcePath)

	var body strings.Builder
	for _, decl := range file.Nodes {
		s.emitTopDecl(&body, decl)
	}

	prelude := s.buildPrelude()
	code := prelude + body.String()
	return Result{Code: code, Diagnostics: s.Diagnostics}
}

func (s *State) emitTopDecl(out *strings.Builder, decl *ast.Node) {
	switch decl.Kind {
	case ast.NStructDecl, ast.NEnumDecl, ast.NBitmapDecl, ast.NRegisterDecl:
		// These contribute only to the symbol/type universe; their C
		// declarations are emitted by IncludeAggregator's typedef
		// section once all needs are known.
	case ast.NVarDecl:
		out.WriteString(s.emitVarDecl(decl, ""))
		out.WriteString("\n")
	case ast.NFuncDecl:
		out.WriteString(s.emitFuncDecl(decl))
		out.WriteString("\n")
	case ast.NScopeDecl:
		s.EnterScope(decl.Name)
		for _, member := range decl.Nodes {
			if member.Kind == ast.NFuncDecl {
				out.WriteString(s.emitFuncDecl(member))
			} else {
				out.WriteString(s.emitVarDecl(member, decl.Name))
			}
			out.WriteString("\n")
		}
		s.LeaveScope()
	}
}

func (s *State) typeInfoFromNode(typeNode *ast.Node) *TypeInfo {
	ti := &TypeInfo{BaseType: typeNode.Name, OverflowBehavior: "none"}
	if isIntegerType(typeNode.Name) {
		ti.BitWidth = typeWidth(typeNode.Name)
	}
	if typeNode.Name == "string" {
		ti.IsString = true
		if typeNode.X != nil {
			ti.StringCapacity = int(ast.ParseIntLiteral(typeNode.X.Name))
		}
	}
	if typeNode.AccessMode == "clamp" {
		ti.OverflowBehavior = "clamp"
	}
	if typeNode.AccessMode == "atomic" {
		ti.IsAtomic = true
	}
	if s.Symbols.Enums[typeNode.Name] {
		ti.IsEnum = true
		ti.EnumTypeName = typeNode.Name
	}
	if s.Symbols.Bitmaps[typeNode.Name] {
		ti.BitmapTypeName = typeNode.Name
		ti.BaseType = s.Symbols.BitmapBaseType[typeNode.Name]
		ti.BitWidth = s.Symbols.BitmapWidth[typeNode.Name]
	}
	if len(typeNode.Nodes) > 0 {
		ti.IsArray = true
		for _, d := range typeNode.Nodes {
			ti.ArrayDimensions = append(ti.ArrayDimensions, int(ast.ParseIntLiteral(d.Name)))
		}
	}
	return ti
}

func (s *State) emitVarDecl(decl *ast.Node, scope string) string {
	ti := s.typeInfoFromNode(decl.Type)
	ti.IsConst = decl.IsConst
	qualified := decl.Name
	if scope != "" {
		qualified = scope + "." + decl.Name
	}
	s.RegisterType(qualified, ti)
	if decl.X != nil && decl.X.Kind == ast.NIntLit {
		s.validateLiteralFitsType(decl, decl.X.Name, ti.BaseType)
	}

	if s.CurrentFunctionName != "" {
		s.LocalVariables[decl.Name] = ti
		if ti.IsArray {
			s.LocalArrays[decl.Name] = true
		}
	}

	cName := decl.Name
	if scope != "" {
		cName = MangleScopeMember(scope, decl.Name)
	}
	ctype := cTypeName(ti.BaseType)
	storage := ""
	if scope != "" {
		if vis, ok := s.Symbols.ScopeMembers[scope][decl.Name]; ok && vis == symbols.Private {
			storage = "static "
		}
	}
	if ti.IsConst {
		storage += "const "
	}
	decl2 := fmt.Sprintf("%s%s %s", storage, ctype, cName)
	if ti.IsString {
		decl2 = fmt.Sprintf("%schar %s", storage, cName)
		for _, d := range ti.ArrayDimensions {
			decl2 += fmt.Sprintf("[%d]", d)
		}
		decl2 += fmt.Sprintf("[%d]", ti.StringCapacity+1)
	} else if ti.IsArray {
		for _, d := range ti.ArrayDimensions {
			decl2 += fmt.Sprintf("[%d]", d)
		}
	}
	if decl.X == nil {
		return decl2 + ";"
	}
	if ti.IsString && decl.X.Kind == ast.NStringLit {
		s.NeedsString = true
		return fmt.Sprintf("%s;\nstrncpy(%s, \"%s\", %d); %s[%d] = '\\0';", decl2, cName, decl.X.Name, ti.StringCapacity, cName, ti.StringCapacity)
	}
	return fmt.Sprintf("%s = %s;", decl2, s.emitExprText(decl.X))
}

func (s *State) emitFuncDecl(decl *ast.Node) string {
	params := map[string]ParameterInfo{}
	var paramTexts []string
	for _, p := range decl.Nodes {
		pi := ParameterInfo{IsConst: p.IsConst, BaseType: p.Type.Name}
		pi.IsArray = len(p.Type.Nodes) > 0
		pi.IsString = p.Type.Name == "string"
		pi.IsStruct = s.isStructType(p.Type.Name)
		params[p.Name] = pi
		prefix := ""
		if p.IsConst {
			prefix = "const "
		}
		text := fmt.Sprintf("%s%s %s", prefix, cTypeName(p.Type.Name), p.Name)
		for _, d := range p.Type.Nodes {
			text += fmt.Sprintf("[%d]", ast.ParseIntLiteral(d.Name))
		}
		paramTexts = append(paramTexts, text)
	}
	funcName := decl.Name
	if s.CurrentScope != "" {
		funcName = MangleScopeMember(s.CurrentScope, decl.Name)
	}
	if decl.Name == "main" {
		funcName = "main"
	}
	if len(paramTexts) == 0 {
		paramTexts = []string{"void"}
	}
	s.PushParameterFrame(decl.Name, params)
	retType := "void"
	if decl.Type != nil {
		retType = cTypeName(decl.Type.Name)
	}
	if decl.Name == "main" {
		retType = "int"
	}
	storage := ""
	if s.CurrentScope != "" && decl.Name != "main" {
		if vis, ok := s.Symbols.ScopeMembers[s.CurrentScope][decl.Name]; ok && vis == symbols.Private {
			storage = "static "
		}
	}
	var body strings.Builder
	s.emitBlock(&body, decl.Body, 1)
	s.PopParameterFrame()
	return fmt.Sprintf("%s%s %s(%s) {\n%s}", storage, retType, funcName, strings.Join(paramTexts, ", "), body.String())
}

func indent(n int) string { return strings.Repeat("    ", n) }

func (s *State) emitBlock(out *strings.Builder, block *ast.Node, depth int) {
	if block == nil {
		return
	}
	for _, stmt := range block.Nodes {
		s.emitStmt(out, stmt, depth)
	}
}

func (s *State) emitStmt(out *strings.Builder, stmt *ast.Node, depth int) {
	switch stmt.Kind {
	case ast.NVarDecl:
		out.WriteString(indent(depth))
		out.WriteString(s.emitVarDecl(stmt, ""))
		out.WriteString("\n")
	case ast.NAssign:
		text := s.emitAssign(stmt)
		// temporaries pushed during classification/handling surface at
		// the statement boundary, above the statement that needed them.
		for _, d := range s.DrainTempDecls() {
			out.WriteString(indent(depth))
			out.WriteString(d)
			out.WriteString("\n")
		}
		out.WriteString(indent(depth))
		out.WriteString(text)
		out.WriteString("\n")
	case ast.NExprStmt:
		out.WriteString(indent(depth))
		out.WriteString(s.emitExprText(stmt.X))
		out.WriteString(";\n")
	case ast.NReturn:
		out.WriteString(indent(depth))
		if stmt.X != nil {
			out.WriteString("return " + s.emitExprText(stmt.X) + ";\n")
		} else {
			out.WriteString("return;\n")
		}
	case ast.NBreak:
		out.WriteString(indent(depth) + "break;\n")
	case ast.NContinue:
		out.WriteString(indent(depth) + "continue;\n")
	case ast.NIf:
		s.validateConditionShape(stmt.X, "if")
		out.WriteString(indent(depth) + "if (" + s.emitExprText(stmt.X) + ") {\n")
		s.emitBlock(out, stmt.Body, depth+1)
		out.WriteString(indent(depth) + "}")
		if stmt.Else != nil {
			out.WriteString(" else ")
			if stmt.Else.Kind == ast.NIf {
				out.WriteString(strings.TrimLeft(s.renderElseIf(stmt.Else, depth), " "))
			} else {
				out.WriteString("{\n")
				s.emitBlock(out, stmt.Else, depth+1)
				out.WriteString(indent(depth) + "}\n")
			}
		} else {
			out.WriteString("\n")
		}
	case ast.NWhile:
		s.validateConditionShape(stmt.X, "while")
		out.WriteString(indent(depth) + "while (" + s.emitExprText(stmt.X) + ") {\n")
		s.emitBlock(out, stmt.Body, depth+1)
		out.WriteString(indent(depth) + "}\n")
	case ast.NDoWhile:
		s.validateConditionShape(stmt.X, "do-while")
		out.WriteString(indent(depth) + "do {\n")
		s.emitBlock(out, stmt.Body, depth+1)
		out.WriteString(indent(depth) + "} while (" + s.emitExprText(stmt.X) + ");\n")
	case ast.NFor:
		out.WriteString(indent(depth) + "for (")
		if stmt.Nodes[0] != nil {
			out.WriteString(strings.TrimSuffix(s.emitVarDecl(stmt.Nodes[0], ""), ";"))
		}
		out.WriteString("; ")
		if stmt.X != nil {
			out.WriteString(s.emitExprText(stmt.X))
		}
		out.WriteString("; ")
		if post := stmt.Nodes[1]; post != nil {
			if post.Kind == ast.NAssign {
				out.WriteString(strings.TrimSuffix(s.emitAssign(post), ";"))
			} else {
				out.WriteString(s.emitExprText(post.X))
			}
		}
		out.WriteString(") {\n")
		s.emitBlock(out, stmt.Body, depth+1)
		out.WriteString(indent(depth) + "}\n")
	case ast.NSwitch:
		s.emitSwitch(out, stmt, depth)
	case ast.NCritical:
		s.validateCriticalExit(stmt.Body)
		s.NeedsCMSIS = true
		out.WriteString(indent(depth) + "{\n")
		out.WriteString(indent(depth+1) + "__disable_irq();\n")
		s.emitBlock(out, stmt.Body, depth+1)
		out.WriteString(indent(depth+1) + "__enable_irq();\n")
		out.WriteString(indent(depth) + "}\n")
	case ast.NBlock:
		out.WriteString(indent(depth) + "{\n")
		s.emitBlock(out, stmt, depth+1)
		out.WriteString(indent(depth) + "}\n")
	}
}

func (s *State) renderElseIf(stmt *ast.Node, depth int) string {
	var b strings.Builder
	s.emitStmt(&b, stmt, depth)
	return b.String()
}

func (s *State) emitSwitch(out *strings.Builder, stmt *ast.Node, depth int) {
	s.validateSwitch(stmt)
	enumName := s.ResolveEnumType(stmt.X)
	out.WriteString(indent(depth) + "switch (" + s.emitExprText(stmt.X) + ") {\n")
	for _, c := range stmt.Nodes {
		if c.Name == "default" {
			out.WriteString(indent(depth) + "default:\n")
		} else {
			for _, label := range c.Nodes {
				out.WriteString(indent(depth) + "case " + s.emitCaseLabel(label, enumName) + ":\n")
			}
		}
		s.emitBlock(out, c.Body, depth+1)
		out.WriteString(indent(depth+1) + "break;\n")
	}
	out.WriteString(indent(depth) + "}\n")
}

// emitCaseLabel resolves a bare variant name against the switch
// subject's enum so `case IDLE:` reaches the mangled C constant.
func (s *State) emitCaseLabel(label *ast.Node, enumName string) string {
	if enumName != "" && label.Kind == ast.NIdent {
		if _, ok := s.Symbols.EnumValues[enumName][label.Name]; ok {
			return enumName + "_" + label.Name
		}
	}
	return s.emitExprText(label)
}

// emitAssign runs the full per-statement state machine: classify ->
// validate-rule-preconditions -> resolve-target -> build-statement ->
// register-needs. The RHS is emitted through the expression emitter
// after classification so handlers only ever see already-resolved
// text.
func (s *State) emitAssign(stmt *ast.Node) string {
	kind, ctx := s.Classify(stmt)
	ctx.RHSText = s.emitExprText(stmt.Y)
	return s.Dispatch(kind, ctx)
}
