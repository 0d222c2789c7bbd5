package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cnxlang/cnxgen/internal/ast"
)

// emitExprText mirrors the precedence layers of the source grammar,
// emitting C text for each node and flagging the prelude need-flags
// that node requires as it goes.
func (s *State) emitExprText(node *ast.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind {
	case ast.NIntLit:
		return s.emitIntLit(node)
	case ast.NFloatLit:
		return literalWithoutSuffix(node.Name)
	case ast.NStringLit:
		s.NeedsString = true
		return "\"" + node.Name + "\""
	case ast.NBoolLit:
		s.NeedsStdbool = true
		return node.Name
	case ast.NIdent:
		return s.emitIdentRef(node)
	case ast.NThisExpr:
		return "this"
	case ast.NGlobalExpr:
		return "global"
	case ast.NParenExpr:
		return "(" + s.emitExprText(node.X) + ")"
	case ast.NUnaryExpr:
		return node.Op + s.emitExprText(node.X)
	case ast.NBinaryExpr:
		return s.emitBinaryExpr(node)
	case ast.NTernary:
		s.validateTernaryShape(node)
		return fmt.Sprintf("(%s) ? (%s) : (%s)", s.emitExprText(node.X), s.emitExprText(node.Y), s.emitExprText(node.Z))
	case ast.NSelectorExpr:
		return s.emitSelectorExpr(node)
	case ast.NIndexExpr:
		return s.emitIndexExpr(node)
	case ast.NRangeIndex:
		return s.emitExprText(node.X) // range subscript has no standalone rvalue form
	case ast.NCallExpr:
		return s.emitCallExpr(node)
	case ast.NCastExpr:
		return s.emitCastExpr(node)
	case ast.NSizeofExpr:
		return s.emitSizeofExpr(node)
	}
	return ""
}

func literalWithoutSuffix(lit string) string {
	for _, suffix := range []string{"u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64", "f32", "f64"} {
		if strings.HasSuffix(lit, suffix) && len(lit) > len(suffix) {
			return strings.TrimSuffix(lit, suffix)
		}
	}
	return lit
}

// emitIntLit keeps hex literals in their source spelling (register
// addresses and masks read better in hex); binary literals have no
// portable C form and are rewritten as hex; decimal stays decimal.
func (s *State) emitIntLit(node *ast.Node) string {
	s.NeedsStdint = true
	base := literalWithoutSuffix(node.Name)
	if strings.HasPrefix(base, "0x") || strings.HasPrefix(base, "0X") {
		return base
	}
	if strings.HasPrefix(base, "0b") || strings.HasPrefix(base, "0B") {
		return fmt.Sprintf("0x%X", uint64(ast.ParseIntLiteral(base)))
	}
	return strconv.FormatInt(ast.ParseIntLiteral(base), 10)
}

func (s *State) emitIdentRef(node *ast.Node) string {
	name := node.Name
	if ti, ok := s.LookupType(s.qualifyLocalName(name)); ok {
		s.markNeedsForType(ti)
	} else if ti, ok := s.LookupType(name); ok {
		s.markNeedsForType(ti)
	}
	if s.CurrentScope != "" {
		_, isParam := s.CurrentParameters[name]
		_, isLocal := s.LocalVariables[name]
		if !isParam && !isLocal {
			s.validateScopeIdentifierAccess(node, name, true)
		}
	}
	return name
}

func (s *State) emitBinaryExpr(node *ast.Node) string {
	left := s.emitExprText(node.X)
	right := s.emitExprText(node.Y)
	if node.Op == "<<" || node.Op == ">>" {
		leftType := s.GetExpressionType(node.X)
		s.validateShiftAmount(node, typeWidth(leftType), node.Y)
	}
	if node.Op == "/" && !s.Caps.HasHardwareDivide {
		t := s.GetExpressionType(node.X)
		if isIntegerType(t) {
			s.UsedSafeDivOps[t] = true
			return fmt.Sprintf("cnx_safe_div_%s(%s, %s)", t, left, right)
		}
	}
	return fmt.Sprintf("%s %s %s", left, node.Op, right)
}

func (s *State) emitSelectorExpr(node *ast.Node) string {
	switch node.X.Kind {
	case ast.NThisExpr:
		return MangleScopeMember(s.CurrentScope, node.Name)
	case ast.NGlobalExpr:
		return node.Name
	case ast.NIdent:
		if s.Symbols.Enums[node.X.Name] {
			return node.X.Name + "_" + node.Name
		}
		if s.Symbols.Registers[node.X.Name] {
			return node.X.Name + "_" + node.Name
		}
		if s.Symbols.Scopes[node.X.Name] {
			return s.ResolveScopeAccess(node, node.X.Name, node.Name, false)
		}
		if bt := s.bitmapTypeOfName(node.X.Name); bt != "" {
			if desc, ok := s.Symbols.BitmapFields[bt][node.Name]; ok {
				return fmt.Sprintf("((%s >> %d) & %s)", node.X.Name, desc.BitOffset, maskLiteral(desc.BitWidth))
			}
		}
		return s.emitExprText(node.X) + "." + node.Name
	case ast.NSelectorExpr:
		if node.X.X != nil && node.X.X.Kind == ast.NGlobalExpr && s.Symbols.Scopes[node.X.Name] {
			return s.ResolveScopeAccess(node, node.X.Name, node.Name, true)
		}
		return s.emitExprText(node.X) + "." + node.Name
	}
	return s.emitExprText(node.X) + "." + node.Name
}

// emitIndexExpr distinguishes array indexing from bit indexing on a
// plain integer, emitting a shift-and-mask read for the latter.
func (s *State) emitIndexExpr(node *ast.Node) string {
	base := node.X
	baseText := s.emitExprText(base)
	idx := s.emitExprText(node.Y)
	if s.isArrayExpr(base) {
		return fmt.Sprintf("%s[%s]", baseText, idx)
	}
	baseType := s.GetExpressionType(base)
	if isFloatType(baseType) {
		return s.emitFloatBitShadowRead(baseText, idx)
	}
	if isIntegerType(baseType) {
		return fmt.Sprintf("((%s >> %s) & 1)", baseText, idx)
	}
	return fmt.Sprintf("%s[%s]", baseText, idx)
}

func (s *State) emitCallExpr(node *ast.Node) string {
	name := s.emitExprText(node.X)
	args := make([]string, len(node.Nodes))
	for i, a := range node.Nodes {
		args[i] = s.emitExprText(a)
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
}

// emitCastExpr inserts explicit casts at narrowing/sign boundaries,
// validating the conversion first.
func (s *State) emitCastExpr(node *ast.Node) string {
	fromType := s.GetExpressionType(node.X)
	s.validateTypeConversion(node, fromType, node.Name)
	if isFloatType(fromType) && isIntegerType(node.Name) {
		s.NeedsLimits = true
	}
	ctype := cTypeName(node.Name)
	inner := node.X
	if inner.Kind == ast.NParenExpr {
		inner = inner.X
	}
	return fmt.Sprintf("(%s)(%s)", ctype, s.emitExprText(inner))
}

// emitSizeofExpr handles the sizeof special cases: sizeof(Type) is
// straight C; sizeof(array-parameter) is E0601 (it would measure the
// pointer); expressions with side effects are E0602; pass-by-reference
// non-array parameters emit sizeof(*name).
func (s *State) emitSizeofExpr(node *ast.Node) string {
	arg := node.X
	if arg.Kind != ast.NIdent {
		if containsCall(arg) || containsAssignLike(arg) {
			s.errorf(E0602SizeofSideEffect, node, "sizeof argument must not have side effects (MISRA 13.6)")
		}
		return fmt.Sprintf("sizeof(%s)", s.emitExprText(arg))
	}
	name := arg.Name
	param, isParam := s.CurrentParameters[name]
	_, isLocal := s.LocalVariables[name]
	_, isScoped := s.LookupType(s.qualifyLocalName(name))
	_, isGlobal := s.LookupType(name)
	isVar := isParam || isLocal || isScoped || isGlobal
	isType := isLikelyCTypeName(name) || s.isStructType(name)
	ctx := SizeofContext{
		IsArrayParam:        isParam && param.IsArray,
		IsPassByRefNonArray: isParam && param.IsStruct && !param.IsArray,
		IsAmbiguousTypeOrVar: isVar && isType,
	}
	varText := ""
	if isParam {
		varText = name
	}
	typeText := cTypeName(name)
	return s.ResolveSizeof(node, ctx, typeText, varText)
}

func containsAssignLike(node *ast.Node) bool {
	if node == nil {
		return false
	}
	if node.Kind == ast.NAssign {
		return true
	}
	return containsAssignLike(node.X) || containsAssignLike(node.Y)
}

func isLikelyCTypeName(name string) bool {
	return isIntegerType(name) || isFloatType(name) || name == "bool"
}

func cTypeName(name string) string {
	switch name {
	case "u8":
		return "uint8_t"
	case "u16":
		return "uint16_t"
	case "u32":
		return "uint32_t"
	case "u64":
		return "uint64_t"
	case "i8":
		return "int8_t"
	case "i16":
		return "int16_t"
	case "i32":
		return "int32_t"
	case "i64":
		return "int64_t"
	case "f32":
		return "float"
	case "f64":
		return "double"
	case "bool":
		return "bool"
	case "void":
		return "void"
	default:
		return name
	}
}

// emitFloatBitShadowRead rewrites a subscripted float into a bit-shadow
// read through a type-punning union, per the "Bit shadow (float)"
// glossary entry. C++ uses static_assert, C uses _Static_assert.
func (s *State) emitFloatBitShadowRead(varName string, bitIndex string) string {
	shadow := varName + "_bits"
	s.FloatBitShadows[shadow] = true
	s.NeedsStdint = true
	return fmt.Sprintf("((((union { float f; uint32_t u; }){.f = %s}).u >> %s) & 1)", varName, bitIndex)
}
