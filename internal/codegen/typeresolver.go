package codegen

import (
	"strings"

	"github.com/cnxlang/cnxgen/internal/ast"
)

var integerWidths = map[string]int{
	"u8": 8, "u16": 16, "u32": 32, "u64": 64,
	"i8": 8, "i16": 16, "i32": 32, "i64": 64,
}

var unsignedTypes = map[string]bool{"u8": true, "u16": true, "u32": true, "u64": true}
var signedTypes = map[string]bool{"i8": true, "i16": true, "i32": true, "i64": true}
var floatTypes = map[string]bool{"f32": true, "f64": true}

// isIntegerType / isFloatType / isSignedType / isUnsignedType are
// closed-set pure queries over the primitive type names.
func isIntegerType(name string) bool {
	_, ok := integerWidths[name]
	return ok
}

func isFloatType(name string) bool {
	return floatTypes[name]
}

func isSignedType(name string) bool {
	return signedTypes[name]
}

func isUnsignedType(name string) bool {
	return unsignedTypes[name]
}

func typeWidth(name string) int {
	return integerWidths[name]
}

// isStructType is true iff the symbol table has at least one field
// registered under name.
func (s *State) isStructType(name string) bool {
	_, ok := s.Symbols.StructFields[name]
	return ok && len(s.Symbols.StructFields[name]) > 0
}

// isNarrowingConversion is true iff both sides are known integer
// types and the destination is strictly narrower.
func isNarrowingConversion(from, to string) bool {
	if !isIntegerType(from) || !isIntegerType(to) {
		return false
	}
	return typeWidth(to) < typeWidth(from)
}

// isSignConversion is true iff both sides are integer types with
// differing signedness.
func isSignConversion(from, to string) bool {
	if !isIntegerType(from) || !isIntegerType(to) {
		return false
	}
	return isSignedType(from) != isSignedType(to)
}

// validateTypeConversion raises narrowing/sign-change diagnostics;
// no-op when `from` is absent, types are equal, or either side is
// non-integer.
func (s *State) validateTypeConversion(node *ast.Node, from, to string) {
	if from == "" || from == to {
		return
	}
	if !isIntegerType(from) || !isIntegerType(to) {
		return
	}
	if isNarrowingConversion(from, to) {
		s.errorf(E0501Narrowing, node, "narrowing conversion from %s to %s", from, to)
	}
	if isSignConversion(from, to) {
		s.errorf(E0502SignChange, node, "sign-changing conversion from %s to %s", from, to)
	}
}

// validateLiteralFitsType parses a literal (decimal, hex, binary,
// signed) and asserts it lies within the type's closed range.
// Non-integer literals and unknown target types are no-ops.
func (s *State) validateLiteralFitsType(node *ast.Node, literal string, typeName string) {
	if !isIntegerType(typeName) {
		return
	}
	if !looksLikeIntLiteral(literal) {
		return
	}
	v := ast.ParseIntLiteral(literal)
	w := typeWidth(typeName)
	if isUnsignedType(typeName) {
		if v < 0 {
			s.errorf(E0506NegativeToUnsigned, node, "negative literal %s assigned to unsigned type %s", literal, typeName)
			return
		}
		max := uint64(1)<<uint(w) - 1
		if uint64(v) > max {
			s.errorf(E0505LiteralRange, node, "literal %s does not fit in %s (max %d)", literal, typeName, max)
		}
		return
	}
	min := -(int64(1) << uint(w-1))
	max := int64(1)<<uint(w-1) - 1
	if v < min || v > max {
		s.errorf(E0505LiteralRange, node, "literal %s does not fit in %s (range %d..%d)", literal, typeName, min, max)
	}
}

func looksLikeIntLiteral(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' {
		i = 1
	}
	if i >= len(s) {
		return false
	}
	for ; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if c == 'x' || c == 'X' || c == 'b' || c == 'B' || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			continue
		}
		return false
	}
	return true
}

// GetExpressionType computes the result type of an arbitrary
// expression subtree, walking down through the precedence layers
// until it bottoms out in a primary expression.
func (s *State) GetExpressionType(node *ast.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind {
	case ast.NBinaryExpr:
		switch node.Op {
		case "&&", "||", "==", "!=", "<", ">", "<=", ">=":
			return "bool"
		default:
			lt := s.GetExpressionType(node.X)
			if lt != "" {
				return lt
			}
			return s.GetExpressionType(node.Y)
		}
	case ast.NUnaryExpr:
		if node.Op == "!" {
			return "bool"
		}
		return s.GetExpressionType(node.X)
	case ast.NTernary:
		return s.GetExpressionType(node.Y)
	case ast.NParenExpr:
		return s.GetExpressionType(node.X)
	case ast.NCastExpr:
		return node.Name
	case ast.NBoolLit:
		return "bool"
	case ast.NIntLit:
		return inferLiteralSuffixType(node.Name)
	case ast.NFloatLit:
		return inferLiteralSuffixType(node.Name)
	case ast.NStringLit:
		return "string"
	case ast.NIdent:
		if ti, ok := s.LookupType(s.qualifyLocalName(node.Name)); ok {
			return ti.BaseType
		}
		if ti, ok := s.LookupType(node.Name); ok {
			return ti.BaseType
		}
		return ""
	case ast.NSelectorExpr, ast.NThisExpr, ast.NGlobalExpr:
		return s.getPostfixExpressionType(node)
	case ast.NIndexExpr:
		return s.getPostfixExpressionType(node)
	case ast.NRangeIndex:
		return ""
	case ast.NCallExpr:
		return s.resolveCallReturnType(node)
	}
	return ""
}

func (s *State) qualifyLocalName(name string) string {
	if s.CurrentScope != "" {
		return s.CurrentScope + "." + name
	}
	return name
}

func inferLiteralSuffixType(lit string) string {
	for _, suffix := range []string{"u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64", "f32", "f64"} {
		if strings.HasSuffix(lit, suffix) && len(lit) > len(suffix) {
			return suffix
		}
	}
	if strings.Contains(lit, ".") {
		return "f64"
	}
	return "i32"
}

func (s *State) resolveCallReturnType(node *ast.Node) string {
	name := callExprName(node.X)
	if rt, ok := s.Symbols.FunctionReturnType[name]; ok {
		return rt
	}
	if s.CurrentScope != "" {
		if rt, ok := s.Symbols.FunctionReturnType[s.CurrentScope+"."+name]; ok {
			return rt
		}
	}
	return ""
}

func callExprName(node *ast.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind {
	case ast.NIdent:
		return node.Name
	case ast.NSelectorExpr:
		return callExprName(node.X) + "." + node.Name
	}
	return ""
}

// getPostfixExpressionType: subscripting an array yields the element
// type; subscripting a plain integer variable yields bool (bit
// indexing, not array access); the range-subscript form is excluded
// from inference entirely.
func (s *State) getPostfixExpressionType(node *ast.Node) string {
	switch node.Kind {
	case ast.NRangeIndex:
		return ""
	case ast.NIndexExpr:
		baseType := s.GetExpressionType(node.X)
		if s.isArrayExpr(node.X) {
			return s.arrayElementType(node.X)
		}
		if isIntegerType(baseType) {
			return "bool"
		}
		return baseType
	case ast.NSelectorExpr:
		baseName := ""
		switch node.X.Kind {
		case ast.NThisExpr:
			if fields, ok := s.Symbols.StructFields[s.CurrentScope]; ok {
				if ft, ok := fields[node.Name]; ok {
					return ft.BaseType
				}
			}
			if ti, ok := s.LookupType(s.CurrentScope + "." + node.Name); ok {
				return ti.BaseType
			}
			return ""
		case ast.NGlobalExpr:
			if ti, ok := s.LookupType(node.Name); ok {
				return ti.BaseType
			}
			return ""
		case ast.NIdent:
			baseName = node.X.Name
		default:
			return ""
		}
		structTypeName := s.typeNameOfIdent(baseName)
		if fields, ok := s.Symbols.StructFields[structTypeName]; ok {
			if ft, ok := fields[node.Name]; ok {
				return ft.BaseType
			}
		}
		return ""
	case ast.NThisExpr, ast.NGlobalExpr:
		return ""
	}
	return ""
}

func (s *State) typeNameOfIdent(name string) string {
	if ti, ok := s.LookupType(s.qualifyLocalName(name)); ok {
		if ti.BaseType != "" {
			return ti.BaseType
		}
	}
	if ti, ok := s.LookupType(name); ok {
		return ti.BaseType
	}
	return ""
}

func (s *State) isArrayExpr(node *ast.Node) bool {
	if node.Kind != ast.NIdent {
		return false
	}
	if ti, ok := s.LookupType(s.qualifyLocalName(node.Name)); ok {
		return ti.IsArray
	}
	if ti, ok := s.LookupType(node.Name); ok {
		return ti.IsArray
	}
	return false
}

func (s *State) arrayElementType(node *ast.Node) string {
	if ti, ok := s.LookupType(s.qualifyLocalName(node.Name)); ok {
		return ti.BaseType
	}
	if ti, ok := s.LookupType(node.Name); ok {
		return ti.BaseType
	}
	return ""
}
