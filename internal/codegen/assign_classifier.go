package codegen

import "github.com/cnxlang/cnxgen/internal/ast"

// AssignmentKind is the closed tagged enumeration naming the shape of
// emitted code for one assignment statement. The handler registry is
// a statically exhaustive switch over this type rather than a map, so
// the compiler enforces handler totality.
type AssignmentKind int

const (
	SIMPLE AssignmentKind = iota
	GLOBAL_MEMBER
	GLOBAL_ARRAY
	THIS_MEMBER
	THIS_ARRAY
	MEMBER_CHAIN
	GLOBAL_REGISTER_BIT
	GLOBAL_REGISTER_BIT_RANGE
	SCOPED_REGISTER_BIT
	SCOPED_REGISTER_BIT_RANGE
	REGISTER_MEMBER_BITMAP_FIELD
	SCOPED_REGISTER_MEMBER_BITMAP_FIELD
	BITMAP_FIELD_SINGLE_BIT
	BITMAP_FIELD_MULTI_BIT
	BITMAP_ARRAY_ELEMENT_FIELD
	STRUCT_MEMBER_BITMAP_FIELD
	INTEGER_BIT
	INTEGER_BIT_RANGE
	STRUCT_MEMBER_BIT
	ARRAY_ELEMENT_BIT
	STRUCT_CHAIN_BIT_RANGE
	ARRAY_ELEMENT
	MULTI_DIM_ARRAY_ELEMENT
	ARRAY_SLICE
	STRING_SIMPLE
	STRING_THIS_MEMBER
	STRING_GLOBAL
	STRING_STRUCT_FIELD
	STRING_ARRAY_ELEMENT
	STRING_STRUCT_ARRAY_ELEMENT
	ATOMIC_RMW
	OVERFLOW_CLAMP
)

// AssignmentContext captures everything the dispatch needs, computed
// once by Classify and threaded unchanged into the chosen handler.
type AssignmentContext struct {
	Node *ast.Node

	IdentPath  []string // left-to-right dotted names
	Subscripts []*ast.Node

	HasThis            bool
	HasGlobal           bool
	HasMemberAccess     bool
	HasArrayAccess      bool
	IsSimpleIdentifier  bool
	IsSimpleThisAccess  bool
	IsSimpleGlobalAccess bool

	MemberAccessDepth int
	SubscriptDepth    int

	SourceOp string
	COp      string

	RHSText string
	RHSNode *ast.Node

	ResolvedTargetName string
	ResolvedBaseIdent  string

	IsRangeSubscript bool
	RangeLo, RangeHi *ast.Node
	IsSliceForm      bool
}

var compoundToCOp = map[string]string{
	"<-": "=", "+<-": "+=", "-<-": "-=", "*<-": "*=",
}

// Classify inspects an assignment's target expression plus operator
// and produces exactly one AssignmentKind. The rules below run in
// priority order; the first match wins.
func (s *State) Classify(node *ast.Node) (AssignmentKind, AssignmentContext) {
	ctx := AssignmentContext{Node: node, SourceOp: node.Op, COp: compoundToCOp[node.Op], RHSNode: node.Y}
	lhs := node.X
	s.unwindTarget(lhs, &ctx)

	isCompound := node.Op != "<-"

	// Rule 1: bounded string destination.
	if s.isStringDestination(lhs) {
		return s.classifyStringKind(ctx), ctx
	}

	// Rule 2: atomic target with compound operator.
	if len(ctx.IdentPath) == 1 && isCompound {
		if ti, ok := s.LookupType(s.qualifyLocalName(ctx.IdentPath[0])); ok && ti.IsAtomic {
			return ATOMIC_RMW, ctx
		}
	}

	// Rule 3: overflow-clamp target.
	if len(ctx.IdentPath) >= 1 && isCompound && (node.Op == "+<-" || node.Op == "-<-" || node.Op == "*<-") {
		if ti, ok := s.lookupTargetType(ctx.IdentPath); ok && ti.OverflowBehavior == "clamp" && isIntegerType(ti.BaseType) {
			return OVERFLOW_CLAMP, ctx
		}
	}

	// Rule 4: range subscript — a slice when the base is an array
	// (rule 7), otherwise one of the bit-range forms.
	if ctx.IsRangeSubscript {
		if s.isArrayTarget(ctx) {
			ctx.IsSliceForm = true
			return ARRAY_SLICE, ctx
		}
		return s.classifyRangeSubscript(ctx), ctx
	}

	// Rule 5: single-bit subscript on a non-array integer (or the
	// trailing subscript beyond an array's declared dimensions).
	if s.isBitIndexTarget(ctx) {
		return s.classifyBitSubscript(ctx), ctx
	}

	// Rule 6: bitmap field selector.
	if kind, ok := s.classifyBitmapField(lhs, ctx); ok {
		return kind, ctx
	}

	// Rule 8: array element writes. (Rule 7, the slice form, is
	// subsumed by the range-subscript branch above.)
	if ctx.HasArrayAccess {
		if ctx.SubscriptDepth > 1 {
			return MULTI_DIM_ARRAY_ELEMENT, ctx
		}
		return ARRAY_ELEMENT, ctx
	}

	// Rule 9/10: this./global. member (array targets were taken by rule 8).
	if ctx.IsSimpleThisAccess {
		return THIS_MEMBER, ctx
	}
	if ctx.IsSimpleGlobalAccess {
		return GLOBAL_MEMBER, ctx
	}

	// Rule 11: multi-level member chain; a Scope.member target is also
	// routed here so the scope resolver can mangle and visibility-check
	// it.
	if ctx.MemberAccessDepth > 1 {
		return MEMBER_CHAIN, ctx
	}
	if ctx.MemberAccessDepth == 1 && len(ctx.IdentPath) >= 2 && s.Symbols.Scopes[ctx.IdentPath[0]] {
		return MEMBER_CHAIN, ctx
	}

	// Fallback.
	return SIMPLE, ctx
}

// unwindTarget walks the target expression, filling in the
// AssignmentContext's shape flags.
func (s *State) unwindTarget(node *ast.Node, ctx *AssignmentContext) {
	cur := node
	for {
		switch cur.Kind {
		case ast.NIdent:
			ctx.IdentPath = append([]string{cur.Name}, ctx.IdentPath...)
			ctx.IsSimpleIdentifier = len(ctx.IdentPath) == 1 && !ctx.HasMemberAccess && !ctx.HasArrayAccess
			ctx.ResolvedBaseIdent = cur.Name
			ctx.ResolvedTargetName = joinPath(ctx.IdentPath)
			return
		case ast.NThisExpr:
			ctx.HasThis = true
			ctx.IsSimpleThisAccess = len(ctx.IdentPath) == 1 && !ctx.HasArrayAccess
			ctx.ResolvedBaseIdent = "this"
			ctx.ResolvedTargetName = s.CurrentScope + "_" + joinPath(ctx.IdentPath)
			return
		case ast.NGlobalExpr:
			ctx.HasGlobal = true
			ctx.IsSimpleGlobalAccess = len(ctx.IdentPath) == 1 && !ctx.HasArrayAccess
			ctx.ResolvedBaseIdent = "global"
			ctx.ResolvedTargetName = joinPath(ctx.IdentPath)
			return
		case ast.NSelectorExpr:
			ctx.HasMemberAccess = true
			ctx.MemberAccessDepth++
			ctx.IdentPath = append([]string{cur.Name}, ctx.IdentPath...)
			cur = cur.X
		case ast.NIndexExpr:
			ctx.HasArrayAccess = true
			ctx.SubscriptDepth++
			ctx.Subscripts = append([]*ast.Node{cur.Y}, ctx.Subscripts...)
			cur = cur.X
		case ast.NRangeIndex:
			ctx.IsRangeSubscript = true
			ctx.RangeLo, ctx.RangeHi = cur.Y, cur.Z
			cur = cur.X
		default:
			return
		}
	}
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

func (s *State) lookupTargetType(path []string) (*TypeInfo, bool) {
	if len(path) == 0 {
		return nil, false
	}
	if ti, ok := s.LookupType(s.qualifyLocalName(path[0])); ok {
		return ti, true
	}
	return s.LookupType(path[0])
}

func (s *State) isStringDestination(lhs *ast.Node) bool {
	if lhs.Kind == ast.NSelectorExpr {
		switch lhs.X.Kind {
		case ast.NThisExpr:
			ti, ok := s.LookupType(s.CurrentScope + "." + lhs.Name)
			return ok && ti.IsString
		case ast.NGlobalExpr:
			ti, ok := s.LookupType(lhs.Name)
			return ok && ti.IsString
		default:
			structType := s.typeNameOfIdent(baseIdentName(lhs.X))
			if fields, ok := s.Symbols.StructFields[structType]; ok {
				ft, fok := fields[lhs.Name]
				return fok && ft.BaseType == "string"
			}
		}
	}
	base := baseIdentName(lhs)
	if base == "" {
		return false
	}
	if ti, ok := s.LookupType(s.qualifyLocalName(base)); ok && ti.IsString {
		return true
	}
	if ti, ok := s.LookupType(base); ok && ti.IsString {
		return true
	}
	return false
}

func baseIdentName(node *ast.Node) string {
	for node != nil {
		switch node.Kind {
		case ast.NIdent:
			return node.Name
		case ast.NSelectorExpr, ast.NIndexExpr, ast.NRangeIndex:
			node = node.X
		default:
			return ""
		}
	}
	return ""
}

func (s *State) classifyStringKind(ctx AssignmentContext) AssignmentKind {
	switch {
	case ctx.HasArrayAccess && ctx.HasMemberAccess:
		return STRING_STRUCT_ARRAY_ELEMENT
	case ctx.HasArrayAccess:
		return STRING_ARRAY_ELEMENT
	case ctx.HasMemberAccess && ctx.HasThis:
		return STRING_THIS_MEMBER
	case ctx.HasMemberAccess:
		return STRING_STRUCT_FIELD
	case ctx.HasGlobal:
		return STRING_GLOBAL
	default:
		return STRING_SIMPLE
	}
}

// isBitIndexTarget is true when the target's trailing subscript indexes
// a bit rather than an array element (the critical invariant: a
// subscript on a non-array integer is bit access). An array target is
// bit access only when the subscript count exceeds the declared
// dimensions — `arr[2][5]` on a one-dimensional array writes bit 5 of
// element 2.
func (s *State) isBitIndexTarget(ctx AssignmentContext) bool {
	n := len(ctx.Subscripts)
	if n == 0 {
		return false
	}
	if len(ctx.IdentPath) > 1 {
		if s.Symbols.Registers[ctx.IdentPath[0]] {
			return true
		}
		field := ctx.IdentPath[len(ctx.IdentPath)-1]
		// a bitmap field selector is never a bit index; rule 6 owns it
		if bt := s.bitmapTypeOfName(ctx.IdentPath[0]); bt != "" {
			if _, ok := s.Symbols.BitmapFields[bt][field]; ok {
				return false
			}
		}
		structType := s.typeNameOfIdent(ctx.IdentPath[0])
		if dims, ok := s.Symbols.StructArrayFields[structType][field]; ok {
			return n > len(dims)
		}
		return true
	}
	ti, ok := s.lookupTargetType(ctx.IdentPath)
	if !ok {
		return false
	}
	if ti.IsString {
		return false
	}
	if ti.IsArray {
		return n > len(ti.ArrayDimensions)
	}
	return isIntegerType(ti.BaseType)
}

// isArrayTarget reports whether the base identifier of the target
// resolves to an array, which turns a `[lo, hi]` subscript into the
// slice-assignment form rather than a bit range.
func (s *State) isArrayTarget(ctx AssignmentContext) bool {
	ti, ok := s.lookupTargetType(ctx.IdentPath)
	return ok && ti.IsArray
}

// a bare register member access, e.g. GPIO7.DR_SET[5], carries no
// this./global. qualifier at all — registers live at file scope, so
// the base identifier alone identifies the family.
func (s *State) identPathIsRegister(ctx AssignmentContext) bool {
	return len(ctx.IdentPath) > 1 && s.Symbols.Registers[ctx.IdentPath[0]]
}

func (s *State) classifyBitSubscript(ctx AssignmentContext) AssignmentKind {
	switch {
	case s.identPathIsRegister(ctx):
		if ctx.HasThis {
			return SCOPED_REGISTER_BIT
		}
		return GLOBAL_REGISTER_BIT
	case ctx.HasThis:
		// this.member[bit] — mangled-member RMW, register-less.
		return STRUCT_MEMBER_BIT
	case ctx.HasMemberAccess && len(ctx.IdentPath) > 1:
		return STRUCT_MEMBER_BIT
	case ctx.SubscriptDepth > 1:
		return ARRAY_ELEMENT_BIT
	default:
		return INTEGER_BIT
	}
}

func (s *State) classifyRangeSubscript(ctx AssignmentContext) AssignmentKind {
	switch {
	case s.identPathIsRegister(ctx):
		if ctx.HasThis {
			return SCOPED_REGISTER_BIT_RANGE
		}
		return GLOBAL_REGISTER_BIT_RANGE
	case ctx.MemberAccessDepth > 1:
		return STRUCT_CHAIN_BIT_RANGE
	default:
		return INTEGER_BIT_RANGE
	}
}

// classifyBitmapField detects an LHS selecting a bitmap field name and
// returns the single/multi-bit variant by field width.
func (s *State) classifyBitmapField(lhs *ast.Node, ctx AssignmentContext) (AssignmentKind, bool) {
	if lhs.Kind != ast.NSelectorExpr {
		return SIMPLE, false
	}
	bitmapType := s.bitmapTypeOf(lhs.X)
	if bitmapType == "" {
		return SIMPLE, false
	}
	field, ok := s.Symbols.BitmapFields[bitmapType][lhs.Name]
	if !ok {
		return SIMPLE, false
	}
	switch {
	case ctx.HasArrayAccess:
		return BITMAP_ARRAY_ELEMENT_FIELD, true
	case ctx.HasThis:
		return SCOPED_REGISTER_MEMBER_BITMAP_FIELD, true
	case lhs.X.Kind == ast.NSelectorExpr && s.Symbols.Registers[registerNameOf(lhs.X)]:
		return REGISTER_MEMBER_BITMAP_FIELD, true
	case ctx.HasMemberAccess && ctx.MemberAccessDepth > 1:
		return STRUCT_MEMBER_BITMAP_FIELD, true
	default:
		if field.BitWidth == 1 {
			return BITMAP_FIELD_SINGLE_BIT, true
		}
		return BITMAP_FIELD_MULTI_BIT, true
	}
}

func (s *State) bitmapTypeOf(node *ast.Node) string {
	name := baseIdentName(node)
	if name == "" {
		return ""
	}
	if ti, ok := s.LookupType(s.qualifyLocalName(name)); ok {
		return ti.BitmapTypeName
	}
	if ti, ok := s.LookupType(name); ok {
		return ti.BitmapTypeName
	}
	return ""
}

func registerNameOf(node *ast.Node) string {
	name := baseIdentName(node)
	return name
}
