package codegen

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/cnxlang/cnxgen/internal/ast"
)

var implementationExts = map[string]bool{
	".c": true, ".cc": true, ".cpp": true, ".cxx": true, ".c++": true,
}

// validateIncludePath rejects including an implementation file
// outright, and rejects a C header that has a resolvable
// source-language sibling.
func (s *State) validateIncludePath(node *ast.Node, includePath string, hasSourceAlternative bool) {
	if includePath == "" {
		return // malformed directives are ignored
	}
	ext := strings.ToLower(filepath.Ext(includePath))
	if implementationExts[ext] {
		s.errorf(E0503ImplInclude, node, "cannot include implementation file %q", includePath)
		return
	}
	if hasSourceAlternative {
		s.errorf(E0504SourceAltInclude, node, "including %q shadows a source-language alternative at the same path", includePath)
	}
}

// validateSwitch implements MISRA 16.6/16.7 shape checks plus
// enum-exhaustiveness, including the default(N) residual-count form.
func (s *State) validateSwitch(node *ast.Node) {
	subjectType := s.GetExpressionType(node.X)
	if subjectType == "bool" {
		s.errorf(E0701SwitchShape, node, "switch on bool is not permitted (MISRA 16.7)")
	}
	if len(node.Nodes) < 2 {
		s.errorf(E0701SwitchShape, node, "switch must have at least two clauses (MISRA 16.6)")
	}

	seenLabels := map[string]bool{}
	var hasDefault bool
	var defaultN = -1
	explicitCount := 0
	for _, c := range node.Nodes {
		if c.Name == "default" {
			hasDefault = true
			if c.X != nil {
				defaultN = int(ast.ParseIntLiteral(c.X.Name))
			}
			continue
		}
		for _, label := range c.Nodes {
			norm := normalizeCaseLabel(label)
			if seenLabels[norm] {
				s.errorf(E0701SwitchShape, node, "duplicate case value %s", norm)
			}
			seenLabels[norm] = true
			explicitCount++
		}
	}

	enumName := s.enumTypeOfExpr(node.X)
	if enumName == "" {
		return
	}
	// The covered-variant set is an explicit bitset so the residual
	// count for default(N) falls out of the complement rather than
	// ad-hoc counter arithmetic.
	variants := s.Symbols.EnumVariants[enumName]
	total := len(variants)
	coveredSet := bitset.New(uint(total))
	for i, v := range variants {
		val := s.Symbols.EnumValues[enumName][v]
		if seenLabels[normalizeIntValue(val)] || seenLabels[v] {
			coveredSet.Set(uint(i))
		}
	}
	covered := int(coveredSet.Count())
	missing := total - covered
	switch {
	case missing == 0:
		return
	case hasDefault && defaultN < 0:
		return
	case hasDefault && defaultN == missing:
		return
	default:
		s.errorf(E0701SwitchShape, node, "Non-exhaustive switch on %s covers %d of %d variants, missing %d", enumName, covered, total, missing)
	}
}

func normalizeCaseLabel(label *ast.Node) string {
	switch label.Kind {
	case ast.NIntLit:
		return normalizeIntValue(ast.ParseIntLiteral(label.Name))
	case ast.NSelectorExpr:
		return label.Name
	case ast.NIdent:
		return label.Name
	}
	return label.Name
}

func normalizeIntValue(v int64) string {
	return sortableInt(v)
}

func sortableInt(v int64) string {
	neg := v < 0
	digits := []byte{}
	if v == 0 {
		digits = []byte{'0'}
	}
	u := v
	if neg {
		u = -u
	}
	for u > 0 {
		digits = append([]byte{byte('0' + u%10)}, digits...)
		u /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func (s *State) enumTypeOfExpr(node *ast.Node) string {
	return s.ResolveEnumType(node)
}

// validateConditionShape enforces the boolean-condition shape rule for
// ternary/if/while/do-while conditions, and the MISRA 13.5
// no-function-call-in-condition rule.
func (s *State) validateConditionShape(node *ast.Node, context string) {
	if containsCall(node) {
		s.errorf(E0702CallInCondition, node, "function call not permitted in %s condition (MISRA 13.5)", context)
	}
	if !s.isBooleanExpression(node) {
		s.errorf(E0701SwitchShape, node, "%s condition must be a boolean expression", context)
	}
}

func containsCall(node *ast.Node) bool {
	if node == nil {
		return false
	}
	if node.Kind == ast.NCallExpr {
		return true
	}
	if containsCall(node.X) || containsCall(node.Y) || containsCall(node.Z) {
		return true
	}
	for _, n := range node.Nodes {
		if containsCall(n) {
			return true
		}
	}
	return false
}

func (s *State) isBooleanExpression(node *ast.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind {
	case ast.NBinaryExpr:
		switch node.Op {
		case "||", "&&", "==", "!=", "<", ">", "<=", ">=":
			return true
		}
		return false
	case ast.NUnaryExpr:
		return node.Op == "!"
	case ast.NBoolLit:
		return true
	case ast.NParenExpr:
		return s.isBooleanExpression(node.X)
	case ast.NIdent:
		return s.GetExpressionType(node) == "bool"
	default:
		return s.GetExpressionType(node) == "bool"
	}
}

// validateTernaryShape rejects a nested ternary in either branch,
// looking through parentheses.
func (s *State) validateTernaryShape(node *ast.Node) {
	s.validateConditionShape(node.X, "ternary")
	if n := unparen(node.Y); n != nil && n.Kind == ast.NTernary {
		s.errorf(E0703NestedTernary, node, "nested ternary expression is not permitted")
	}
	if n := unparen(node.Z); n != nil && n.Kind == ast.NTernary {
		s.errorf(E0703NestedTernary, node, "nested ternary expression is not permitted")
	}
}

func unparen(n *ast.Node) *ast.Node {
	for n != nil && n.Kind == ast.NParenExpr {
		n = n.X
	}
	return n
}

// validateShiftAmount enforces 0 <= shift < width for constant shift
// amounts; negative shifts are always rejected.
func (s *State) validateShiftAmount(node *ast.Node, leftWidth int, rhs *ast.Node) {
	if rhs.Kind != ast.NIntLit {
		return
	}
	v := ast.ParseIntLiteral(rhs.Name)
	if v < 0 {
		s.errorf(E0704ShiftBounds, node, "shift amount %d is negative", v)
		return
	}
	if v >= int64(leftWidth) {
		s.errorf(E0704ShiftBounds, node, "shift amount %d exceeds width %d", v, leftWidth)
	}
}

// validateBitmapFieldWrite requires a literal RHS to fit the field's
// bit width; a non-literal RHS is not range-checked here.
func (s *State) validateBitmapFieldWrite(node *ast.Node, width int, rhs *ast.Node) {
	if rhs.Kind != ast.NIntLit {
		return
	}
	v := ast.ParseIntLiteral(rhs.Name)
	max := int64(1)<<uint(width) - 1
	if v < 0 || v > max {
		s.errorf(E0705BitmapFieldWidth, node, "value %d does not fit bitmap field of width %d", v, width)
	}
}

// validateArrayBounds checks each dimension's constant index against
// its declared size; dim==0 means unsized (skip upper bound).
func (s *State) validateArrayBounds(node *ast.Node, dims []int, indices []*ast.Node) {
	for i, idx := range indices {
		if i >= len(dims) {
			return
		}
		if idx.Kind != ast.NIntLit {
			continue
		}
		v := ast.ParseIntLiteral(idx.Name)
		dim := dims[i]
		if v < 0 {
			s.errorf(E0706ArrayBounds, node, "array index %d is negative", v)
			continue
		}
		if dim != 0 && v >= int64(dim) {
			s.errorf(E0706ArrayBounds, node, "array index %d out of bounds for dimension of size %d", v, dim)
		}
	}
}

// CallbackSignature is the structural shape a function or callback
// target must match for an assignment to be valid.
type CallbackSignature struct {
	ReturnType string
	Params     []CallbackParam
}

type CallbackParam struct {
	Type     string
	IsConst  bool
	IsPointer bool
	IsArray  bool
}

func (sig CallbackSignature) equals(other CallbackSignature) bool {
	if sig.ReturnType != other.ReturnType || len(sig.Params) != len(other.Params) {
		return false
	}
	for i := range sig.Params {
		if sig.Params[i] != other.Params[i] {
			return false
		}
	}
	return true
}

// validateCallbackAssignment enforces structural equality plus a
// caller-supplied nominal-typing predicate.
func (s *State) validateCallbackAssignment(node *ast.Node, target, value CallbackSignature, isUsedAsFieldType func() bool) {
	if !target.equals(value) {
		s.errorf(E0707CallbackSignature, node, "callback signature mismatch: expected %+v, got %+v", target, value)
		return
	}
	if isUsedAsFieldType != nil && !isUsedAsFieldType() {
		s.errorf(E0707CallbackSignature, node, "function name is not declared as a callback field type")
	}
}

// validateCriticalExit is E0853: any return statement at any nested
// depth through if/while/for/do-while/switch/block inside a critical
// section.
func (s *State) validateCriticalExit(body *ast.Node) {
	var walk func(n *ast.Node)
	walk = func(n *ast.Node) {
		if n == nil {
			return
		}
		if n.Kind == ast.NReturn {
			s.errorf(E0853CriticalExit, n, "return is not permitted inside a critical section")
		}
		for _, c := range n.Nodes {
			walk(c)
		}
		walk(n.X)
		walk(n.Y)
		walk(n.Z)
		walk(n.Body)
		walk(n.Else)
	}
	walk(body)
}

// validateConstTarget rejects writes through a const variable or
// const parameter.
func (s *State) validateConstTarget(node *ast.Node, name string) {
	if param, ok := s.CurrentParameters[name]; ok && param.IsConst {
		s.errorf(E0708ConstWrite, node, "cannot assign to const parameter %q", name)
		return
	}
	if ti, ok := s.LookupType(s.qualifyLocalName(name)); ok && ti.IsConst {
		s.errorf(E0708ConstWrite, node, "cannot assign to const variable %q", name)
		return
	}
	if ti, ok := s.LookupType(name); ok && ti.IsConst {
		s.errorf(E0708ConstWrite, node, "cannot assign to const variable %q", name)
	}
}

// validateScopeIdentifierAccess enforces that an unqualified
// identifier colliding with a scope member/register/function/enum/
// struct/global must be written as this./global.
func (s *State) validateScopeIdentifierAccess(node *ast.Node, name string, isBareReference bool) {
	if !isBareReference || s.CurrentScope == "" {
		return
	}
	members := s.ScopeMembers(s.CurrentScope)
	if members[name] {
		s.errorf(E0709ScopeVisibility, node, "identifier %q collides with scope member; use this.%s", name, name)
		return
	}
	_, isGlobalVar := s.LookupType(name)
	if isGlobalVar || s.Symbols.Registers[name] || s.Symbols.Functions[name] || s.Symbols.Enums[name] || s.Symbols.Structs[name] {
		s.errorf(E0709ScopeVisibility, node, "identifier %q collides with a global name; use global.%s", name, name)
	}
}

// validateCrossScopeVisibility enforces private-member access rules:
// accessing a private member from outside its owning scope is
// an error; global.Scope.member is explicitly exempt.
func (s *State) validateCrossScopeVisibility(node *ast.Node, scope, member string, isGlobalQualified bool) {
	if isGlobalQualified {
		return
	}
	if scope == s.CurrentScope {
		s.errorf(E0709ScopeVisibility, node, "referring to own scope %q by name; use this.%s", scope, member)
		return
	}
	vis, ok := s.Symbols.ScopeMembers[scope][member]
	if ok && vis == 1 { // Private
		s.errorf(E0709ScopeVisibility, node, "member %s.%s is private", scope, member)
	}
}

// sortedKeys drains a string-keyed set in sorted order. Map iteration
// order is non-deterministic; every map that feeds emitted text goes
// through here so output is reproducible.
func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
