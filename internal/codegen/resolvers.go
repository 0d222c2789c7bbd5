package codegen

import "github.com/cnxlang/cnxgen/internal/ast"

// ResolveEnumType infers the enum type behind an expression across
// every qualification form: `Enum.MEMBER`, `Scope.Enum.MEMBER`, `this.Enum.MEMBER`,
// `global.Enum.MEMBER`, `this.varName` where varName is enum-typed,
// and function-call results whose return type is an enum.
func (s *State) ResolveEnumType(node *ast.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind {
	case ast.NSelectorExpr:
		switch node.X.Kind {
		case ast.NIdent:
			if s.Symbols.Enums[node.X.Name] {
				return node.X.Name
			}
			if s.Symbols.Scopes[node.X.Name] {
				// Scope.member is not resolved here; Scope.Enum.MEMBER is
				// matched by the NSelectorExpr case below.
				return ""
			}
		case ast.NThisExpr:
			if s.Symbols.Enums[node.Name] {
				return node.Name
			}
			return s.thisMemberEnumType(node.Name)
		case ast.NGlobalExpr:
			if s.Symbols.Enums[node.Name] {
				return node.Name
			}
		case ast.NSelectorExpr:
			// three-level forms: node.X is <qualifier>.Enum, node.Name is MEMBER.
			if node.X.X != nil && node.X.X.Kind == ast.NGlobalExpr && s.Symbols.Scopes[node.X.Name] {
				return "" // global.Scope.method(), not enum-typed here
			}
			if node.X.X != nil && (node.X.X.Kind == ast.NThisExpr || node.X.X.Kind == ast.NGlobalExpr) && s.Symbols.Enums[node.X.Name] {
				return node.X.Name // this.Enum.MEMBER / global.Enum.MEMBER
			}
			if node.X.X != nil && node.X.X.Kind == ast.NIdent && s.Symbols.Scopes[node.X.X.Name] && s.Symbols.Enums[node.X.Name] {
				return node.X.X.Name + "_" + node.X.Name
			}
		}
		return ""
	case ast.NCallExpr:
		return s.resolveCallReturnType(node)
	case ast.NIdent:
		return s.thisMemberEnumType(node.Name)
	}
	return ""
}

func (s *State) thisMemberEnumType(name string) string {
	if ti, ok := s.LookupType(s.qualifyLocalName(name)); ok && ti.IsEnum {
		return ti.EnumTypeName
	}
	if ti, ok := s.LookupType(name); ok && ti.IsEnum {
		return ti.EnumTypeName
	}
	return ""
}

// MangleScopeMember applies the uniform Scope.member -> Scope_member
// mangling used throughout emitted C.
func MangleScopeMember(scope, member string) string {
	return scope + "_" + member
}

// ResolveScopeAccess implements the scope access rules: referring to the
// current scope by name is an error (use this.member); private-member
// access from outside the owner is an error; global.Scope.member is
// exempt from both.
func (s *State) ResolveScopeAccess(node *ast.Node, scope, member string, isGlobalQualified bool) string {
	s.validateCrossScopeVisibility(node, scope, member, isGlobalQualified)
	return MangleScopeMember(scope, member)
}

// SizeofContext carries what the sizeof resolver needs to know about
// the argument identifier.
type SizeofContext struct {
	IsArrayParam       bool
	IsPassByRefNonArray bool
	HasSideEffects     bool
	IsAmbiguousTypeOrVar bool
}

// ResolveSizeof implements the sizeof special cases. A bare
// identifier that is both a declared type and a variable in scope
// binds to the variable, with a non-fatal informational diagnostic.
func (s *State) ResolveSizeof(node *ast.Node, ctx SizeofContext, typeCText, varCText string) string {
	if ctx.HasSideEffects {
		s.errorf(E0602SizeofSideEffect, node, "sizeof argument must not have side effects (MISRA 13.6)")
		return ""
	}
	if ctx.IsArrayParam {
		s.errorf(E0601SizeofArrayParam, node, "sizeof on array parameter %q would return pointer size", node.X.Name)
		return ""
	}
	if ctx.IsAmbiguousTypeOrVar {
		s.errorf(E0609SizeofAmbiguous, node, "%q is both a declared type and a variable in scope; sizeof binds to the variable", node.X.Name)
	}
	if ctx.IsPassByRefNonArray {
		return "sizeof(*" + varCText + ")"
	}
	if varCText != "" {
		return "sizeof(" + varCText + ")"
	}
	return "sizeof(" + typeCText + ")"
}
