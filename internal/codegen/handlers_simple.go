package codegen

import (
	"fmt"

	"github.com/cnxlang/cnxgen/internal/ast"
)

// handleSimple emits a plain `target <op> rhs;` for an unqualified
// identifier target. Assigning a bare function name installs a
// callback, which pulls the ISR typedef into the prelude.
func (s *State) handleSimple(ctx AssignmentContext) string {
	s.validateConstTarget(ctx.Node, ctx.ResolvedBaseIdent)
	if ctx.RHSNode != nil && ctx.RHSNode.Kind == ast.NIdent && s.Symbols.Functions[ctx.RHSNode.Name] {
		s.NeedsISR = true
	}
	return fmt.Sprintf("%s %s %s;", ctx.ResolvedTargetName, ctx.COp, ctx.RHSText)
}

func (s *State) handleGlobalMember(ctx AssignmentContext) string {
	s.validateConstTarget(ctx.Node, ctx.IdentPath[0])
	return fmt.Sprintf("%s %s %s;", ctx.ResolvedTargetName, ctx.COp, ctx.RHSText)
}

func (s *State) handleGlobalArray(ctx AssignmentContext) string {
	return s.handleArrayElement(ctx)
}

func (s *State) handleThisMember(ctx AssignmentContext) string {
	target := MangleScopeMember(s.CurrentScope, ctx.IdentPath[0])
	s.validateConstTarget(ctx.Node, ctx.IdentPath[0])
	return fmt.Sprintf("%s %s %s;", target, ctx.COp, ctx.RHSText)
}

func (s *State) handleThisArray(ctx AssignmentContext) string {
	return s.handleArrayElement(ctx)
}

// handleMemberChain first consults the bit-access analyzer (mirrored
// here by Classify having already rerouted any bit/bit-range suffix
// before MEMBER_CHAIN was chosen); the plain case emits `a.b.c op rhs;`.
// A Scope.member head resolves through the scope resolver, which
// mangles the name and enforces visibility.
func (s *State) handleMemberChain(ctx AssignmentContext) string {
	var target string
	if len(ctx.IdentPath) >= 2 && s.Symbols.Scopes[ctx.IdentPath[0]] {
		target = s.ResolveScopeAccess(ctx.Node, ctx.IdentPath[0], ctx.IdentPath[1], ctx.HasGlobal)
		for _, p := range ctx.IdentPath[2:] {
			target += "." + p
		}
	} else {
		target = joinPath(ctx.IdentPath)
		if ctx.HasThis {
			target = MangleScopeMember(s.CurrentScope, target)
		}
	}
	return fmt.Sprintf("%s %s %s;", target, ctx.COp, ctx.RHSText)
}
