package codegen

import (
	"fmt"

	"github.com/cnxlang/cnxgen/internal/ast"
)

// rejectCompoundOnBitForm rejects compound operators on any bit or
// slice target; only plain assignment is defined for them.
func (s *State) rejectCompoundOnBitForm(ctx AssignmentContext) {
	if ctx.SourceOp != "<-" {
		s.errorf(E0711CompoundOnBitForm, ctx.Node, "compound operator %q is not permitted on a bit/slice target", ctx.SourceOp)
	}
}

// bitWriteValue renders the value half of a single-bit RMW. Literal
// true/1 and false/0 fold straight to the mask constant so the emitted
// statement carries no dead `& 1` on a known bit.
func (s *State) bitWriteValue(rhs *ast.Node, rhsText string, width int) string {
	one := maskOneLiteral(width)
	zero := "0U"
	if width > 32 {
		zero = "0ULL"
	}
	if rhs != nil {
		switch rhs.Kind {
		case ast.NBoolLit:
			if rhs.Name == "true" {
				return one
			}
			return zero
		case ast.NIntLit:
			switch ast.ParseIntLiteral(rhs.Name) {
			case 1:
				return one
			case 0:
				return zero
			}
		}
	}
	return rhsText + " & " + one
}

// handleIntegerBit emits the single-bit RMW shape: clear the bit,
// then OR in the value, with the ULL mask suffix iff the target
// width is 64.
func (s *State) handleIntegerBit(ctx AssignmentContext) string {
	s.rejectCompoundOnBitForm(ctx)
	name := ctx.IdentPath[0]
	width := s.identWidth(name)
	s.validateShiftAmount(ctx.Node, width, ctx.Subscripts[0])
	pos := s.emitExprText(ctx.Subscripts[0])
	mask := maskOneLiteral(width)
	val := s.bitWriteValue(ctx.RHSNode, ctx.RHSText, width)
	return fmt.Sprintf("%s = (%s & ~(%s << %s)) | ((%s) << %s);", name, name, mask, pos, val, pos)
}

func (s *State) handleStructMemberBit(ctx AssignmentContext) string {
	s.rejectCompoundOnBitForm(ctx)
	target := joinPath(ctx.IdentPath)
	if ctx.HasThis {
		target = MangleScopeMember(s.CurrentScope, target)
	}
	width := s.memberWidth(ctx.IdentPath)
	pos := s.emitExprText(ctx.Subscripts[0])
	mask := maskOneLiteral(width)
	val := s.bitWriteValue(ctx.RHSNode, ctx.RHSText, width)
	return fmt.Sprintf("%s = (%s & ~(%s << %s)) | ((%s) << %s);", target, target, mask, pos, val, pos)
}

func (s *State) handleArrayElementBit(ctx AssignmentContext) string {
	s.rejectCompoundOnBitForm(ctx)
	width := s.identWidth(ctx.IdentPath[0])
	target := ctx.IdentPath[0]
	if ctx.HasThis {
		target = MangleScopeMember(s.CurrentScope, target)
	}
	// every subscript but the last selects the element, the last one the bit.
	for _, sub := range ctx.Subscripts[:len(ctx.Subscripts)-1] {
		target += "[" + s.emitExprText(sub) + "]"
	}
	pos := s.emitExprText(ctx.Subscripts[len(ctx.Subscripts)-1])
	mask := maskOneLiteral(width)
	val := s.bitWriteValue(ctx.RHSNode, ctx.RHSText, width)
	return fmt.Sprintf("%s = (%s & ~(%s << %s)) | ((%s) << %s);", target, target, mask, pos, val, pos)
}

// handleIntegerBitRange emits the bit-range RMW shape; the mask is a
// precomputed hex literal when the width is a compile-time constant.
// A float base delegates to the type-punning union path instead,
// since C cannot shift into a float directly.
func (s *State) handleIntegerBitRange(ctx AssignmentContext) string {
	s.rejectCompoundOnBitForm(ctx)
	target := joinPath(ctx.IdentPath)
	if ctx.HasThis {
		target = MangleScopeMember(s.CurrentScope, target)
	}
	if isFloatType(s.identBaseType(ctx.IdentPath[0])) && len(ctx.IdentPath) == 1 {
		return s.emitFloatBitRangeWrite(ctx, target)
	}
	lo := s.emitExprText(ctx.RangeLo)
	width := s.rangeWidth(ctx)
	mask := maskLiteral(width)
	return fmt.Sprintf("%s = (%s & ~(%s << %s)) | ((%s & %s) << %s);", target, target, mask, lo, ctx.RHSText, mask, lo)
}

// emitFloatBitRangeWrite routes a bit-range write on a float through a
// bit-shadow union so the store stays portable C. The shadow name is
// recorded so the prelude gains the sizeof(float) static assert.
func (s *State) emitFloatBitRangeWrite(ctx AssignmentContext, target string) string {
	s.FloatBitShadows[target+"_bits"] = true
	s.NeedsStdint = true
	lo := s.emitExprText(ctx.RangeLo)
	mask := maskLiteral(s.rangeWidth(ctx))
	pun := s.NextTemp()
	return fmt.Sprintf(
		"do { union { float f; uint32_t u; } %s; %s.f = %s; %s.u = (%s.u & ~(%s << %s)) | ((%s & %s) << %s); %s = %s.f; } while (0);",
		pun, pun, target, pun, pun, mask, lo, ctx.RHSText, mask, lo, target, pun)
}

func (s *State) handleStructChainBitRange(ctx AssignmentContext) string {
	s.rejectCompoundOnBitForm(ctx)
	target := joinPath(ctx.IdentPath)
	if ctx.HasThis {
		target = MangleScopeMember(s.CurrentScope, target)
	}
	lo := s.emitExprText(ctx.RangeLo)
	width := s.rangeWidth(ctx)
	mask := maskLiteral(width)
	return fmt.Sprintf("%s = (%s & ~(%s << %s)) | ((%s & %s) << %s);", target, target, mask, lo, ctx.RHSText, mask, lo)
}

// rangeWidth computes a bit-range's width from its [lo, hi] subscript
// when both bounds are compile-time constants; 0 (an unknown-width
// mask, left as a shift expression) otherwise.
func (s *State) rangeWidth(ctx AssignmentContext) int {
	if ctx.RangeLo == nil || ctx.RangeHi == nil {
		return 0
	}
	if ctx.RangeLo.Kind != ast.NIntLit || ctx.RangeHi.Kind != ast.NIntLit {
		return 0
	}
	lo := ast.ParseIntLiteral(ctx.RangeLo.Name)
	hi := ast.ParseIntLiteral(ctx.RangeHi.Name)
	return int(hi-lo) + 1
}

func (s *State) identWidth(name string) int {
	if ti, ok := s.LookupType(s.qualifyLocalName(name)); ok {
		return ti.BitWidth
	}
	if ti, ok := s.LookupType(name); ok {
		return ti.BitWidth
	}
	return 32
}

// memberWidth resolves `s.field` chains to the field's declared
// integer width; anything unresolvable keeps the 32-bit MASK_ONE form.
func (s *State) memberWidth(path []string) int {
	if len(path) == 1 {
		return s.identWidth(path[0])
	}
	if len(path) >= 2 {
		structType := s.typeNameOfIdent(path[0])
		if fields, ok := s.Symbols.StructFields[structType]; ok {
			if ft, ok := fields[path[len(path)-1]]; ok && isIntegerType(ft.BaseType) {
				return typeWidth(ft.BaseType)
			}
		}
	}
	return 32
}
