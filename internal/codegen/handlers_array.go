package codegen

import (
	"fmt"

	"github.com/cnxlang/cnxgen/internal/ast"
)

func (s *State) arrayDimsFor(ctx AssignmentContext) []int {
	name := ctx.IdentPath[0]
	if ti, ok := s.LookupType(s.qualifyLocalName(name)); ok {
		return ti.ArrayDimensions
	}
	if ti, ok := s.LookupType(name); ok {
		return ti.ArrayDimensions
	}
	return nil
}

func (s *State) handleArrayElement(ctx AssignmentContext) string {
	dims := s.arrayDimsFor(ctx)
	s.validateArrayBounds(ctx.Node, dims, ctx.Subscripts)
	target := ctx.ResolvedTargetName
	if ctx.HasThis {
		target = MangleScopeMember(s.CurrentScope, ctx.IdentPath[0])
	}
	idx := s.emitExprText(ctx.Subscripts[0])
	return fmt.Sprintf("%s[%s] %s %s;", target, idx, ctx.COp, ctx.RHSText)
}

func (s *State) handleMultiDimArrayElement(ctx AssignmentContext) string {
	dims := s.arrayDimsFor(ctx)
	s.validateArrayBounds(ctx.Node, dims, ctx.Subscripts)
	target := ctx.ResolvedTargetName
	if ctx.HasThis {
		target = MangleScopeMember(s.CurrentScope, ctx.IdentPath[0])
	}
	for _, sub := range ctx.Subscripts {
		target += "[" + s.emitExprText(sub) + "]"
	}
	return fmt.Sprintf("%s %s %s;", target, ctx.COp, ctx.RHSText)
}

// handleArraySlice emits a compile-time-checked memcpy for the
// `[offset, length]` slice assignment form; sets NeedsString (string.h
// provides memcpy).
func (s *State) handleArraySlice(ctx AssignmentContext) string {
	if ctx.SourceOp != "<-" {
		s.errorf(E0711CompoundOnBitForm, ctx.Node, "compound operator not permitted on array slice assignment")
	}
	dims := s.arrayDimsFor(ctx)
	if len(dims) != 1 {
		s.errorf(E0712SliceBounds, ctx.Node, "array slice assignment requires a one-dimensional array")
	}
	if ctx.RangeLo.Kind != ast.NIntLit || ctx.RangeHi.Kind != ast.NIntLit {
		s.errorf(E0712SliceBounds, ctx.Node, "array slice offset and length must be compile-time constants")
	} else {
		offset := ast.ParseIntLiteral(ctx.RangeLo.Name)
		length := ast.ParseIntLiteral(ctx.RangeHi.Name)
		if length <= 0 {
			s.errorf(E0712SliceBounds, ctx.Node, "array slice length must be positive")
		}
		if offset < 0 {
			s.errorf(E0712SliceBounds, ctx.Node, "array slice offset must be non-negative")
		}
		if len(dims) == 1 && dims[0] != 0 && offset+length > int64(dims[0]) {
			s.errorf(E0712SliceBounds, ctx.Node, "array slice offset+length exceeds array dimension %d", dims[0])
		}
	}
	s.NeedsString = true
	name := ctx.IdentPath[0]
	offset := s.emitExprText(ctx.RangeLo)
	length := s.emitExprText(ctx.RangeHi)
	return fmt.Sprintf("memcpy(&%s[%s], &%s, %s);", name, offset, ctx.RHSText, length)
}
