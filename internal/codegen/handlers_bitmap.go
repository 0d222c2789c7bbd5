package codegen

import (
	"fmt"

	"github.com/cnxlang/cnxgen/internal/symbols"
)

func (s *State) bitmapFieldFor(ctx AssignmentContext) (bitmapType string, container string, field string) {
	container = ctx.IdentPath[0]
	field = ctx.IdentPath[len(ctx.IdentPath)-1]
	bitmapType = s.bitmapTypeOfName(container)
	return
}

func (s *State) bitmapTypeOfName(name string) string {
	if ti, ok := s.LookupType(s.qualifyLocalName(name)); ok {
		return ti.BitmapTypeName
	}
	if ti, ok := s.LookupType(name); ok {
		return ti.BitmapTypeName
	}
	return ""
}

// handleBitmapField emits a single- or multi-bit bitmap field write.
// The `want` parameter is retained for callers that already know the
// shape from classification; the field's registered width is the
// source of truth.
func (s *State) handleBitmapField(ctx AssignmentContext, want int) string {
	bitmapType, container, field := s.bitmapFieldFor(ctx)
	desc, ok := s.Symbols.BitmapFields[bitmapType][field]
	if !ok {
		s.errorf(E0705BitmapFieldWidth, ctx.Node, "unknown bitmap field %q", field)
		return fmt.Sprintf("%s.%s %s %s;", container, field, ctx.COp, ctx.RHSText)
	}
	target := container
	if ctx.HasThis {
		target = MangleScopeMember(s.CurrentScope, container)
	}
	s.validateBitmapFieldWrite(ctx.Node, desc.BitWidth, ctx.RHSNode)
	if desc.BitWidth == 1 {
		mask := maskOneLiteral(s.Symbols.BitmapWidth[bitmapType])
		return fmt.Sprintf("%s = (%s & ~(%s << %d)) | ((%s & %s) << %d);", target, target, mask, desc.BitOffset, ctx.RHSText, mask, desc.BitOffset)
	}
	mask := maskLiteral(desc.BitWidth)
	return fmt.Sprintf("%s = (%s & ~(%s << %d)) | ((%s & %s) << %d);", target, target, mask, desc.BitOffset, ctx.RHSText, mask, desc.BitOffset)
}

func (s *State) handleBitmapArrayElementField(ctx AssignmentContext) string {
	bitmapType, container, field := s.bitmapFieldFor(ctx)
	desc := s.Symbols.BitmapFields[bitmapType][field]
	idx := s.emitExprText(ctx.Subscripts[0])
	target := fmt.Sprintf("%s[%s]", container, idx)
	if desc.BitWidth == 1 {
		mask := maskOneLiteral(s.Symbols.BitmapWidth[bitmapType])
		return fmt.Sprintf("%s = (%s & ~(%s << %d)) | ((%s & %s) << %d);", target, target, mask, desc.BitOffset, ctx.RHSText, mask, desc.BitOffset)
	}
	mask := maskLiteral(desc.BitWidth)
	return fmt.Sprintf("%s = (%s & ~(%s << %d)) | ((%s & %s) << %d);", target, target, mask, desc.BitOffset, ctx.RHSText, mask, desc.BitOffset)
}

func (s *State) handleStructMemberBitmapField(ctx AssignmentContext) string {
	bitmapType, _, field := s.bitmapFieldFor(ctx)
	desc := s.Symbols.BitmapFields[bitmapType][field]
	target := joinPath(ctx.IdentPath[:len(ctx.IdentPath)-1])
	mask := maskLiteral(desc.BitWidth)
	if desc.BitWidth == 1 {
		mask = maskOneLiteral(s.Symbols.BitmapWidth[bitmapType])
	}
	return fmt.Sprintf("%s.%s = (%s.%s & ~(%s << %d)) | ((%s & %s) << %d);", target, field, target, field, mask, desc.BitOffset, ctx.RHSText, mask, desc.BitOffset)
}

// handleRegisterBitmapField emits the bitmap-field write form for a
// register member typed as a bitmap, using the write-only form when
// the register member's access mode is wo/w1s/w1c.
func (s *State) handleRegisterBitmapField(ctx AssignmentContext, scoped bool) string {
	regName := ctx.IdentPath[0]
	memberName := ""
	fieldName := ctx.IdentPath[len(ctx.IdentPath)-1]
	if len(ctx.IdentPath) >= 3 {
		memberName = ctx.IdentPath[1]
	}
	target := fmt.Sprintf("%s_%s", regName, memberName)
	if scoped {
		target = MangleScopeMember(s.CurrentScope, fmt.Sprintf("%s_%s", regName, memberName))
	}
	mode := symbols.RW
	if members, ok := s.Symbols.RegisterMembers[regName]; ok {
		if m, ok := members[memberName]; ok {
			mode = m.Mode
		}
	}
	bitmapType := s.bitmapTypeOfName(memberName)
	desc := s.Symbols.BitmapFields[bitmapType][fieldName]
	mask := maskLiteral(desc.BitWidth)
	if desc.BitWidth == 1 {
		mask = maskOneLiteral(32)
	}
	if mode.WriteOnly() {
		return fmt.Sprintf("%s = ((%s & %s) << %d);", target, ctx.RHSText, mask, desc.BitOffset)
	}
	return fmt.Sprintf("%s = (%s & ~(%s << %d)) | ((%s & %s) << %d);", target, target, mask, desc.BitOffset, ctx.RHSText, mask, desc.BitOffset)
}
