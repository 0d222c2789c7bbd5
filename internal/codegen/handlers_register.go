package codegen

import (
	"fmt"

	"github.com/cnxlang/cnxgen/internal/ast"
	"github.com/cnxlang/cnxgen/internal/symbols"
)

func (s *State) registerMemberOf(ctx AssignmentContext) (regName, memberName string, member symbols.RegisterMember, ok bool) {
	regName = ctx.IdentPath[0]
	if len(ctx.IdentPath) < 2 {
		return
	}
	memberName = ctx.IdentPath[1]
	members, exists := s.Symbols.RegisterMembers[regName]
	if !exists {
		return
	}
	rm, exists := members[memberName]
	return regName, memberName, rm, exists
}

func (s *State) handleRegisterBit(ctx AssignmentContext, global bool) string {
	s.rejectCompoundOnBitForm(ctx)
	regName, memberName, member, ok := s.registerMemberOf(ctx)
	target := fmt.Sprintf("%s_%s", regName, memberName)
	if !global {
		target = MangleScopeMember(s.CurrentScope, fmt.Sprintf("%s_%s", regName, memberName))
	}
	pos := s.emitExprText(ctx.Subscripts[0])
	if ok && member.Mode.WriteOnly() {
		if isZeroOrFalse(ctx.RHSNode) {
			s.errorf(E0710WriteOnlyZero, ctx.Node, "cannot assign false/0 to a write-only single-bit register %s.%s", regName, memberName)
		}
		return fmt.Sprintf("%s = (1 << %s);", target, pos)
	}
	mask := maskOneLiteral(32)
	val := s.bitWriteValue(ctx.RHSNode, ctx.RHSText, 32)
	return fmt.Sprintf("%s = (%s & ~(%s << %s)) | ((%s) << %s);", target, target, mask, pos, val, pos)
}

// handleRegisterBitRange applies the MMIO peephole when the write is
// a byte-aligned 8/16/32-bit constant-offset store, turning it into a
// direct volatile typed store; otherwise falls back to the RMW or
// write-only shapes.
func (s *State) handleRegisterBitRange(ctx AssignmentContext, global bool) string {
	s.rejectCompoundOnBitForm(ctx)
	regName, memberName, member, ok := s.registerMemberOf(ctx)
	width := s.rangeWidth(ctx)

	if ok && ctx.RangeLo.Kind == ast.NIntLit {
		start := ast.ParseIntLiteral(ctx.RangeLo.Name)
		if start%8 == 0 && (width == 8 || width == 16 || width == 32) {
			base := s.Symbols.RegisterBase[regName]
			byteOff := member.Offset + int(start/8)
			ctype := map[int]string{8: "uint8_t", 16: "uint16_t", 32: "uint32_t"}[width]
			return fmt.Sprintf("*((volatile %s*)(0x%X + 0x%02X)) = (%s);", ctype, base, byteOff, ctx.RHSText)
		}
	}

	target := fmt.Sprintf("%s_%s", regName, memberName)
	if !global {
		target = MangleScopeMember(s.CurrentScope, fmt.Sprintf("%s_%s", regName, memberName))
	}
	lo := s.emitExprText(ctx.RangeLo)
	mask := maskLiteral(width)
	if ok && member.Mode.WriteOnly() {
		if isZeroOrFalse(ctx.RHSNode) {
			s.errorf(E0710WriteOnlyZero, ctx.Node, "cannot assign 0 to a write-only register bit-range %s.%s", regName, memberName)
		}
		return fmt.Sprintf("%s = ((%s & %s) << %s);", target, ctx.RHSText, mask, lo)
	}
	return fmt.Sprintf("%s = (%s & ~(%s << %s)) | ((%s & %s) << %s);", target, target, mask, lo, ctx.RHSText, mask, lo)
}

func isZeroOrFalse(node *ast.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind {
	case ast.NBoolLit:
		return node.Name == "false"
	case ast.NIntLit:
		return ast.ParseIntLiteral(node.Name) == 0
	}
	return false
}
