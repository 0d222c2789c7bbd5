package codegen

import "fmt"

// Dispatch is the assignment-handler registry's single entry point: a
// statically exhaustive switch over AssignmentKind, so the compiler
// enforces handler totality. Every case below returns a terminated C
// statement string.
func (s *State) Dispatch(kind AssignmentKind, ctx AssignmentContext) string {
	switch kind {
	case SIMPLE:
		return s.handleSimple(ctx)
	case GLOBAL_MEMBER:
		return s.handleGlobalMember(ctx)
	case GLOBAL_ARRAY:
		return s.handleGlobalArray(ctx)
	case THIS_MEMBER:
		return s.handleThisMember(ctx)
	case THIS_ARRAY:
		return s.handleThisArray(ctx)
	case MEMBER_CHAIN:
		return s.handleMemberChain(ctx)

	case GLOBAL_REGISTER_BIT:
		return s.handleRegisterBit(ctx, true)
	case SCOPED_REGISTER_BIT:
		return s.handleRegisterBit(ctx, false)
	case GLOBAL_REGISTER_BIT_RANGE:
		return s.handleRegisterBitRange(ctx, true)
	case SCOPED_REGISTER_BIT_RANGE:
		return s.handleRegisterBitRange(ctx, false)
	case REGISTER_MEMBER_BITMAP_FIELD:
		return s.handleRegisterBitmapField(ctx, false)
	case SCOPED_REGISTER_MEMBER_BITMAP_FIELD:
		return s.handleRegisterBitmapField(ctx, true)

	case BITMAP_FIELD_SINGLE_BIT:
		return s.handleBitmapField(ctx, 1)
	case BITMAP_FIELD_MULTI_BIT:
		return s.handleBitmapField(ctx, 0)
	case BITMAP_ARRAY_ELEMENT_FIELD:
		return s.handleBitmapArrayElementField(ctx)
	case STRUCT_MEMBER_BITMAP_FIELD:
		return s.handleStructMemberBitmapField(ctx)

	case INTEGER_BIT:
		return s.handleIntegerBit(ctx)
	case INTEGER_BIT_RANGE:
		return s.handleIntegerBitRange(ctx)
	case STRUCT_MEMBER_BIT:
		return s.handleStructMemberBit(ctx)
	case ARRAY_ELEMENT_BIT:
		return s.handleArrayElementBit(ctx)
	case STRUCT_CHAIN_BIT_RANGE:
		return s.handleStructChainBitRange(ctx)

	case ARRAY_ELEMENT:
		return s.handleArrayElement(ctx)
	case MULTI_DIM_ARRAY_ELEMENT:
		return s.handleMultiDimArrayElement(ctx)
	case ARRAY_SLICE:
		return s.handleArraySlice(ctx)

	case STRING_SIMPLE:
		return s.handleStringSimple(ctx)
	case STRING_THIS_MEMBER:
		return s.handleStringThisMember(ctx)
	case STRING_GLOBAL:
		return s.handleStringGlobal(ctx)
	case STRING_STRUCT_FIELD:
		return s.handleStringStructField(ctx)
	case STRING_ARRAY_ELEMENT:
		return s.handleStringArrayElement(ctx)
	case STRING_STRUCT_ARRAY_ELEMENT:
		return s.handleStringStructArrayElement(ctx)

	case ATOMIC_RMW:
		return s.handleAtomicRMW(ctx)
	case OVERFLOW_CLAMP:
		return s.handleOverflowClamp(ctx)
	}
	// Internal invariant violation: an AssignmentKind the classifier can
	// never produce reached dispatch. This is a bug in the classifier,
	// not a diagnosable user error.
	panic(fmt.Sprintf("codegen: no handler registered for AssignmentKind %d", kind))
}

// maskOneLiteral is the `MASK_ONE` token used in single-bit RMW forms:
// 1U for widths <= 32, 1ULL for 64-bit targets.
func maskOneLiteral(width int) string {
	if width > 32 {
		return "1ULL"
	}
	return "1U"
}

// maskLiteral computes the precomputed hex mask `(1<<w)-1` for a
// known constant width, suffixed U up to 32 bits and ULL above.
func maskLiteral(width int) string {
	var v uint64
	if width >= 64 {
		v = ^uint64(0)
	} else if width > 0 {
		v = (uint64(1) << uint(width)) - 1
	}
	return fmt.Sprintf("0x%X%s", v, ullSuffix(width))
}

func ullSuffix(width int) string {
	if width > 32 {
		return "ULL"
	}
	return "U"
}
