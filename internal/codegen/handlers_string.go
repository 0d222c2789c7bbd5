package codegen

import "fmt"

// stringCapacityOf returns the declared capacity (N in string<N>) of
// the LHS's base identifier.
func (s *State) stringCapacityOf(name string) int {
	if ti, ok := s.LookupType(s.qualifyLocalName(name)); ok {
		return ti.StringCapacity
	}
	if ti, ok := s.LookupType(name); ok {
		return ti.StringCapacity
	}
	return 0
}

// boundedCopy emits a bounded copy plus the mandatory last-slot null
// terminator: `strncpy(dest, src, N); dest[N] = '\0';`.
func (s *State) boundedCopy(dest, src string, capacity int) string {
	s.NeedsString = true
	return fmt.Sprintf("strncpy(%s, %s, %d); %s[%d] = '\\0';", dest, src, capacity, dest, capacity)
}

func (s *State) rejectCompoundOnString(ctx AssignmentContext) {
	if ctx.SourceOp != "<-" {
		s.errorf(E0711CompoundOnBitForm, ctx.Node, "compound operator not permitted on a bounded-string target")
	}
}

func (s *State) handleStringSimple(ctx AssignmentContext) string {
	s.rejectCompoundOnString(ctx)
	name := ctx.IdentPath[0]
	return s.boundedCopy(name, ctx.RHSText, s.stringCapacityOf(name))
}

func (s *State) handleStringThisMember(ctx AssignmentContext) string {
	s.rejectCompoundOnString(ctx)
	name := ctx.IdentPath[0]
	target := MangleScopeMember(s.CurrentScope, name)
	return s.boundedCopy(target, ctx.RHSText, s.stringCapacityOf(name))
}

func (s *State) handleStringGlobal(ctx AssignmentContext) string {
	s.rejectCompoundOnString(ctx)
	name := ctx.IdentPath[0]
	return s.boundedCopy(name, ctx.RHSText, s.stringCapacityOf(name))
}

func (s *State) handleStringStructField(ctx AssignmentContext) string {
	s.rejectCompoundOnString(ctx)
	target := joinPath(ctx.IdentPath)
	cap := s.stringCapacityOf(ctx.IdentPath[len(ctx.IdentPath)-1])
	return s.boundedCopy(target, ctx.RHSText, cap)
}

func (s *State) handleStringArrayElement(ctx AssignmentContext) string {
	s.rejectCompoundOnString(ctx)
	name := ctx.IdentPath[0]
	idx := s.emitExprText(ctx.Subscripts[0])
	target := fmt.Sprintf("%s[%s]", name, idx)
	return s.boundedCopy(target, ctx.RHSText, s.stringCapacityOf(name))
}

func (s *State) handleStringStructArrayElement(ctx AssignmentContext) string {
	s.rejectCompoundOnString(ctx)
	target := joinPath(ctx.IdentPath)
	idx := s.emitExprText(ctx.Subscripts[0])
	target = fmt.Sprintf("%s[%s]", target, idx)
	cap := s.stringCapacityOf(ctx.IdentPath[len(ctx.IdentPath)-1])
	return s.boundedCopy(target, ctx.RHSText, cap)
}
