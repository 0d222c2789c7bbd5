package codegen

import "fmt"

var clampOpNames = map[string]string{"+<-": "add", "-<-": "sub", "*<-": "mul"}

// handleOverflowClamp emits the clamp-helper call form and registers
// the {op}_{type} pair as used so IncludeAggregator emits its
// definition. Float types and unsupported operators fall back to
// native arithmetic.
func (s *State) handleOverflowClamp(ctx AssignmentContext) string {
	name := ctx.IdentPath[0]
	baseType := s.identBaseType(name)
	if ctx.HasThis {
		name = MangleScopeMember(s.CurrentScope, name)
	}
	opName, ok := clampOpNames[ctx.SourceOp]
	if !ok || isFloatType(baseType) {
		return fmt.Sprintf("%s %s %s;", name, ctx.COp, ctx.RHSText)
	}
	key := opName + "_" + baseType
	s.UsedClampOps[key] = true
	return fmt.Sprintf("%s = cnx_clamp_%s_%s(%s, %s);", name, opName, baseType, name, ctx.RHSText)
}

func (s *State) identBaseType(name string) string {
	if ti, ok := s.LookupType(s.qualifyLocalName(name)); ok {
		return ti.BaseType
	}
	if ti, ok := s.LookupType(name); ok {
		return ti.BaseType
	}
	return ""
}

// handleAtomicRMW delegates to a target-capability-specific emitter:
// load-link/store-conditional on capable targets, compiler builtins
// otherwise.
func (s *State) handleAtomicRMW(ctx AssignmentContext) string {
	name := ctx.IdentPath[0]
	builtinOp := map[string]string{"+<-": "add_fetch", "-<-": "sub_fetch", "*<-": ""}[ctx.SourceOp]
	if s.Caps.HasLLSC {
		tmp := s.NextTemp()
		s.PushTempDecl(fmt.Sprintf("%s %s;", cTypeName(s.identBaseType(name)), tmp))
		return fmt.Sprintf("do { %s = __load_linked(&%s); %s = %s %s %s; } while (__store_conditional(&%s, %s));",
			tmp, name, tmp, tmp, clampOpToNativeOp(ctx.SourceOp), ctx.RHSText, name, tmp)
	}
	if builtinOp == "" {
		// no fetch builtin for multiply: compare-exchange loop
		tmp := s.NextTemp()
		s.PushTempDecl(fmt.Sprintf("%s %s;", cTypeName(s.identBaseType(name)), tmp))
		return fmt.Sprintf("do { %s = __atomic_load_n(&%s, __ATOMIC_SEQ_CST); } while (!__atomic_compare_exchange_n(&%s, &%s, %s %s %s, 0, __ATOMIC_SEQ_CST, __ATOMIC_SEQ_CST));",
			tmp, name, name, tmp, tmp, clampOpToNativeOp(ctx.SourceOp), ctx.RHSText)
	}
	return fmt.Sprintf("__atomic_%s(&%s, %s, __ATOMIC_SEQ_CST);", builtinOp, name, ctx.RHSText)
}

func clampOpToNativeOp(op string) string {
	switch op {
	case "+<-":
		return "+"
	case "-<-":
		return "-"
	case "*<-":
		return "*"
	}
	return "+"
}
