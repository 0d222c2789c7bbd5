package codegen

import "fmt"

// Diagnostic is the structured result value every validator returns
// instead of panicking — a failed run surfaces its problems as data
// next to the partial output, which the CLI does not write out.
type Diagnostic struct {
	Code    string
	Message string
	Line    int
	Path    string
}

func (d Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", d.Code, d.Message, d.Line)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// Stable diagnostic codes, grouped by family. Gaps in the numbering
// are intentional (reserved for codes not exercised by this core).
const (
	E0501Narrowing     = "E0501"
	E0502SignChange    = "E0502"
	E0503ImplInclude   = "E0503"
	E0504SourceAltInclude = "E0504"
	E0505LiteralRange  = "E0505"
	E0506NegativeToUnsigned = "E0506"

	E0601SizeofArrayParam = "E0601"
	E0602SizeofSideEffect = "E0602"
	E0609SizeofAmbiguous  = "E0609"

	E0701SwitchShape   = "E0701"
	E0702CallInCondition = "E0702"
	E0703NestedTernary = "E0703"
	E0704ShiftBounds   = "E0704"
	E0705BitmapFieldWidth = "E0705"
	E0706ArrayBounds   = "E0706"
	E0707CallbackSignature = "E0707"
	E0708ConstWrite    = "E0708"
	E0709ScopeVisibility = "E0709"
	E0710WriteOnlyZero = "E0710"
	E0711CompoundOnBitForm = "E0711"
	E0712SliceBounds   = "E0712"

	E0853CriticalExit = "E0853"
)

func errf(code string, line int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Line: line}
}
