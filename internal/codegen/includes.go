package codegen

import (
	"fmt"
	"sort"
	"strings"
)

// buildPrelude is the include aggregator: it converts the need-flags
// and type-table contents accumulated during the walk into the fixed
// prelude order — includes, ISR typedef, static asserts, helper
// definitions, type declarations.
func (s *State) buildPrelude() string {
	var b strings.Builder

	if s.NeedsStdint {
		b.WriteString("#include <stdint.h>\n")
	}
	if s.NeedsStdbool {
		b.WriteString("#include <stdbool.h>\n")
	}
	if s.NeedsString {
		b.WriteString("#include <string.h>\n")
	}
	if s.NeedsLimits {
		b.WriteString("#include <limits.h>\n")
	}
	if s.NeedsCMSIS {
		b.WriteString("#include \"cmsis_device.h\"\n")
	}
	if s.NeedsISR {
		b.WriteString("typedef void (*ISR)(void);\n")
	}

	if len(s.FloatBitShadows) > 0 {
		if s.Mode == ModeCPP {
			b.WriteString("static_assert(sizeof(float) == 4, \"float must be 32-bit for bit access\");\n")
		} else {
			b.WriteString("_Static_assert(sizeof(float) == 4, \"float must be 32-bit for bit access\");\n")
		}
	}

	for _, key := range sortedKeys(s.UsedClampOps) {
		b.WriteString(clampHelperDefinition(key))
	}

	for _, key := range sortedKeys(s.UsedSafeDivOps) {
		b.WriteString(safeDivHelperDefinition(key))
	}

	b.WriteString(s.buildTypeDecls())

	if b.Len() > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

// buildTypeDecls renders the struct/enum/bitmap/register typedefs the
// symbol universe names, in sorted-name order for determinism.
func (s *State) buildTypeDecls() string {
	var b strings.Builder
	for _, name := range sortedKeys(s.Symbols.Enums) {
		b.WriteString(s.emitEnumTypedef(name))
	}
	for _, name := range sortedKeys(s.Symbols.Structs) {
		b.WriteString(s.emitStructTypedef(name))
	}
	for _, name := range sortedKeys(s.Symbols.Bitmaps) {
		b.WriteString(s.emitBitmapTypedef(name))
	}
	for _, name := range sortedKeys(s.Symbols.Registers) {
		b.WriteString(s.emitRegisterDecls(name))
	}
	return b.String()
}

func (s *State) emitEnumTypedef(name string) string {
	var b strings.Builder
	b.WriteString("typedef enum {\n")
	variants := s.Symbols.EnumVariants[name]
	values := s.Symbols.EnumValues[name]
	for i, v := range variants {
		sep := ","
		if i == len(variants)-1 {
			sep = ""
		}
		b.WriteString(fmt.Sprintf("    %s_%s = %d%s\n", name, v, values[v], sep))
	}
	b.WriteString(fmt.Sprintf("} %s;\n", name))
	return b.String()
}

func (s *State) emitStructTypedef(name string) string {
	var b strings.Builder
	b.WriteString("typedef struct {\n")
	for _, field := range s.structFieldOrder(name) {
		ft := s.Symbols.StructFields[name][field]
		ctype := cTypeName(ft.BaseType)
		dims := ""
		for _, d := range ft.ArrayDims {
			dims += fmt.Sprintf("[%d]", d)
		}
		b.WriteString(fmt.Sprintf("    %s %s%s;\n", ctype, field, dims))
	}
	b.WriteString(fmt.Sprintf("} %s;\n", name))
	return b.String()
}

// structFieldOrder returns a struct's field names sorted for
// deterministic emission (the grammar doesn't preserve declaration
// order through the symbol-table map).
func (s *State) structFieldOrder(name string) []string {
	fields := s.Symbols.StructFields[name]
	out := make([]string, 0, len(fields))
	for f := range fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (s *State) emitBitmapTypedef(name string) string {
	return fmt.Sprintf("typedef %s %s;\n", cTypeName(s.Symbols.BitmapBaseType[name]), name)
}

func (s *State) emitRegisterDecls(name string) string {
	var b strings.Builder
	base := s.Symbols.RegisterBase[name]
	members := s.Symbols.RegisterMembers[name]
	memberNames := make([]string, 0, len(members))
	for m := range members {
		memberNames = append(memberNames, m)
	}
	sort.Strings(memberNames)
	for _, m := range memberNames {
		member := members[m]
		b.WriteString(fmt.Sprintf("#define %s_%s (*(volatile %s*)(0x%X + 0x%X))\n", name, m, member.CType, base, member.Offset))
	}
	return b.String()
}

func clampHelperDefinition(key string) string {
	parts := strings.SplitN(key, "_", 2)
	op, typ := parts[0], parts[1]
	ctype := cTypeName(typ)
	native := map[string]string{"add": "+", "sub": "-", "mul": "*"}[op]
	minVal, maxVal := integerRangeLiterals(typ)
	return fmt.Sprintf(
		"static inline %s cnx_clamp_%s_%s(%s a, %s b) {\n"+
			"    %s r = a %s b;\n"+
			"    if (r > %s) return %s;\n"+
			"    if (r < %s) return %s;\n"+
			"    return r;\n"+
			"}\n",
		ctype, op, typ, ctype, ctype, ctype, native, maxVal, maxVal, minVal, minVal)
}

func safeDivHelperDefinition(key string) string {
	ctype := cTypeName(key)
	return fmt.Sprintf("static inline %s cnx_safe_div_%s(%s a, %s b) { return (b == 0) ? 0 : (a / b); }\n", ctype, key, ctype, ctype)
}

func integerRangeLiterals(typ string) (string, string) {
	w := typeWidth(typ)
	suffix := ullSuffix(w)
	if isUnsignedType(typ) {
		max := maskLiteral(w)
		return "0" + suffix, max
	}
	maxV := int64(1)<<uint(w-1) - 1
	minV := -(int64(1) << uint(w-1))
	return fmt.Sprintf("%d", minV), fmt.Sprintf("%d", maxV)
}
