// Package symbols builds the immutable SymbolInfo view the codegen
// core consumes. The full resolver lives outside this module; this
// package implements a minimal version of it so the core can be
// driven end-to-end from source text in tests.
package symbols

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/cnxlang/cnxgen/internal/ast"
)

// Visibility is a scope member's access qualifier.
type Visibility int

const (
	Public Visibility = iota
	Private
)

// AccessMode is a register member's read/write contract.
type AccessMode int

const (
	RW AccessMode = iota
	RO
	WO
	W1S
	W1C
)

func ParseAccessMode(s string) AccessMode {
	switch s {
	case "ro":
		return RO
	case "wo":
		return WO
	case "w1s":
		return W1S
	case "w1c":
		return W1C
	default:
		return RW
	}
}

func (m AccessMode) WriteOnly() bool {
	return m == WO || m == W1S || m == W1C
}

// FieldType describes a struct field: its base type name plus array
// dimensions (empty when scalar).
type FieldType struct {
	BaseType string
	ArrayDims []int
}

// BitmapField describes one named field of a bitmap type.
type BitmapField struct {
	Name      string
	BitOffset int
	BitWidth  int
}

// RegisterMember describes one addressable member of a memory-mapped
// register block.
type RegisterMember struct {
	Name   string
	Offset int
	Mode   AccessMode
	CType  string
}

// SymbolInfo is the read-only symbol universe the codegen core
// consumes for one generation run. Every map here is populated once at
// construction and never mutated afterward — callers only ever read it.
type SymbolInfo struct {
	Scopes   map[string]bool
	Structs  map[string]bool
	Enums    map[string]bool
	Bitmaps  map[string]bool
	Registers map[string]bool
	Callbacks map[string]bool
	Functions map[string]bool

	ScopeMembers map[string]map[string]Visibility // scope -> member -> visibility
	StructFields map[string]map[string]FieldType  // struct -> field -> type
	StructArrayFields map[string]map[string][]int // struct -> field -> dims

	EnumVariants map[string][]string       // enum -> ordered variant names
	EnumValues   map[string]map[string]int64 // enum -> variant -> value

	BitmapFields map[string]map[string]BitmapField // bitmap -> field -> descriptor
	BitmapBaseType map[string]string               // bitmap -> backing uN type
	BitmapWidth    map[string]int                  // bitmap -> total bit width

	RegisterBase    map[string]int64                     // register -> base address
	RegisterMembers map[string]map[string]RegisterMember // register -> member -> descriptor

	FunctionReturnType map[string]string

	// ScopedMemberFunc maps a scope member name to its owning scope for
	// every enum-typed member (the last declaring scope wins on a shared
	// name) and for every other member name that is unique across all
	// scopes — used to resolve "this.varName is of enum type" style
	// lookups without a fully qualified path.
	ScopedMemberFunc map[string]string
}

func New() *SymbolInfo {
	return &SymbolInfo{
		Scopes: map[string]bool{}, Structs: map[string]bool{}, Enums: map[string]bool{},
		Bitmaps: map[string]bool{}, Registers: map[string]bool{}, Callbacks: map[string]bool{},
		Functions: map[string]bool{},
		ScopeMembers: map[string]map[string]Visibility{},
		StructFields: map[string]map[string]FieldType{},
		StructArrayFields: map[string]map[string][]int{},
		EnumVariants: map[string][]string{},
		EnumValues: map[string]map[string]int64{},
		BitmapFields: map[string]map[string]BitmapField{},
		BitmapBaseType: map[string]string{},
		BitmapWidth: map[string]int{},
		RegisterBase: map[string]int64{},
		RegisterMembers: map[string]map[string]RegisterMember{},
		FunctionReturnType: map[string]string{},
		ScopedMemberFunc: map[string]string{},
	}
}

// Build walks a parsed file's top-level declarations and produces the
// SymbolInfo view consumed by the codegen core. Errors are collected,
// not raised eagerly, so one pass surfaces every problem in the file.
func Build(file *ast.Node) (*SymbolInfo, []string) {
	si := New()
	var errs []string
	memberOwner := map[string][]string{}

	for _, decl := range file.Nodes {
		switch decl.Kind {
		case ast.NStructDecl:
			si.Structs[decl.Name] = true
			fields := map[string]FieldType{}
			arrays := map[string][]int{}
			for _, f := range decl.Nodes {
				ft := FieldType{BaseType: f.Type.Name}
				if len(f.Nodes) > 0 {
					var dims []int
					for _, d := range f.Nodes {
						dims = append(dims, int(ast.ParseIntLiteral(d.Name)))
					}
					ft.ArrayDims = dims
					arrays[f.Name] = dims
				}
				fields[f.Name] = ft
			}
			si.StructFields[decl.Name] = fields
			si.StructArrayFields[decl.Name] = arrays
		case ast.NEnumDecl:
			si.Enums[decl.Name] = true
			values := map[string]int64{}
			var order []string
			for _, v := range decl.Nodes {
				order = append(order, v.Name)
				values[v.Name] = int64(v.Line)
			}
			si.EnumVariants[decl.Name] = order
			si.EnumValues[decl.Name] = values
		case ast.NBitmapDecl:
			si.Bitmaps[decl.Name] = true
			width := decl.Line
			if width == 0 {
				width = 8
			}
			fields := map[string]BitmapField{}
			offset := 0
			bs := bitset.New(uint(width))
			for _, f := range decl.Nodes {
				w := f.Line
				if w == 0 {
					w = 1
				}
				if offset+w > width {
					errs = append(errs, fmt.Sprintf("bitmap %s: field %s exceeds %d-bit backing type", decl.Name, f.Name, width))
				}
				for b := offset; b < offset+w; b++ {
					if bs.Test(uint(b)) {
						errs = append(errs, fmt.Sprintf("bitmap %s: field %s overlaps bit %d", decl.Name, f.Name, b))
					}
					bs.Set(uint(b))
				}
				fields[f.Name] = BitmapField{Name: f.Name, BitOffset: offset, BitWidth: w}
				offset += w
			}
			si.BitmapFields[decl.Name] = fields
			si.BitmapWidth[decl.Name] = width
			si.BitmapBaseType[decl.Name] = fmt.Sprintf("u%d", width)
		case ast.NRegisterDecl:
			si.Registers[decl.Name] = true
			si.RegisterBase[decl.Name] = ast.ParseIntLiteral(decl.X.Name)
			members := map[string]RegisterMember{}
			for _, f := range decl.Nodes {
				members[f.Name] = RegisterMember{
					Name:   f.Name,
					Offset: int(ast.ParseIntLiteral(f.X.Name)),
					Mode:   ParseAccessMode(f.AccessMode),
					CType:  cTypeNameFor(f.Type.Name),
				}
			}
			si.RegisterMembers[decl.Name] = members
		case ast.NScopeDecl:
			si.Scopes[decl.Name] = true
			members := map[string]Visibility{}
			for _, m := range decl.Nodes {
				vis := Public
				if m.Visibility == "private" {
					vis = Private
				}
				members[m.Name] = vis
				memberOwner[m.Name] = append(memberOwner[m.Name], decl.Name)
				if m.Kind == ast.NFuncDecl {
					si.Functions[decl.Name+"."+m.Name] = true
					if m.Type != nil {
						si.FunctionReturnType[decl.Name+"."+m.Name] = m.Type.Name
					}
				} else if m.Type != nil && si.Enums[m.Type.Name] {
					si.ScopedMemberFunc[m.Name] = decl.Name
				}
			}
			si.ScopeMembers[decl.Name] = members
		case ast.NFuncDecl:
			si.Functions[decl.Name] = true
			if decl.Type != nil {
				si.FunctionReturnType[decl.Name] = decl.Type.Name
			}
		case ast.NVarDecl:
			// a global variable; no symbol-table slot needed beyond
			// TypeInfo, which is populated by CodegenState as it emits
			// the declaration.
		}
	}

	for member, owners := range memberOwner {
		if len(owners) == 1 {
			if _, ok := si.ScopedMemberFunc[member]; !ok {
				si.ScopedMemberFunc[member] = owners[0]
			}
		}
	}

	sort.Strings(errs)
	return si, errs
}

func cTypeNameFor(name string) string {
	switch name {
	case "u8":
		return "uint8_t"
	case "u16":
		return "uint16_t"
	case "u32":
		return "uint32_t"
	case "u64":
		return "uint64_t"
	case "i8":
		return "int8_t"
	case "i16":
		return "int16_t"
	case "i32":
		return "int32_t"
	case "i64":
		return "int64_t"
	case "f32":
		return "float"
	case "f64":
		return "double"
	case "bool":
		return "bool"
	default:
		return name
	}
}
