package codegen

import (
	"fmt"

	"github.com/cnxlang/cnxgen/internal/ast"
	"github.com/cnxlang/cnxgen/internal/symbols"
)

// TypeInfo is what the codegen knows about one declared name. For a
// numeric base type BitWidth equals the type's defined width; for
// strings, StringCapacity is the user-visible capacity and the
// emitted storage length is StringCapacity+1.
type TypeInfo struct {
	BaseType         string
	BitWidth         int
	IsArray          bool
	ArrayDimensions  []int
	IsString         bool
	StringCapacity   int
	IsConst          bool
	IsAtomic         bool
	OverflowBehavior string // "wrap" | "clamp" | "none"
	IsEnum           bool
	EnumTypeName     string
	BitmapTypeName   string
}

// ParameterInfo is per-parameter bookkeeping live for the duration of
// one function body.
type ParameterInfo struct {
	IsConst    bool
	IsArray    bool
	IsStruct   bool
	IsCallback bool
	IsString   bool
	BaseType   string
}

// Mode selects the C vs C++ target dialect.
type Mode int

const (
	ModeC Mode = iota
	ModeCPP
)

// TargetCapabilities describes what the target hardware can do.
type TargetCapabilities struct {
	HasFPU           bool
	HasHardwareDivide bool
	MaxBitWidth      int
	HasAtomic        bool
	HasLLSC          bool // load-link/store-conditional atomics
}

// State is the single mutable object one generation run threads
// through every component by reference. It owns all of its mutable
// tables for the run's duration; AST/TokenStream/SymbolInfo are
// borrowed read-only.
type State struct {
	Symbols *symbols.SymbolInfo
	Mode    Mode
	Caps    TargetCapabilities
	SourcePath string

	// scope stack
	CurrentScope   string
	scopeMembersCache map[string]map[string]bool

	// parameter frame
	CurrentParameters map[string]ParameterInfo
	CurrentFunctionName string

	// type registry, keyed by fully-qualified name ("Scope.member" or bare name)
	TypeRegistry map[string]*TypeInfo

	// need-flags: monotonic false->true for the lifetime of a run
	NeedsStdint  bool
	NeedsStdbool bool
	NeedsString  bool
	NeedsLimits  bool
	NeedsCMSIS   bool
	NeedsISR     bool

	// helper-usage sets
	UsedClampOps  map[string]bool // "{op}_{type}"
	UsedSafeDivOps map[string]bool

	// float-bit shadows
	FloatBitShadows map[string]bool
	FloatShadowCurrent map[string]bool

	// C++ scratch
	PendingTempDeclarations []string
	tempCounter int

	LocalVariables map[string]*TypeInfo
	LocalArrays    map[string]bool
	KnownFunctions map[string]bool

	Diagnostics []Diagnostic
}

// New constructs a State for one generation run. Equivalent to a full
// Reset on a zero value.
func New(si *symbols.SymbolInfo, mode Mode, caps TargetCapabilities, sourcePath string) *State {
	s := &State{}
	s.Reset(si, mode, caps, sourcePath)
	return s
}

// Reset restores every field to its empty/false/null starting point.
// Mandatory at the start of every generation run — State is never
// shared across runs.
func (s *State) Reset(si *symbols.SymbolInfo, mode Mode, caps TargetCapabilities, sourcePath string) {
	s.Symbols = si
	s.Mode = mode
	s.Caps = caps
	s.SourcePath = sourcePath
	s.CurrentScope = ""
	s.scopeMembersCache = map[string]map[string]bool{}
	s.CurrentParameters = map[string]ParameterInfo{}
	s.CurrentFunctionName = ""
	s.TypeRegistry = map[string]*TypeInfo{}
	s.NeedsStdint = false
	s.NeedsStdbool = false
	s.NeedsString = false
	s.NeedsLimits = false
	s.NeedsCMSIS = false
	s.NeedsISR = false
	s.UsedClampOps = map[string]bool{}
	s.UsedSafeDivOps = map[string]bool{}
	s.FloatBitShadows = map[string]bool{}
	s.FloatShadowCurrent = map[string]bool{}
	s.PendingTempDeclarations = nil
	s.tempCounter = 0
	s.LocalVariables = map[string]*TypeInfo{}
	s.LocalArrays = map[string]bool{}
	s.KnownFunctions = map[string]bool{}
	s.Diagnostics = nil
}

func (s *State) errorf(code string, node *ast.Node, format string, args ...interface{}) {
	line := 0
	if node != nil {
		line = node.Line
	}
	d := errf(code, line, format, args...)
	d.Path = s.qualifiedPath()
	s.Diagnostics = append(s.Diagnostics, d)
}

// qualifiedPath names the symbol being compiled (scope + function)
// so diagnostics carry the resolved scope path rather than a bare
// line number.
func (s *State) qualifiedPath() string {
	if s.CurrentScope != "" && s.CurrentFunctionName != "" {
		return s.CurrentScope + "." + s.CurrentFunctionName
	}
	if s.CurrentFunctionName != "" {
		return s.CurrentFunctionName
	}
	return s.CurrentScope
}

func (s *State) EnterScope(name string) {
	s.CurrentScope = name
}

func (s *State) LeaveScope() {
	s.CurrentScope = ""
}

func (s *State) PushParameterFrame(name string, params map[string]ParameterInfo) {
	s.CurrentFunctionName = name
	s.CurrentParameters = params
	s.LocalVariables = map[string]*TypeInfo{}
	s.LocalArrays = map[string]bool{}
}

func (s *State) PopParameterFrame() {
	s.CurrentFunctionName = ""
	s.CurrentParameters = map[string]ParameterInfo{}
	s.LocalVariables = map[string]*TypeInfo{}
	s.LocalArrays = map[string]bool{}
}

func (s *State) ScopeMembers(scope string) map[string]bool {
	if cached, ok := s.scopeMembersCache[scope]; ok {
		return cached
	}
	members := map[string]bool{}
	for m := range s.Symbols.ScopeMembers[scope] {
		members[m] = true
	}
	s.scopeMembersCache[scope] = members
	return members
}

func (s *State) NextTemp() string {
	s.tempCounter++
	return fmt.Sprintf("cnx_tmp%d", s.tempCounter)
}

func (s *State) PushTempDecl(decl string) {
	s.PendingTempDeclarations = append(s.PendingTempDeclarations, decl)
}

func (s *State) DrainTempDecls() []string {
	out := s.PendingTempDeclarations
	s.PendingTempDeclarations = nil
	return out
}

// RegisterType installs a TypeInfo into the registry under a
// fully-qualified name and marks the corresponding need-flags, keeping
// the two concerns (registry contents, prelude needs) threaded
// together every place a declaration is emitted.
func (s *State) RegisterType(qualifiedName string, ti *TypeInfo) {
	s.TypeRegistry[qualifiedName] = ti
	s.markNeedsForType(ti)
}

func (s *State) markNeedsForType(ti *TypeInfo) {
	if isIntegerType(ti.BaseType) {
		s.NeedsStdint = true
	}
	if ti.BaseType == "bool" {
		s.NeedsStdbool = true
	}
	if ti.IsString {
		s.NeedsString = true
	}
}

func (s *State) LookupType(qualifiedName string) (*TypeInfo, bool) {
	ti, ok := s.TypeRegistry[qualifiedName]
	return ti, ok
}
