package codegen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnxlang/cnxgen/internal/ast"
)

func intLit(v int) *ast.Node {
	return &ast.Node{Kind: ast.NIntLit, Name: fmt.Sprintf("%d", v)}
}

// A constant shift s against width W is accepted iff 0 <= s < W.
func TestValidateShiftAmount(t *testing.T) {
	tests := []struct {
		width int
		shift string
		ok    bool
	}{
		{8, "0", true},
		{8, "7", true},
		{8, "8", false},
		{8, "-1", false},
		{32, "31", true},
		{32, "32", false},
		{64, "63", true},
		{64, "64", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("w%d_s%s", tt.width, tt.shift), func(t *testing.T) {
			s := newTestState()
			s.validateShiftAmount(nil, tt.width, &ast.Node{Kind: ast.NIntLit, Name: tt.shift})
			if tt.ok {
				assert.Empty(t, s.Diagnostics)
			} else {
				require.Len(t, s.Diagnostics, 1)
				assert.Equal(t, E0704ShiftBounds, s.Diagnostics[0].Code)
			}
		})
	}

	// non-constant shift amounts are not checked here
	s := newTestState()
	s.validateShiftAmount(nil, 8, &ast.Node{Kind: ast.NIdent, Name: "n"})
	assert.Empty(t, s.Diagnostics)
}

func TestValidateIncludePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		hasAlt   bool
		wantCode string
	}{
		{name: "header ok", path: "util.h"},
		{name: "c file rejected", path: "util.c", wantCode: E0503ImplInclude},
		{name: "cpp file rejected", path: "util.cpp", wantCode: E0503ImplInclude},
		{name: "cxx file rejected", path: "util.cxx", wantCode: E0503ImplInclude},
		{name: "case insensitive", path: "UTIL.C", wantCode: E0503ImplInclude},
		{name: "source alternative exists", path: "driver.h", hasAlt: true, wantCode: E0504SourceAltInclude},
		{name: "malformed ignored", path: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState()
			s.validateIncludePath(nil, tt.path, tt.hasAlt)
			if tt.wantCode == "" {
				assert.Empty(t, s.Diagnostics)
			} else {
				require.Len(t, s.Diagnostics, 1)
				assert.Equal(t, tt.wantCode, s.Diagnostics[0].Code)
			}
		})
	}
}

func TestValidateBitmapFieldWrite(t *testing.T) {
	s := newTestState()
	s.validateBitmapFieldWrite(nil, 3, intLit(7))
	assert.Empty(t, s.Diagnostics)

	s.validateBitmapFieldWrite(nil, 3, intLit(8))
	require.Len(t, s.Diagnostics, 1)
	assert.Equal(t, E0705BitmapFieldWidth, s.Diagnostics[0].Code)

	// non-literal RHS is not range-checked here
	s = newTestState()
	s.validateBitmapFieldWrite(nil, 3, &ast.Node{Kind: ast.NIdent, Name: "v"})
	assert.Empty(t, s.Diagnostics)
}

func TestValidateArrayBounds(t *testing.T) {
	tests := []struct {
		name    string
		dims    []int
		indices []*ast.Node
		ok      bool
	}{
		{name: "in bounds", dims: []int{4}, indices: []*ast.Node{intLit(3)}, ok: true},
		{name: "out of bounds", dims: []int{4}, indices: []*ast.Node{intLit(4)}, ok: false},
		{name: "negative", dims: []int{4}, indices: []*ast.Node{intLit(-1)}, ok: false},
		{name: "unsized dim skips upper check", dims: []int{0}, indices: []*ast.Node{intLit(99)}, ok: true},
		{name: "multi-dim second out", dims: []int{2, 3}, indices: []*ast.Node{intLit(1), intLit(3)}, ok: false},
		{name: "non-constant skipped", dims: []int{4}, indices: []*ast.Node{{Kind: ast.NIdent, Name: "i"}}, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState()
			s.validateArrayBounds(nil, tt.dims, tt.indices)
			if tt.ok {
				assert.Empty(t, s.Diagnostics)
			} else {
				require.NotEmpty(t, s.Diagnostics)
				assert.Equal(t, E0706ArrayBounds, s.Diagnostics[0].Code)
			}
		})
	}
}

func TestValidateCallbackAssignment(t *testing.T) {
	sig := CallbackSignature{
		ReturnType: "void",
		Params:     []CallbackParam{{Type: "u8"}, {Type: "u32", IsConst: true}},
	}

	s := newTestState()
	s.validateCallbackAssignment(nil, sig, sig, func() bool { return true })
	assert.Empty(t, s.Diagnostics)

	mismatch := sig
	mismatch.ReturnType = "u8"
	s = newTestState()
	s.validateCallbackAssignment(nil, sig, mismatch, func() bool { return true })
	require.Len(t, s.Diagnostics, 1)
	assert.Equal(t, E0707CallbackSignature, s.Diagnostics[0].Code)

	// structural match is not enough: the nominal predicate must hold
	s = newTestState()
	s.validateCallbackAssignment(nil, sig, sig, func() bool { return false })
	require.Len(t, s.Diagnostics, 1)
	assert.Equal(t, E0707CallbackSignature, s.Diagnostics[0].Code)
}

func TestValidateCriticalExitNested(t *testing.T) {
	// return nested three levels down still trips the check
	ret := &ast.Node{Kind: ast.NReturn}
	inner := &ast.Node{Kind: ast.NIf, X: &ast.Node{Kind: ast.NBoolLit, Name: "true"},
		Body: &ast.Node{Kind: ast.NBlock, Nodes: []*ast.Node{ret}}}
	loop := &ast.Node{Kind: ast.NWhile, X: &ast.Node{Kind: ast.NBoolLit, Name: "true"},
		Body: &ast.Node{Kind: ast.NBlock, Nodes: []*ast.Node{inner}}}
	body := &ast.Node{Kind: ast.NBlock, Nodes: []*ast.Node{loop}}

	s := newTestState()
	s.validateCriticalExit(body)
	require.Len(t, s.Diagnostics, 1)
	assert.Equal(t, E0853CriticalExit, s.Diagnostics[0].Code)

	s = newTestState()
	s.validateCriticalExit(&ast.Node{Kind: ast.NBlock, Nodes: []*ast.Node{
		{Kind: ast.NBreak},
	}})
	assert.Empty(t, s.Diagnostics)
}

func TestIsBooleanExpression(t *testing.T) {
	s := newTestState()
	s.RegisterType("flag", &TypeInfo{BaseType: "bool"})
	s.RegisterType("n", &TypeInfo{BaseType: "u8", BitWidth: 8})

	n := &ast.Node{Kind: ast.NIdent, Name: "n"}

	tests := []struct {
		name string
		node *ast.Node
		want bool
	}{
		{name: "comparison", node: &ast.Node{Kind: ast.NBinaryExpr, Op: "<", X: n, Y: intLit(1)}, want: true},
		{name: "logical and", node: &ast.Node{Kind: ast.NBinaryExpr, Op: "&&", X: n, Y: n}, want: true},
		{name: "negation", node: &ast.Node{Kind: ast.NUnaryExpr, Op: "!", X: n}, want: true},
		{name: "true literal", node: &ast.Node{Kind: ast.NBoolLit, Name: "true"}, want: true},
		{name: "bool-typed identifier", node: &ast.Node{Kind: ast.NIdent, Name: "flag"}, want: true},
		{name: "integer identifier", node: n, want: false},
		{name: "arithmetic", node: &ast.Node{Kind: ast.NBinaryExpr, Op: "+", X: n, Y: n}, want: false},
		{name: "parenthesized comparison", node: &ast.Node{Kind: ast.NParenExpr,
			X: &ast.Node{Kind: ast.NBinaryExpr, Op: ">", X: n, Y: intLit(0)}}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.isBooleanExpression(tt.node))
		})
	}
}

func TestValidateTernaryShape(t *testing.T) {
	cond := &ast.Node{Kind: ast.NBoolLit, Name: "true"}
	nested := &ast.Node{Kind: ast.NTernary, X: cond, Y: intLit(1), Z: intLit(2)}

	s := newTestState()
	s.validateTernaryShape(&ast.Node{Kind: ast.NTernary, X: cond, Y: intLit(1), Z: intLit(2)})
	assert.Empty(t, s.Diagnostics)

	s = newTestState()
	s.validateTernaryShape(&ast.Node{Kind: ast.NTernary, X: cond, Y: nested, Z: intLit(2)})
	require.NotEmpty(t, s.Diagnostics)
	assert.Equal(t, E0703NestedTernary, s.Diagnostics[0].Code)
}

func TestDuplicateCaseValuesNormalized(t *testing.T) {
	// 0x0A and 10 are the same value after normalization
	r := generateC(t, `
u8 x <- 0
u8 y <- 0
func main() {
    switch (x) {
    case 10:
        y <- 1
    case 0x0A:
        y <- 2
    }
}`)
	require.NotEmpty(t, r.Diagnostics)
	assert.Contains(t, r.Diagnostics[0].Message, "duplicate case value")
}
