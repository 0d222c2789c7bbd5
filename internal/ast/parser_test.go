package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFile(t *testing.T, src string) *Node {
	t.Helper()
	file, _, err := Parse([]byte(src))
	require.NoError(t, err)
	return file
}

func TestParse_QualifiedVarDecls(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantType   string
		wantAccess string
		wantConst  bool
	}{
		{name: "plain", src: "u8 x <- 0", wantType: "u8"},
		{name: "clamp qualifier", src: "clamp u8 c", wantType: "u8", wantAccess: "clamp"},
		{name: "atomic qualifier", src: "atomic u32 n", wantType: "u32", wantAccess: "atomic"},
		{name: "const qualifier", src: "const i16 k <- 5", wantType: "i16", wantConst: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := parseFile(t, tt.src)
			require.Len(t, file.Nodes, 1)
			decl := file.Nodes[0]
			assert.Equal(t, NVarDecl, decl.Kind)
			assert.Equal(t, tt.wantType, decl.Type.Name)
			assert.Equal(t, tt.wantAccess, decl.Type.AccessMode)
			assert.Equal(t, tt.wantConst, decl.IsConst)
		})
	}
}

func TestParse_ArrayAndStringTypes(t *testing.T) {
	file := parseFile(t, "u8[4] buf\nstring<32> name\nu8[2][3] grid")

	buf := file.Nodes[0]
	require.Len(t, buf.Type.Nodes, 1)
	assert.Equal(t, "4", buf.Type.Nodes[0].Name)

	name := file.Nodes[1]
	require.NotNil(t, name.Type.X)
	assert.Equal(t, "32", name.Type.X.Name)

	grid := file.Nodes[2]
	assert.Len(t, grid.Type.Nodes, 2)
}

func TestParse_ScopeDecl(t *testing.T) {
	file := parseFile(t, `
scope Counter {
    private u8 count <- 0
    func increment() {
        this.count <- this.count + 1
    }
}`)
	require.Len(t, file.Nodes, 1)
	scope := file.Nodes[0]
	assert.Equal(t, NScopeDecl, scope.Kind)
	assert.Equal(t, "Counter", scope.Name)
	require.Len(t, scope.Nodes, 2)
	assert.Equal(t, "private", scope.Nodes[0].Visibility)
	assert.Equal(t, "public", scope.Nodes[1].Visibility)
	assert.Equal(t, NFuncDecl, scope.Nodes[1].Kind)
}

func TestParse_RegisterDecl(t *testing.T) {
	file := parseFile(t, `
register GPIO7 <- 0x42004048 {
    rw u32 DR : 0x00
    wo u32 DR_SET : 0x84
}`)
	reg := file.Nodes[0]
	assert.Equal(t, NRegisterDecl, reg.Kind)
	assert.Equal(t, "0x42004048", reg.X.Name)
	require.Len(t, reg.Nodes, 2)
	assert.Equal(t, "rw", reg.Nodes[0].AccessMode)
	assert.Equal(t, "wo", reg.Nodes[1].AccessMode)
	assert.Equal(t, "0x84", reg.Nodes[1].X.Name)
}

func TestParse_BitmapDecl(t *testing.T) {
	file := parseFile(t, "bitmap8 Flags { ready, mode[3], error }")
	bm := file.Nodes[0]
	assert.Equal(t, NBitmapDecl, bm.Kind)
	assert.Equal(t, 8, bm.Line)
	require.Len(t, bm.Nodes, 3)
	assert.Equal(t, 1, bm.Nodes[0].Line)
	assert.Equal(t, 3, bm.Nodes[1].Line)
}

func TestParse_EnumValues(t *testing.T) {
	file := parseFile(t, "enum State { IDLE, RUNNING <- 5, DONE }")
	e := file.Nodes[0]
	require.Len(t, e.Nodes, 3)
	assert.Equal(t, 0, e.Nodes[0].Line)
	assert.Equal(t, 5, e.Nodes[1].Line)
	assert.Equal(t, 6, e.Nodes[2].Line)
}

func TestParse_SubscriptShapes(t *testing.T) {
	file := parseFile(t, `
func main() {
    flags[3] <- true
    value[0, 7] <- 0xFF
}`)
	body := file.Nodes[0].Body
	require.Len(t, body.Nodes, 2)

	bit := body.Nodes[0]
	assert.Equal(t, NAssign, bit.Kind)
	assert.Equal(t, NIndexExpr, bit.X.Kind)

	rng := body.Nodes[1]
	assert.Equal(t, NRangeIndex, rng.X.Kind)
	assert.Equal(t, "0", rng.X.Y.Name)
	assert.Equal(t, "7", rng.X.Z.Name)
}

func TestParse_SwitchWithDefaultCount(t *testing.T) {
	file := parseFile(t, `
func main() {
    switch (st) {
    case A:
        x <- 1
    case B || C:
        x <- 2
    default(2):
        x <- 3
    }
}`)
	sw := file.Nodes[0].Body.Nodes[0]
	require.Equal(t, NSwitch, sw.Kind)
	require.Len(t, sw.Nodes, 3)
	assert.Len(t, sw.Nodes[0].Nodes, 1)
	assert.Len(t, sw.Nodes[1].Nodes, 2) // `||`-alternates count independently
	assert.Equal(t, "default", sw.Nodes[2].Name)
	require.NotNil(t, sw.Nodes[2].X)
	assert.Equal(t, "2", sw.Nodes[2].X.Name)
}

func TestParse_CriticalAndControlFlow(t *testing.T) {
	file := parseFile(t, `
func main() {
    critical {
        x <- 1
    }
    do {
        x <- x - 1
    } while (x > 0)
    for (u8 i <- 0; i < 10; i +<- 1) {
        x <- i
    }
}`)
	body := file.Nodes[0].Body
	require.Len(t, body.Nodes, 3)
	assert.Equal(t, NCritical, body.Nodes[0].Kind)
	assert.Equal(t, NDoWhile, body.Nodes[1].Kind)
	assert.Equal(t, NFor, body.Nodes[2].Kind)
}

func TestParse_TernaryAndCast(t *testing.T) {
	file := parseFile(t, `
func main() {
    y <- (x > 0) ? 1 : 0
    z <- (u8)(x)
}`)
	body := file.Nodes[0].Body
	assert.Equal(t, NTernary, body.Nodes[0].Y.Kind)
	cast := body.Nodes[1].Y
	assert.Equal(t, NCastExpr, cast.Kind)
	assert.Equal(t, "u8", cast.Name)
}

func TestParse_SizeofExpr(t *testing.T) {
	file := parseFile(t, "func main() {\n    n <- sizeof(u32)\n}")
	sz := file.Nodes[0].Body.Nodes[0].Y
	assert.Equal(t, NSizeofExpr, sz.Kind)
	assert.Equal(t, "u32", sz.X.Name)
}

func TestParse_ErrorRecovery(t *testing.T) {
	_, _, err := Parse([]byte("func main() { x <- }"))
	require.Error(t, err)
}

func TestParseIntLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"42", 42},
		{"-7", -7},
		{"0xFF", 255},
		{"0x401B8000", 0x401B8000},
		{"0b1010", 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseIntLiteral(tt.in), tt.in)
	}
}
