package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCTypeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"u8", "uint8_t"}, {"u16", "uint16_t"}, {"u32", "uint32_t"}, {"u64", "uint64_t"},
		{"i8", "int8_t"}, {"i16", "int16_t"}, {"i32", "int32_t"}, {"i64", "int64_t"},
		{"f32", "float"}, {"f64", "double"},
		{"bool", "bool"}, {"void", "void"},
		{"Point", "Point"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cTypeName(tt.in), tt.in)
	}
}

func TestEmitExpr_LiteralForms(t *testing.T) {
	code := requireClean(t, generateC(t, `
u32 a <- 0x1F
u32 b <- 0b1010
u32 c <- 42
u8 d <- 7u8
`))
	// hex keeps its source spelling, binary becomes hex, decimal stays
	// decimal, type suffixes are dropped
	assert.Contains(t, code, "a = 0x1F;")
	assert.Contains(t, code, "b = 0xA;")
	assert.Contains(t, code, "c = 42;")
	assert.Contains(t, code, "d = 7;")
}

func TestEmitExpr_BitIndexReadOnInteger(t *testing.T) {
	code := requireClean(t, generateC(t, `
u8 flags <- 0
bool ready <- false
func main() {
    ready <- flags[3]
}`))
	assert.Contains(t, code, "ready = ((flags >> 3) & 1);")
}

func TestEmitExpr_ArrayIndexReadStaysIndexed(t *testing.T) {
	code := requireClean(t, generateC(t, `
u8[4] buf
u8 x <- 0
func main() {
    x <- buf[2]
}`))
	assert.Contains(t, code, "x = buf[2];")
}

func TestEmitExpr_TernaryParenthesized(t *testing.T) {
	code := requireClean(t, generateC(t, `
u8 x <- 0
u8 y <- 0
func main() {
    y <- (x > 0) ? 1 : 2
}`))
	assert.Contains(t, code, "y = ((x > 0)) ? (1) : (2);")
}

func TestEmitExpr_NestedTernaryRejected(t *testing.T) {
	r := generateC(t, `
u8 x <- 0
u8 y <- 0
func main() {
    y <- (x > 0) ? ((x > 1) ? 1 : 2) : 3
}`)
	assert.Contains(t, diagCodes(r), E0703NestedTernary)
}

func TestEmitExpr_CastEmitsCType(t *testing.T) {
	code := requireClean(t, generateC(t, `
u8 small <- 0
u8 out <- 0
func main() {
    out <- (u8)(small)
}`))
	assert.Contains(t, code, "out = (uint8_t)(small);")
}

func TestEmitExpr_NarrowingCastDiagnosed(t *testing.T) {
	r := generateC(t, `
u32 big <- 1000
u8 out <- 0
func main() {
    out <- (u8)(big)
}`)
	assert.Contains(t, diagCodes(r), E0501Narrowing)
}

func TestEmitExpr_FloatToIntCastNeedsLimits(t *testing.T) {
	code := generateC(t, `
f32 level <- 1.5
u8 out <- 0
func main() {
    out <- (u8)(level)
}`).Code
	assert.Contains(t, code, "#include <limits.h>")
}

func TestEmitExpr_ShiftBoundValidatedInExpression(t *testing.T) {
	r := generateC(t, `
u8 x <- 1
u8 y <- 0
func main() {
    y <- x << 9
}`)
	assert.Contains(t, diagCodes(r), E0704ShiftBounds)
}

func TestEmitExpr_SizeofForms(t *testing.T) {
	code := requireClean(t, generateC(t, `
u32 n <- 0
func main() {
    n <- sizeof(u32)
}`))
	assert.Contains(t, code, "n = sizeof(uint32_t);")
}

func TestEmitExpr_SizeofArrayParamRejected(t *testing.T) {
	r := generateC(t, `
u32 n <- 0
func measure(u8[4] buf) {
    n <- sizeof(buf)
}`)
	assert.Contains(t, diagCodes(r), E0601SizeofArrayParam)
}

func TestEmitExpr_ScopeMemberCollisionRequiresThis(t *testing.T) {
	r := generateC(t, `
scope Counter {
    u8 count <- 0
    func bump() {
        u8 next <- count + 1
        this.count <- next
    }
}`)
	require.NotEmpty(t, r.Diagnostics)
	assert.Equal(t, E0709ScopeVisibility, r.Diagnostics[0].Code)
	assert.Contains(t, r.Diagnostics[0].Message, "use this.count")
}

func TestEmitExpr_LocalVariableNeedsNoThis(t *testing.T) {
	code := requireClean(t, generateC(t, `
scope Counter {
    u8 count <- 0
    func bump() {
        u8 count2 <- 0
        this.count <- count2 + 1
    }
}`))
	assert.Contains(t, code, "Counter_count = count2 + 1;")
}

func TestEmitExpr_RegisterMemberRead(t *testing.T) {
	code := requireClean(t, generateC(t, `
register R <- 0x4000 {
    ro u32 STATUS : 0x04
}
u32 v <- 0
func main() {
    v <- R.STATUS
}`))
	assert.Contains(t, code, "v = R_STATUS;")
}

func TestEmitExpr_BitmapFieldRead(t *testing.T) {
	code := requireClean(t, generateC(t, `
bitmap8 Flags { ready, mode[3], error }
Flags fl <- 0
u8 m <- 0
func main() {
    m <- fl.mode
}`))
	assert.Contains(t, code, "m = ((fl >> 1) & 0x7U);")
}

func TestEmitExpr_FunctionCall(t *testing.T) {
	code := requireClean(t, generateC(t, `
func add(u8 a, u8 b) u8 {
    return a + b
}
u8 total <- 0
func main() {
    total <- add(1, 2)
}`))
	assert.Contains(t, code, "total = add(1, 2);")
	assert.Contains(t, code, "uint8_t add(uint8_t a, uint8_t b)")
}

func TestEmitExpr_ConstParamWriteRejected(t *testing.T) {
	r := generateC(t, `
func consume(const u8 v) {
    v <- 3
}`)
	assert.Contains(t, diagCodes(r), E0708ConstWrite)
}

func TestDiagnosticPathQualified(t *testing.T) {
	r := generateC(t, `
scope Counter {
    func bump() {
        critical {
            return
        }
    }
}`)
	require.NotEmpty(t, r.Diagnostics)
	assert.Equal(t, E0853CriticalExit, r.Diagnostics[0].Code)
	assert.Equal(t, "Counter.bump", r.Diagnostics[0].Path)
}
