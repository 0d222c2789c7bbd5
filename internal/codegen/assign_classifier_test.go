package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cnxlang/cnxgen/internal/ast"
	"github.com/cnxlang/cnxgen/internal/symbols"
)

// classifyFirst runs declaration emission (to populate the type
// registry) and classifies the first assignment found in a function
// body, mirroring how Generate drives Classify.
func classifyFirst(t *testing.T, src string) (AssignmentKind, AssignmentContext, *State) {
	t.Helper()
	file, _, err := ast.Parse([]byte(src))
	require.NoError(t, err)
	si, symErrs := symbols.Build(file)
	require.Empty(t, symErrs)

	s := New(si, ModeC, defaultCaps, "test.cnx")
	var discard strings.Builder
	var assign *ast.Node
	var scopeName string
	for _, d := range file.Nodes {
		switch d.Kind {
		case ast.NFuncDecl:
			assign = firstAssign(d.Body)
		case ast.NScopeDecl:
			for _, m := range d.Nodes {
				if m.Kind == ast.NFuncDecl {
					if a := firstAssign(m.Body); a != nil {
						assign = a
						scopeName = d.Name
					}
				} else {
					s.EnterScope(d.Name)
					s.emitTopDecl(&discard, &ast.Node{Kind: ast.NScopeDecl, Name: d.Name, Nodes: []*ast.Node{m}})
					s.LeaveScope()
				}
			}
		default:
			s.emitTopDecl(&discard, d)
		}
	}
	require.NotNil(t, assign, "no assignment statement found in source")
	s.EnterScope(scopeName)
	if scopeName == "" {
		s.LeaveScope()
	}
	kind, ctx := s.Classify(assign)
	return kind, ctx, s
}

func firstAssign(body *ast.Node) *ast.Node {
	if body == nil {
		return nil
	}
	for _, stmt := range body.Nodes {
		if stmt.Kind == ast.NAssign {
			return stmt
		}
	}
	return nil
}

func TestClassify_KindSelection(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want AssignmentKind
	}{
		{
			name: "simple identifier",
			src:  "u8 x <- 0\nfunc f() {\n    x <- 1\n}",
			want: SIMPLE,
		},
		{
			name: "atomic compound",
			src:  "atomic u32 n\nfunc f() {\n    n +<- 1\n}",
			want: ATOMIC_RMW,
		},
		{
			name: "atomic plain assign stays simple",
			src:  "atomic u32 n\nfunc f() {\n    n <- 1\n}",
			want: SIMPLE,
		},
		{
			name: "overflow clamp",
			src:  "clamp u8 c\nfunc f() {\n    c +<- 200\n}",
			want: OVERFLOW_CLAMP,
		},
		{
			name: "integer bit",
			src:  "u8 flags <- 0\nfunc f() {\n    flags[3] <- true\n}",
			want: INTEGER_BIT,
		},
		{
			name: "integer bit range",
			src:  "u32 v <- 0\nfunc f() {\n    v[0, 7] <- 0xFF\n}",
			want: INTEGER_BIT_RANGE,
		},
		{
			name: "array element",
			src:  "u8[4] buf\nfunc f() {\n    buf[1] <- 5\n}",
			want: ARRAY_ELEMENT,
		},
		{
			name: "multi dim array element",
			src:  "u8[2][3] grid\nfunc f() {\n    grid[1][2] <- 5\n}",
			want: MULTI_DIM_ARRAY_ELEMENT,
		},
		{
			name: "bit beyond array dims",
			src:  "u8[4] buf\nfunc f() {\n    buf[1][7] <- true\n}",
			want: ARRAY_ELEMENT_BIT,
		},
		{
			name: "array slice",
			src:  "u8[8] buf\nu8[4] src\nfunc f() {\n    buf[2, 4] <- src\n}",
			want: ARRAY_SLICE,
		},
		{
			name: "string simple",
			src:  "string<16> name\nfunc f() {\n    name <- \"hi\"\n}",
			want: STRING_SIMPLE,
		},
		{
			name: "register bit",
			src:  "register R <- 0x4000 {\n    rw u32 CTRL : 0x00\n}\nfunc f() {\n    R.CTRL[3] <- true\n}",
			want: GLOBAL_REGISTER_BIT,
		},
		{
			name: "register bit range",
			src:  "register R <- 0x4000 {\n    rw u32 CTRL : 0x00\n}\nfunc f() {\n    R.CTRL[0, 7] <- 0xFF\n}",
			want: GLOBAL_REGISTER_BIT_RANGE,
		},
		{
			name: "this member",
			src:  "scope S {\n    u8 v <- 0\n    func f() {\n        this.v <- 1\n    }\n}",
			want: THIS_MEMBER,
		},
		{
			name: "this member bit",
			src:  "scope S {\n    u8 v <- 0\n    func f() {\n        this.v[2] <- true\n    }\n}",
			want: STRUCT_MEMBER_BIT,
		},
		{
			name: "bitmap field single bit",
			src:  "bitmap8 Flags { ready, mode[3] }\nFlags fl <- 0\nfunc f() {\n    fl.ready <- 1\n}",
			want: BITMAP_FIELD_SINGLE_BIT,
		},
		{
			name: "bitmap field multi bit",
			src:  "bitmap8 Flags { ready, mode[3] }\nFlags fl <- 0\nfunc f() {\n    fl.mode <- 5\n}",
			want: BITMAP_FIELD_MULTI_BIT,
		},
		{
			name: "bitmap array element field",
			src:  "bitmap8 Flags { ready, mode[3] }\nFlags[4] flArr\nfunc f() {\n    flArr[2].ready <- 1\n}",
			want: BITMAP_ARRAY_ELEMENT_FIELD,
		},
		{
			name: "scope qualified member chain",
			src:  "scope S {\n    u8 v <- 0\n}\nscope T {\n    func f() {\n        S.v <- 1\n    }\n}",
			want: MEMBER_CHAIN,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, _, _ := classifyFirst(t, tt.src)
			require.Equal(t, tt.want, kind)
		})
	}
}

func TestClassify_ContextShape(t *testing.T) {
	kind, ctx, _ := classifyFirst(t, "u8 flags <- 0\nfunc f() {\n    flags[3] <- true\n}")
	require.Equal(t, INTEGER_BIT, kind)
	require.Equal(t, []string{"flags"}, ctx.IdentPath)
	require.Len(t, ctx.Subscripts, 1)
	require.Equal(t, "<-", ctx.SourceOp)
	require.Equal(t, "=", ctx.COp)
	require.Equal(t, "flags", ctx.ResolvedBaseIdent)

	kind, ctx, _ = classifyFirst(t, "u32 v <- 0\nfunc f() {\n    v[0, 7] <- 1\n}")
	require.Equal(t, INTEGER_BIT_RANGE, kind)
	require.True(t, ctx.IsRangeSubscript)
	require.Equal(t, "0", ctx.RangeLo.Name)
	require.Equal(t, "7", ctx.RangeHi.Name)
}
