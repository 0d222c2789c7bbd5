package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump_RendersDeclarationTree(t *testing.T) {
	file, _, err := Parse([]byte(`
u8 x <- 0
func main() {
    x <- 1
}`))
	require.NoError(t, err)

	out := Dump(file)
	assert.Contains(t, out, "; declarations: 2")
	assert.Contains(t, out, "var x")
	assert.Contains(t, out, "func main")
	assert.Contains(t, out, "assign op=<-")
}

func TestDump_EmptyFile(t *testing.T) {
	out := Dump(&Node{Kind: NFile})
	assert.Contains(t, out, "; declarations: 0")
}
