package ast

import (
	"fmt"
	"strings"
)

// nodeKindName names a NodeKind the way backend_ir.go's opcodeName
// names an Opcode: a flat switch, not a Stringer generated from the
// const block, so new kinds force an explicit decision here.
func nodeKindName(k NodeKind) string {
	switch k {
	case NFile:
		return "file"
	case NScopeDecl:
		return "scope"
	case NStructDecl:
		return "struct"
	case NEnumDecl:
		return "enum"
	case NBitmapDecl:
		return "bitmap"
	case NRegisterDecl:
		return "register"
	case NFuncDecl:
		return "func"
	case NParam:
		return "param"
	case NField:
		return "field"
	case NVarDecl:
		return "var"
	case NBlock:
		return "block"
	case NIf:
		return "if"
	case NFor:
		return "for"
	case NWhile:
		return "while"
	case NDoWhile:
		return "do-while"
	case NSwitch:
		return "switch"
	case NCase:
		return "case"
	case NReturn:
		return "return"
	case NBreak:
		return "break"
	case NContinue:
		return "continue"
	case NCritical:
		return "critical"
	case NAssign:
		return "assign"
	case NExprStmt:
		return "expr-stmt"
	case NIdent:
		return "ident"
	case NIntLit:
		return "int-lit"
	case NFloatLit:
		return "float-lit"
	case NStringLit:
		return "string-lit"
	case NBoolLit:
		return "bool-lit"
	case NBinaryExpr:
		return "binary"
	case NUnaryExpr:
		return "unary"
	case NTernary:
		return "ternary"
	case NCallExpr:
		return "call"
	case NIndexExpr:
		return "index"
	case NRangeIndex:
		return "range-index"
	case NSliceIndex:
		return "slice-index"
	case NSelectorExpr:
		return "selector"
	case NThisExpr:
		return "this"
	case NGlobalExpr:
		return "global"
	case NCastExpr:
		return "cast"
	case NSizeofExpr:
		return "sizeof"
	case NParenExpr:
		return "paren"
	}
	return "?"
}

// Dump renders a readable textual form of the parsed tree: a banner
// comment followed by indented per-node lines. This backs the
// `cnxgen format` subcommand's dump-for-debugging output.
func Dump(file *Node) string {
	var sb strings.Builder
	sb.WriteString("; cnx AST dump\n")
	sb.WriteString(fmt.Sprintf("; declarations: %d\n\n", len(file.Nodes)))
	for _, decl := range file.Nodes {
		dumpNode(&sb, decl, 0)
	}
	return sb.String()
}

func dumpNode(sb *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	pad := strings.Repeat("  ", depth)
	head := nodeKindName(n.Kind)
	if n.Name != "" {
		head += " " + n.Name
	}
	if n.Op != "" {
		head += " op=" + n.Op
	}
	sb.WriteString(fmt.Sprintf("%sline %d: %s\n", pad, n.Line, head))

	for _, c := range n.Nodes {
		dumpNode(sb, c, depth+1)
	}
	dumpField(sb, "type", n.Type, depth+1)
	dumpField(sb, "x", n.X, depth+1)
	dumpField(sb, "y", n.Y, depth+1)
	dumpField(sb, "z", n.Z, depth+1)
	dumpField(sb, "body", n.Body, depth+1)
	dumpField(sb, "else", n.Else, depth+1)
}

func dumpField(sb *strings.Builder, label string, n *Node, depth int) {
	if n == nil {
		return
	}
	pad := strings.Repeat("  ", depth)
	sb.WriteString(fmt.Sprintf("%s%s:\n", pad, label))
	dumpNode(sb, n, depth+1)
}
