package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cnxlang/cnxgen/internal/ast"
)

// newFormatCmd is a debugging aid: it prints the AST the core would
// consume, pretty-printed, rather than reformatting source text.
func newFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format <file.cnx>",
		Short: "Dump the parsed AST for debugging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath := args[0]
			src, err := os.ReadFile(sourcePath)
			if err != nil {
				return errors.Wrapf(err, "reading %s", sourcePath)
			}
			file, _, err := ast.Parse(src)
			if err != nil {
				return errors.Wrap(err, "parsing source")
			}
			_, err = os.Stdout.WriteString(ast.Dump(file))
			return errors.Wrap(err, "writing dump")
		},
	}
	return cmd
}
