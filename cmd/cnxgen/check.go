package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cnxlang/cnxgen/internal/ast"
	"github.com/cnxlang/cnxgen/internal/codegen"
	"github.com/cnxlang/cnxgen/internal/symbols"
)

// newCheckCmd runs the full pipeline but discards the generated code,
// reporting only diagnostics — useful for editor integration and CI
// gates that shouldn't care about the emitted C text.
func newCheckCmd() *cobra.Command {
	var cppMode bool

	cmd := &cobra.Command{
		Use:   "check <file.cnx>",
		Short: "Validate a source file without emitting C/C++",
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

			si, symErrs := symbols.Build(file)
			for _, e := range symErrs {
				fmt.Fprintln(os.Stderr, e)
			}

			result := codegen.Generate(file, nil, si, codegen.Options{
				SourcePath: sourcePath,
				CPPMode:    cppMode,
				TargetCapabilities: codegen.TargetCapabilities{
					HasFPU: true, HasHardwareDivide: true, HasAtomic: true, MaxBitWidth: 64,
				},
			})

			if len(result.Diagnostics) == 0 && len(symErrs) == 0 {
				fmt.Println("ok")
				return nil
			}
			for _, d := range result.Diagnostics {
				fmt.Fprintln(os.Stderr, d.Error())
			}
			return errors.Errorf("%d diagnostics emitted", len(result.Diagnostics)+len(symErrs))
		},
	}

	cmd.Flags().BoolVar(&cppMode, "cpp", false, "validate as C++ rather than C")
	return cmd
}
