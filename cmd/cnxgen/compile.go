package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cnxlang/cnxgen/internal/ast"
	"github.com/cnxlang/cnxgen/internal/codegen"
	"github.com/cnxlang/cnxgen/internal/symbols"
)

func newCompileCmd() *cobra.Command {
	var outputPath string
	var cppMode bool
	var hasFPU, hasHardwareDivide, hasAtomic, hasLLSC bool
	var maxBitWidth int

	cmd := &cobra.Command{
		Use:   "compile <file.cnx>",
		Short: "Translate a source file into C or C++",
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
				log.Warn(e)
			}

			result := codegen.Generate(file, nil, si, codegen.Options{
				SourcePath: sourcePath,
				CPPMode:    cppMode,
				TargetCapabilities: codegen.TargetCapabilities{
					HasFPU:            hasFPU,
					HasHardwareDivide: hasHardwareDivide,
					MaxBitWidth:       maxBitWidth,
					HasAtomic:         hasAtomic,
					HasLLSC:           hasLLSC,
				},
			})

			if len(result.Diagnostics) > 0 {
				for _, d := range result.Diagnostics {
					log.Errorf("%s", d.Error())
				}
				return errors.Errorf("%d diagnostics emitted", len(result.Diagnostics))
			}

			if outputPath == "" {
				_, err = os.Stdout.WriteString(result.Code)
				return errors.Wrap(err, "writing output")
			}
			return errors.Wrapf(os.WriteFile(outputPath, []byte(result.Code), 0644), "writing %s", outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (defaults to stdout)")
	cmd.Flags().BoolVar(&cppMode, "cpp", false, "emit C++ instead of C")
	cmd.Flags().BoolVar(&hasFPU, "has-fpu", true, "target has a hardware floating-point unit")
	cmd.Flags().BoolVar(&hasHardwareDivide, "has-hw-divide", true, "target has a hardware integer divider")
	cmd.Flags().BoolVar(&hasAtomic, "has-atomic", true, "target supports compiler atomic builtins")
	cmd.Flags().BoolVar(&hasLLSC, "has-llsc", false, "target supports load-link/store-conditional atomics")
	cmd.Flags().IntVar(&maxBitWidth, "max-bit-width", 64, "widest native integer width on the target")
	return cmd
}
