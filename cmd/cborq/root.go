// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/blinklabs-io/cborquery/query"
	"github.com/spf13/cobra"
)

var (
	validFormats     = []string{"json", "yaml", "diag", "hex", "tree"}
	validProjections = []string{"binary", "object"}
)

type rootOptions struct {
	files      []string
	inputHex   bool
	all        bool
	format     string
	projection string
	noOptimize bool
	verbose    bool

	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "cborq",
		Short: "Query and project CBOR data",
		Long: `cborq evaluates path expressions against CBOR input without decoding
the whole document.

Expressions look like $.a[0]["b c"][*], with [#12] for integer keys and
[?type] for type assertions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.format, validFormats)
			}
			if !slices.Contains(validProjections, opts.projection) {
				return fmt.Errorf("invalid projection %q: must be one of %v", opts.projection, validProjections)
			}
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(
				slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}),
			)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringArrayVarP(&opts.files, "file", "f", nil, "input file, - for stdin (repeatable)")
	flags.BoolVarP(&opts.inputHex, "input-hex", "x", false, "input is hex encoded")
	flags.BoolVar(&opts.all, "all", false, "evaluate every top-level value of each input")
	flags.StringVar(&opts.format, "format", "json", "output format (json|yaml|diag|hex|tree)")
	flags.StringVar(&opts.projection, "projection", "binary", "projection strategy (binary|object)")
	flags.BoolVar(&opts.noOptimize, "no-optimize", false, "skip query optimization")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging on stderr")

	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newCountCommand(opts))
	cmd.AddCommand(newPlanCommand(opts))

	return cmd
}

func (o *rootOptions) compileOptions() []query.CompileOption {
	ret := []query.CompileOption{query.WithCompileLogger(o.logger)}
	if o.noOptimize {
		ret = append(ret, query.WithoutOptimizer())
	}
	return ret
}

func (o *rootOptions) evalOptions() []query.EvalOption {
	if o.projection == "object" {
		return []query.EvalOption{query.WithProjection(query.NewObjectProjection)}
	}
	return nil
}
