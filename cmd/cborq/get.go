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
	"github.com/spf13/cobra"
)

func newGetCommand(opts *rootOptions) *cobra.Command {
	var entries []string

	cmd := &cobra.Command{
		Use:   "get [expr...]",
		Short: "Print the values selected by path expressions",
		Long: `Print the values selected by path expressions.

With no expression the whole input is printed. Several expressions are
projected into a sequence, and --entry key=expr pairs into a dictionary.`,
		Example: `  cborq get -f tx.cbor '$[0][#2]'
  cborq get -f tx.cbor --format diag '$[0][#0][*]'
  cborq get -x -e fee='$[0][#2]' -e ttl='$[0][#3]' < tx.hex`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, opts, args, entries)
		},
	}

	cmd.Flags().StringArrayVarP(&entries, "entry", "e", nil, "dictionary entry as key=expr (repeatable)")

	return cmd
}

func runGet(cmd *cobra.Command, opts *rootOptions, exprs []string, entries []string) error {
	q, err := buildQuery(opts, exprs, entries)
	if err != nil {
		return err
	}
	inputs, err := readInputs(cmd.Context(), cmd, opts)
	if err != nil {
		return err
	}
	docs, err := evaluateInputs(cmd.Context(), opts, q, inputs)
	if err != nil {
		return err
	}
	vw := newValueWriter(opts.format, cmd.OutOrStdout())
	for _, doc := range docs {
		for _, v := range doc.Results() {
			if err := vw.Write(v); err != nil {
				return err
			}
		}
	}
	return vw.Close()
}
