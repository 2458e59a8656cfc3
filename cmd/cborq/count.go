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

	"github.com/spf13/cobra"
)

func newCountCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count [expr...]",
		Short: "Count the values selected by path expressions",
		Long: `Count the present values selected by path expressions. With several
inputs, one count per input is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(cmd, opts, args)
		},
	}
	return cmd
}

func runCount(cmd *cobra.Command, opts *rootOptions, exprs []string) error {
	q, err := buildQuery(opts, exprs, nil)
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
	out := cmd.OutOrStdout()
	for i, doc := range docs {
		count := 0
		for _, v := range doc.Results() {
			if !v.IsAbsent() {
				count++
			}
		}
		opts.logger.Debug(
			"evaluated input",
			"input",
			inputs[i].name,
			"values",
			count,
			"duration",
			doc.Duration(),
		)
		if len(docs) == 1 {
			fmt.Fprintln(out, count)
			continue
		}
		fmt.Fprintf(out, "%s: %d\n", inputs[i].name, count)
	}
	return nil
}
