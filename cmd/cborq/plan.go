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
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/cborquery/query"
	"github.com/spf13/cobra"
)

func newPlanCommand(opts *rootOptions) *cobra.Command {
	var entries []string
	var fingerprint bool

	cmd := &cobra.Command{
		Use:   "plan [expr...]",
		Short: "Print the compiled execution tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := buildQuery(opts, args, entries)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := query.Dump(out, q.Store(), q.Root()); err != nil {
				return err
			}
			if fingerprint {
				sum := q.Fingerprint()
				fmt.Fprintf(out, "fingerprint: %s\n", hex.EncodeToString(sum[:]))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&entries, "entry", "e", nil, "dictionary entry as key=expr (repeatable)")
	cmd.Flags().BoolVar(&fingerprint, "fingerprint", false, "also print the structural fingerprint")

	return cmd
}
