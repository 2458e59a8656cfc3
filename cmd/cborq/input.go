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
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/blinklabs-io/cborquery/batch"
	"github.com/blinklabs-io/cborquery/cborpath"
	"github.com/blinklabs-io/cborquery/query"
	"github.com/dolmen-go/contextio"
	"github.com/spf13/cobra"
)

type input struct {
	name string
	data []byte
}

// readInputs reads every --file, or stdin when none was given
func readInputs(ctx context.Context, cmd *cobra.Command, opts *rootOptions) ([]input, error) {
	files := opts.files
	if len(files) == 0 {
		files = []string{"-"}
	}
	ret := make([]input, 0, len(files))
	for _, name := range files {
		data, err := readInput(ctx, cmd, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if opts.inputHex {
			if data, err = decodeHexInput(data); err != nil {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
		}
		ret = append(ret, input{name: name, data: data})
	}
	return ret, nil
}

func readInput(ctx context.Context, cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(contextio.NewReader(ctx, cmd.InOrStdin()))
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(contextio.NewReader(ctx, f))
}

func decodeHexInput(data []byte) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(data))
	return hex.DecodeString(cleaned)
}

// buildQuery compiles the expressions of a command line. Several expressions
// project into a sequence; entries project into a dictionary.
func buildQuery(opts *rootOptions, exprs []string, entries []string) (*query.Query, error) {
	var b *query.Builder
	var err error
	switch {
	case len(entries) > 0 && len(exprs) > 0:
		return nil, errors.New("expressions and --entry cannot be combined")
	case len(entries) > 0:
		parsed := make([]cborpath.Entry, 0, len(entries))
		for _, entry := range entries {
			tmpEntry, err := cborpath.ParseEntry(entry)
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, tmpEntry)
		}
		b, err = cborpath.ParseDictionary(parsed...)
	case len(exprs) == 0:
		b = query.Path()
	case len(exprs) == 1:
		b, err = cborpath.Parse(exprs[0])
	default:
		b, err = cborpath.ParseSequence(exprs...)
	}
	if err != nil {
		return nil, err
	}
	return query.Compile(b, opts.compileOptions()...)
}

// evaluateInputs runs q against every input concurrently and returns the
// documents in input order
func evaluateInputs(ctx context.Context, opts *rootOptions, q *query.Query, inputs []input) ([]*batch.Document, error) {
	docs := make([][]byte, len(inputs))
	for i, in := range inputs {
		docs[i] = in.data
	}
	ret, err := batch.Run(
		ctx,
		q,
		docs,
		batch.WithStream(opts.all),
		batch.WithEvalOptions(opts.evalOptions()...),
		batch.WithLogger(opts.logger),
	)
	if err != nil {
		return nil, err
	}
	for i, doc := range ret {
		if err := doc.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", inputs[i].name, err)
		}
	}
	return ret, nil
}
