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
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/blinklabs-io/cborquery/cbor"
	"github.com/blinklabs-io/cborquery/query"
	"gopkg.in/yaml.v3"
)

// valueWriter writes query results in one output format
type valueWriter struct {
	format string
	w      io.Writer
	yaml   *yaml.Encoder
}

func newValueWriter(format string, w io.Writer) *valueWriter {
	ret := &valueWriter{format: format, w: w}
	if format == "yaml" {
		ret.yaml = yaml.NewEncoder(w)
		ret.yaml.SetIndent(2)
	}
	return ret
}

func (vw *valueWriter) Write(v query.Value) error {
	switch vw.format {
	case "hex", "diag", "tree":
		raw, err := v.Raw()
		if err != nil {
			return err
		}
		switch vw.format {
		case "hex":
			_, err = fmt.Fprintln(vw.w, hex.EncodeToString(raw))
			return err
		case "tree":
			var tmp any
			if _, err := cbor.Decode(raw, &tmp); err != nil {
				return err
			}
			_, err = io.WriteString(vw.w, cbor.DumpCborStructure(tmp, ""))
			return err
		}
		diag, err := cbor.Diagnose(raw)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(vw.w, diag)
		return err
	}
	native, err := v.Interface()
	if err != nil {
		return err
	}
	native = normalize(native)
	if vw.yaml != nil {
		return vw.yaml.Encode(native)
	}
	enc := json.NewEncoder(vw.w)
	enc.SetIndent("", "  ")
	return enc.Encode(native)
}

func (vw *valueWriter) Close() error {
	if vw.yaml != nil {
		return vw.yaml.Close()
	}
	return nil
}

// normalize converts materialized values into types that JSON and YAML encoders
// render faithfully
func normalize(v any) any {
	switch tmp := v.(type) {
	case nil, bool, string, int64, uint64, float64:
		return tmp
	case []byte:
		return hex.EncodeToString(tmp)
	case []any:
		ret := make([]any, len(tmp))
		for i, item := range tmp {
			ret[i] = normalize(item)
		}
		return ret
	case map[any]any:
		ret := make(map[string]any, len(tmp))
		for key, value := range tmp {
			ret[keyString(key)] = normalize(value)
		}
		return ret
	case cbor.Tag:
		return map[string]any{
			"tag":     tmp.Number,
			"content": normalize(tmp.Content),
		}
	case time.Time:
		return tmp.Format(time.RFC3339Nano)
	case *big.Int:
		return tmp.String()
	case *big.Rat:
		return tmp.RatString()
	case fmt.Stringer:
		return tmp.String()
	default:
		return fmt.Sprint(tmp)
	}
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(normalize(key))
}
