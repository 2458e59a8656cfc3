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

// Package cbor provides CBOR wire helpers used by the query engine.
//
// # Byte-level primitives
//
// The header functions operate on a byte slice and an offset without decoding
// whole values:
//   - Header, HeaderSize, ReadUint: header decomposition and argument
//   - ElementCount: sequence elements or dictionary entries, scanning
//     indefinite-length containers up to the break byte
//   - StringByteSize, ByteSize: encoded size of strings and arbitrary items
//   - Span, RawSpan: the exact bytes of an item, suitable for verbatim copying
//   - ReadInt, ReadBigInt, ReadFloat, ReadBool, ReadText, ReadBytes: scalars
//
// Reserved additional info values (28-30) fail with ErrIllegalFormat, reads past
// the end of the input fail with *NoSuchByteError and magnitudes that cannot be
// represented fail with ErrOverflow.
//
// # Codec
//
// Decode and Encode wrap github.com/fxamacker/cbor/v2 with cached modes and a
// custom tag set (tag 24 WrappedCbor, tag 30 Rat). DecodeGeneric bypasses a
// destination's UnmarshalCBOR() method.
package cbor
