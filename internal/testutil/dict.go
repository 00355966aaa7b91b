// Copyright 2024 The sdquery Authors
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

package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/dictutil/sdquery/dict"
)

// MakeArticle encodes a single article as stored in a .dict file.
// With a sameTypeSequence the type tags are omitted and the last
// field carries neither a terminator nor a length prefix; its extent
// is implied by the article size.
func MakeArticle(t *testing.T, data []*dict.Data, sameTypeSequence []dict.DataType) []byte {
	t.Helper()

	b := []byte{}
	if len(sameTypeSequence) == 0 {
		for _, d := range data {
			b = append(b, byte(d.Type))
			if d.Type.IsText() {
				b = append(b, d.Data...)
				b = append(b, 0) // Append a zero byte terminator.
			} else {
				b = binary.BigEndian.AppendUint32(b, uint32(len(d.Data)))
				b = append(b, d.Data...)
			}
		}
		return b
	}

	if len(data) != len(sameTypeSequence) {
		t.Fatalf("article has %d fields, sametypesequence %d", len(data), len(sameTypeSequence))
	}
	last := len(data) - 1
	for i, d := range data {
		if d.Type != sameTypeSequence[i] {
			t.Fatalf("field %d has type %q, sametypesequence says %q", i, d.Type, sameTypeSequence[i])
		}
		if d.Type.IsText() {
			b = append(b, d.Data...)
			if i != last {
				b = append(b, 0)
			}
		} else {
			if i != last {
				b = binary.BigEndian.AppendUint32(b, uint32(len(d.Data)))
			}
			b = append(b, d.Data...)
		}
	}
	return b
}

// MakeDict makes a test .dict file holding the given articles
// back to back.
func MakeDict(t *testing.T, articles [][]*dict.Data, sameTypeSequence []dict.DataType) []byte {
	t.Helper()

	b := []byte{}
	for _, data := range articles {
		b = append(b, MakeArticle(t, data, sameTypeSequence)...)
	}
	return b
}
