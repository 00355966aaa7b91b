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

	"github.com/dictutil/sdquery/idx"
)

// MakeIndex makes a test index given a list of words. The words must
// already be in index order.
func MakeIndex(words []*idx.Word) []byte {
	b := []byte{}
	for _, w := range words {
		b = append(b, []byte(w.Word)...)
		b = append(b, 0) // Add the zero byte terminator.
		b = binary.BigEndian.AppendUint32(b, w.Offset)
		b = binary.BigEndian.AppendUint32(b, w.Size)
	}
	return b
}
