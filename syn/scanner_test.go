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

package syn_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dictutil/sdquery/internal/testutil"
	"github.com/dictutil/sdquery/syn"
)

// TestScanner tests Scanner.
func TestScanner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		words []*syn.Word

		expectedPos []int64
	}{
		{
			name:  "empty",
			words: nil,
		},
		{
			name: "single record",
			words: []*syn.Word{
				{Word: "colour", TargetIndex: 3},
			},
			expectedPos: []int64{0},
		},
		{
			name: "multiple records",
			words: []*syn.Word{
				{Word: "colour", TargetIndex: 3},
				{Word: "grey", TargetIndex: 9},
				{Word: "metre", TargetIndex: 12},
			},
			expectedPos: []int64{0, 11, 20},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			s := syn.NewScanner(bytes.NewReader(testutil.MakeSyn(test.words)))

			var words []*syn.Word
			var pos []int64
			for s.Scan() {
				words = append(words, s.Word())
				pos = append(pos, s.Pos())
			}
			if err := s.Err(); err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if diff := cmp.Diff(test.words, words); diff != "" {
				t.Fatalf("words (-want, +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.expectedPos, pos); diff != "" {
				t.Fatalf("positions (-want, +got):\n%s", diff)
			}
		})
	}
}

// TestScanner_Corrupt tests Scanner on malformed input.
func TestScanner_Corrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "unterminated word",
			data: []byte("colour"),
		},
		{
			name: "truncated record",
			data: []byte("colour\x00\x00\x00"),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			s := syn.NewScanner(bytes.NewReader(test.data))
			for s.Scan() {
			}
			if err := s.Err(); !errors.Is(err, syn.ErrCorruptSyn) {
				t.Fatalf("Err; want %v, got: %v", syn.ErrCorruptSyn, err)
			}
		})
	}
}
