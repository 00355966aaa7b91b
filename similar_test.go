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

package stardict

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dictutil/sdquery/dict"
	"github.com/dictutil/sdquery/internal/testutil"
)

// TestLookupSimilar tests the case and inflection fallback rules.
func TestLookupSimilar(t *testing.T) {
	t.Parallel()

	// Headwords in index order.
	headwords := []string{"box", "color", "hop", "quick", "study", "write"}

	tests := []struct {
		name  string
		query string

		// expected is the matched headword, empty for no match.
		expected string
	}{
		{
			name:     "lowercase variant",
			query:    "Color",
			expected: "color",
		},
		{
			name:     "all caps",
			query:    "COLOR",
			expected: "color",
		},
		{
			name:     "plural s",
			query:    "colors",
			expected: "color",
		},
		{
			name:     "uppercase plural",
			query:    "COLORS",
			expected: "color",
		},
		{
			name:     "es after x",
			query:    "boxes",
			expected: "box",
		},
		{
			name:     "ing with restored e",
			query:    "writing",
			expected: "write",
		},
		{
			name:     "doubled consonant ed",
			query:    "hopped",
			expected: "hop",
		},
		{
			name:     "doubled consonant ing",
			query:    "hopping",
			expected: "hop",
		},
		{
			name:     "ied to y",
			query:    "studied",
			expected: "study",
		},
		{
			name:     "ies to y",
			query:    "studies",
			expected: "study",
		},
		{
			name:     "er",
			query:    "quicker",
			expected: "quick",
		},
		{
			name:     "est",
			query:    "quickest",
			expected: "quick",
		},
		{
			name:  "no similar form",
			query: "zebra",
		},
		{
			name:  "non ascii skips inflection rules",
			query: "cafés",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			words := make([]*testutil.Word, 0, len(headwords))
			for _, w := range headwords {
				words = append(words, &testutil.Word{
					Word: w,
					Data: []*dict.Data{{Type: dict.UTFTextType, Data: []byte(w)}},
				})
			}
			ifoPath := testutil.WriteDict(t, t.TempDir(), &testutil.Dict{
				SameTypeSequence: "m",
				Words:            words,
			})
			s, err := Open(ifoPath, &Options{
				EntriesPerPage: 2,
				CacheDir:       t.TempDir(),
			})
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()

			indices, err := s.lookupSimilar(test.query)
			if err != nil {
				t.Fatalf("lookupSimilar(%q): %v", test.query, err)
			}

			var got []string
			for _, i := range indices {
				key, err := s.GetKey(i)
				if err != nil {
					t.Fatalf("GetKey(%d): %v", i, err)
				}
				got = append(got, key)
			}
			var expected []string
			if test.expected != "" {
				expected = []string{test.expected}
			}
			if diff := cmp.Diff(expected, got); diff != "" {
				t.Fatalf("lookupSimilar(%q) (-want, +got):\n%s", test.query, diff)
			}
		})
	}
}
