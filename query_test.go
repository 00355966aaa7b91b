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
)

// TestAnalyzeQuery tests query classification.
func TestAnalyzeQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string

		expectedType    QueryType
		expectedPayload string
	}{
		{
			name:            "empty",
			query:           "",
			expectedType:    SimpleQuery,
			expectedPayload: "",
		},
		{
			name:            "simple word",
			query:           "color",
			expectedType:    SimpleQuery,
			expectedPayload: "color",
		},
		{
			name:            "fuzzy prefix",
			query:           "/colr",
			expectedType:    FuzzyQuery,
			expectedPayload: "colr",
		},
		{
			name:            "data prefix",
			query:           "|visual property",
			expectedType:    DataQuery,
			expectedPayload: "visual property",
		},
		{
			name:            "star makes a glob",
			query:           "colo*",
			expectedType:    GlobQuery,
			expectedPayload: "colo*",
		},
		{
			name:            "question mark makes a glob",
			query:           "gr?y",
			expectedType:    GlobQuery,
			expectedPayload: "gr?y",
		},
		{
			name:            "escaped star stays simple",
			query:           `colo\*`,
			expectedType:    SimpleQuery,
			expectedPayload: "colo*",
		},
		{
			name:            "escaped backslash",
			query:           `a\\b`,
			expectedType:    SimpleQuery,
			expectedPayload: `a\b`,
		},
		{
			name:            "trailing backslash dropped",
			query:           `color\`,
			expectedType:    SimpleQuery,
			expectedPayload: "color",
		},
		{
			name:            "escape inside glob",
			query:           `a\*b*`,
			expectedType:    GlobQuery,
			expectedPayload: "a*b*",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			qt, payload := AnalyzeQuery(test.query)
			if qt != test.expectedType {
				t.Fatalf("AnalyzeQuery(%q) type; want: %v, got: %v", test.query, test.expectedType, qt)
			}
			if payload != test.expectedPayload {
				t.Fatalf("AnalyzeQuery(%q) payload; want: %q, got: %q", test.query, test.expectedPayload, payload)
			}
		})
	}
}

// TestParseSearchWords tests full-text query splitting.
func TestParseSearchWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string

		expected [][]byte
	}{
		{
			name:     "single word",
			query:    "fruit",
			expected: [][]byte{[]byte("fruit")},
		},
		{
			name:     "multiple words",
			query:    "small round fruit",
			expected: [][]byte{[]byte("small"), []byte("round"), []byte("fruit")},
		},
		{
			name:     "repeated spaces",
			query:    "small   fruit",
			expected: [][]byte{[]byte("small"), []byte("fruit")},
		},
		{
			name:     "escaped space",
			query:    `small\ fruit`,
			expected: [][]byte{[]byte("small fruit")},
		},
		{
			name:     "escaped backslash",
			query:    `a\\b`,
			expected: [][]byte{[]byte(`a\b`)},
		},
		{
			name:     "escaped tab and newline",
			query:    `a\tb\nc`,
			expected: [][]byte{[]byte("a\tb\nc")},
		},
		{
			name:     "unknown escape is literal",
			query:    `a\xb`,
			expected: [][]byte{[]byte("axb")},
		},
		{
			name:     "trailing backslash dropped",
			query:    `fruit\`,
			expected: [][]byte{[]byte("fruit")},
		},
		{
			name:     "empty",
			query:    "",
			expected: nil,
		},
		{
			name:     "only spaces",
			query:    "   ",
			expected: nil,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			got := parseSearchWords(test.query)
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Fatalf("parseSearchWords(%q) (-want, +got):\n%s", test.query, diff)
			}
		})
	}
}
