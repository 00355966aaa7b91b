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

import "strings"

// QueryType is the kind of lookup a query string asks for.
type QueryType int

const (
	// SimpleQuery is an exact headword lookup.
	SimpleQuery QueryType = iota

	// GlobQuery is a headword pattern lookup with '*' and '?'
	// wildcards.
	GlobQuery

	// FuzzyQuery is an approximate headword lookup.
	FuzzyQuery

	// DataQuery is a full-text search of article bodies.
	DataQuery
)

// AnalyzeQuery classifies a raw query string and returns the payload
// to look up. A leading '/' requests a fuzzy lookup and a leading '|'
// a full-text search; both payloads are the rest of the string
// verbatim. Otherwise unescaped '*' or '?' make the query a glob
// pattern. Backslashes escape the following character and are removed
// from the payload.
func AnalyzeQuery(s string) (QueryType, string) {
	if s == "" {
		return SimpleQuery, ""
	}
	switch s[0] {
	case '/':
		return FuzzyQuery, s[1:]
	case '|':
		return DataQuery, s[1:]
	}

	qt := SimpleQuery
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			if i+1 == len(s) {
				break
			}
			i++
			b.WriteByte(s[i])
			continue
		}
		if c == '*' || c == '?' {
			qt = GlobQuery
		}
		b.WriteByte(c)
	}
	return qt, b.String()
}
