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

package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	stardict "github.com/dictutil/sdquery"
)

// maxFuzzyCandidates is the number of similar words reported for a
// fuzzy query.
const maxFuzzyCandidates = 5

var queryCommand = &cli.Command{
	Name:      "query",
	Usage:     "Query dictionaries",
	ArgsUsage: "[QUERY]",
	Description: `Query all dictionaries in the data directories.

A query starting with '/' is a fuzzy lookup, a query starting with '|'
searches article bodies, and a query containing unescaped '*' or '?'
matches headwords against the pattern. Anything else looks up the
headword directly.`,
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("%w: expected a single query", ErrFlagParse)
		}
		query := c.Args().Get(0)

		l := newLibrary(c)
		defer l.Close()

		w := c.App.Writer
		queryType, payload := stardict.AnalyzeQuery(query)
		switch queryType {
		case stardict.FuzzyQuery:
			words, found := l.LookupWithFuzzy(payload, maxFuzzyCandidates)
			if !found {
				fmt.Fprintf(w, "Nothing similar to %q.\n", payload)
				return nil
			}
			for _, word := range words {
				printEntries(w, l.SimpleLookup(word))
			}
		case stardict.GlobQuery:
			words, err := l.LookupWithGlob(payload)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrSdquery, err)
			}
			for _, word := range words {
				printEntries(w, l.SimpleLookup(word))
			}
		case stardict.DataQuery:
			printEntries(w, l.LookupData(payload))
		default:
			printEntries(w, l.SimpleLookup(payload))
		}

		return nil
	},
}

func printEntries(w io.Writer, entries []*stardict.Entry) {
	for _, e := range entries {
		fmt.Fprintf(w, "-->%s\n", e.Dict())
		fmt.Fprintf(w, "-->%s\n", e)
	}
}
