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
	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"
)

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "List dictionaries",
	Description: `List all dictionaries found in the data directories.`,
	Action: func(c *cli.Context) error {
		l := newLibrary(c)
		defer l.Close()

		tbl := table.New("NAME", "WORDS", "SYNONYMS", "VERSION", "AUTHOR")
		tbl.WithWriter(c.App.Writer)
		for _, d := range l.Dicts() {
			tbl.AddRow(d.Bookname(), d.WordCount(), d.SynWordCount(), d.Version(), d.Author())
		}
		tbl.Print()

		return nil
	},
}
