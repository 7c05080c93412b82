// Copyright 2025 Ian Lewis
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
	"os"

	"github.com/urfave/cli/v2"

	ispell "github.com/ianlewis/go-ispell"
)

var compileCommand = &cli.Command{
	Name:      "compile",
	Usage:     "compile a dictionary to a binary file",
	ArgsUsage: "DICT AFFIX OUT",
	Description: `Compile a word list and affix file into a binary dictionary.

The output file can be loaded without re-parsing the source files.`,
	Action: func(c *cli.Context) error {
		args := c.Args()
		if args.Len() != 3 {
			cli.ShowSubcommandHelp(c)
			return fmt.Errorf("%w: unexpected number of arguments", ErrFlagParse)
		}

		d, err := ispell.Compile(args.Get(0), args.Get(1), nil)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIspellutil, err)
		}

		if err := os.WriteFile(args.Get(2), d.Blob(), 0o644); err != nil {
			return fmt.Errorf("%w: %w", ErrIspellutil, err)
		}
		return nil
	},
}
