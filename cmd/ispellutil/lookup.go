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

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	ispell "github.com/ianlewis/go-ispell"
	"github.com/ianlewis/go-ispell/shdict"
)

var lookupCommand = &cli.Command{
	Name:      "lookup",
	Usage:     "normalize words with a dictionary",
	ArgsUsage: "DICT AFFIX WORD...",
	Description: `Normalize words to their dictionary forms.

Each word is reduced to its normal forms by affix stripping and compound
word splitting. Forms belonging to the same analysis share a variant
number.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "cache-dir",
			Usage:   "share the compiled dictionary with other processes through `DIR`",
			Aliases: []string{"c"},
			Value:   cacheDir(),
		},
		&cli.BoolFlag{
			Name:  "shared",
			Usage: "use the shared dictionary cache",
		},
		&cli.Int64Flag{
			Name:  "max-cache-bytes",
			Usage: "size limit of the shared dictionary cache",
			Value: shdict.QuotaUnlimited,
		},
		&cli.StringFlag{
			Name:    "stopwords",
			Usage:   "drop stop words listed in `FILE` from the output",
			Aliases: []string{"s"},
		},
	},
	Action: func(c *cli.Context) error {
		args := c.Args()
		if args.Len() < 3 {
			cli.ShowSubcommandHelp(c)
			return fmt.Errorf("%w: unexpected number of arguments", ErrFlagParse)
		}
		dictPath := args.Get(0)
		affixPath := args.Get(1)

		d, cleanup, err := openDict(c, dictPath, affixPath)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIspellutil, err)
		}
		defer cleanup()

		var stopList *ispell.StopList
		if path := c.String("stopwords"); path != "" {
			stopList, err = ispell.OpenStopList(path, nil)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrIspellutil, err)
			}
		}

		tbl := table.New("WORD", "LEXEME", "VARIANT")
		tbl.WithWriter(c.App.Writer)
		for _, word := range args.Slice()[2:] {
			lexemes := d.Normalize(word)
			if stopList != nil {
				lexemes = stopList.Filter(lexemes)
			}
			for _, l := range lexemes {
				tbl.AddRow(word, l.Value, l.NVariant)
			}
		}
		tbl.Print()

		return nil
	},
}

// openDict compiles the dictionary, through the shared cache when one is
// in use. The returned cleanup function releases the dictionary.
func openDict(c *cli.Context, dictPath, affixPath string) (*ispell.Dict, func(), error) {
	if !c.Bool("shared") {
		d, err := ispell.Compile(dictPath, affixPath, nil)
		if err != nil {
			return nil, nil, err
		}
		return d, func() {}, nil
	}

	cache, err := shdict.Open(c.String("cache-dir"), &shdict.Options{
		MaxBytes: c.Int64("max-cache-bytes"),
	})
	if err != nil {
		return nil, nil, err
	}

	h, err := cache.GetOrBuild(shdict.ID(dictPath, affixPath), func() ([]byte, error) {
		d, err := ispell.Compile(dictPath, affixPath, nil)
		if err != nil {
			return nil, err
		}
		return d.Blob(), nil
	})
	if err != nil {
		cache.Close()
		return nil, nil, err
	}

	d, err := ispell.Load(h.Bytes(), nil)
	if err != nil {
		h.Close()
		cache.Close()
		return nil, nil, err
	}
	return d, func() {
		h.Close()
		cache.Close()
	}, nil
}
