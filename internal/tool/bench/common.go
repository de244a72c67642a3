// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package bench compares the performance of suffix array construction across
// memory budgets and staging codecs with respect to construction rate, peak
// disk usage, and I/O volume.
package bench

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dsnet/extsa/dsais"
	"github.com/dsnet/extsa/internal/testutil"
	strconv "github.com/dsnet/golib/unitconv"
	"github.com/pingcap/errors"
)

const (
	TestRate = iota // Input MB/s
	TestPDU         // Peak disk usage in bytes per symbol
	TestIO          // Staging I/O in bytes per symbol
)

// Codecs maps names to staging codecs.
var Codecs = map[string]dsais.Compression{
	"none":  dsais.CompressNone,
	"flate": dsais.CompressFlate,
	"xz":    dsais.CompressXZ,
}

var (
	// List of search paths for test files.
	Paths []string

	// TempDir is the parent of the staging and output files.
	TempDir string
)

// Generated inputs that need no test file.
var generators = map[string]func(n int) []byte{
	"random.gen": func(n int) []byte {
		return testutil.NewRand(0).Bytes(n)
	},
	"repeats.gen": func(n int) []byte {
		return testutil.Repeats(testutil.NewRand(0), n, 255)
	},
	"binary.gen": func(n int) []byte {
		return testutil.Repeats(testutil.NewRand(1), n, 2)
	},
}

type Result struct {
	R float64 // Rate (MB/s), or bytes per symbol
	D float64 // Delta ratio relative to primary benchmark
}

// BenchmarkBuild builds the suffix array of input once and reports the
// statistics of the run.
func BenchmarkBuild(input []byte, cfg dsais.Config) (*dsais.Stats, error) {
	dir, err := os.MkdirTemp(TempDir, "bench-")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input")
	if err := os.WriteFile(in, input, 0664); err != nil {
		return nil, errors.Trace(err)
	}
	cfg.TempDir, cfg.Shift = dir, true
	return dsais.BuildFile(in, filepath.Join(dir, "sa"), &cfg)
}

// BenchmarkSuite runs the test across all codecs, files, budgets, and sizes.
//
// The values returned have the following structure:
//
//	results: [len(files)*len(budgets)*len(sizes)][len(codecs)]Result
//	names:   [len(files)*len(budgets)*len(sizes)]string
func BenchmarkSuite(test int, codecs, files []string, budgets, sizes []int, tick func()) (results [][]Result, names []string) {
	return benchmarkSuite(codecs, files, budgets, sizes, tick,
		func(input []byte, codec string, budget int) Result {
			stats, err := BenchmarkBuild(input, dsais.Config{
				MemoryLimit: int64(budget),
				Compression: Codecs[codec],
			})
			if err != nil || stats.Symbols == 0 {
				return Result{}
			}
			switch test {
			case TestRate:
				us := float64(stats.Elapsed.Nanoseconds()) / 1e3
				return Result{R: float64(len(input)) / us}
			case TestPDU:
				return Result{R: stats.PDUPerSymbol()}
			case TestIO:
				return Result{R: stats.IOPerSymbol()}
			default:
				panic("unknown test")
			}
		})
}

type benchFunc func(input []byte, codec string, budget int) Result

func benchmarkSuite(codecs, files []string, budgets, sizes []int, tick func(), run benchFunc) ([][]Result, []string) {
	// Allocate buffers for the result.
	d0 := len(files) * len(budgets) * len(sizes)
	d1 := len(codecs)
	results := make([][]Result, d0)
	for i := range results {
		results[i] = make([]Result, d1)
	}
	names := make([]string, d0)

	// Run the benchmark for every codec, file, budget, and size.
	var i int
	for _, f := range files {
		for _, m := range budgets {
			for _, n := range sizes {
				b, err := loadFile(f, n)
				name := getName(f, m, len(b))
				for j, c := range codecs {
					if tick != nil {
						tick()
					}
					names[i] = name
					if err == nil {
						results[i][j] = run(b, c, m)
					}
					results[i][j].D = results[i][j].R / results[i][0].R
				}
				i++
			}
		}
	}
	return results, names
}

// loadFile loads the first n bytes of a test file, or generates n bytes if
// the name is one of the generated inputs.
func loadFile(file string, n int) ([]byte, error) {
	if gen, ok := generators[file]; ok {
		return gen(n), nil
	}
	b, err := os.ReadFile(getPath(file))
	if err != nil {
		return nil, errors.Trace(err)
	}
	if n >= 0 && n < len(b) {
		b = b[:n]
	}
	return b, nil
}

func getPath(file string) string {
	if path.IsAbs(file) {
		return file
	}
	for _, p := range Paths {
		p = path.Join(p, file)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return file
}

func getName(f string, m, n int) string {
	var sn string
	switch n {
	case 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10, 1e11, 1e12:
		s := fmt.Sprintf("%e", float64(n))
		re := regexp.MustCompile("\\.0*e\\+0*")
		sn = re.ReplaceAllString(s, "e")
	default:
		s := strconv.FormatPrefix(float64(n), strconv.Base1024, 2)
		sn = strings.Replace(s, ".00", "", -1)
	}
	sm := strings.Replace(strconv.FormatPrefix(float64(m), strconv.Base1024, 2), ".00", "", -1)
	return fmt.Sprintf("%s:%s:%s", path.Base(f), sm, sn)
}
