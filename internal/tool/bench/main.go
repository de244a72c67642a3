// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build ignore

// Benchmark tool to compare suffix array construction across memory budgets
// and staging codecs.
//
// Example usage:
//
//	$ go build -o benchmark main.go
//	$ ./benchmark \
//		-tests   rate,pdu         \
//		-codecs  none,flate,xz    \
//		-files   repeats.gen      \
//		-budgets 1Mi,16Mi         \
//		-sizes   1e5,1e6
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dsnet/extsa/internal/tool/bench"
	strconv "github.com/dsnet/golib/unitconv"
)

const (
	defaultBudgets = "1Mi,16Mi"
	defaultSizes   = "1e5,1e6"
	defaultFiles   = "random.gen,repeats.gen,binary.gen"
)

var (
	testToEnum = map[string]int{
		"rate": bench.TestRate,
		"pdu":  bench.TestPDU,
		"io":   bench.TestIO,
	}
	enumToTest = map[int]string{
		bench.TestRate: "rate",
		bench.TestPDU:  "pdu",
		bench.TestIO:   "io",
	}
	enumToTitle = map[int]string{
		bench.TestRate: "MB/s",
		bench.TestPDU:  "B/sym",
		bench.TestIO:   "B/sym",
	}
)

func defaultTests() string {
	var d []int
	for k := range enumToTest {
		d = append(d, k)
	}
	sort.Ints(d)
	var s []string
	for _, v := range d {
		s = append(s, enumToTest[v])
	}
	return strings.Join(s, ",")
}

func defaultCodecs() string {
	var s []string
	for k := range bench.Codecs {
		if k != "none" {
			s = append(s, k)
		}
	}
	sort.Strings(s)
	s = append([]string{"none"}, s...) // Ensure "none" always appears first
	return strings.Join(s, ",")
}

func main() {
	// Setup flag arguments.
	f0 := flag.String("tests", defaultTests(), "List of different benchmark tests")
	f1 := flag.String("codecs", defaultCodecs(), "List of staging codecs to benchmark")
	f2 := flag.String("paths", "", "List of paths to search for test files")
	f3 := flag.String("files", defaultFiles, "List of input files to benchmark")
	f4 := flag.String("budgets", defaultBudgets, "List of memory budgets to benchmark")
	f5 := flag.String("sizes", defaultSizes, "List of input sizes to benchmark")
	f6 := flag.String("tmp", os.TempDir(), "Directory for staging and output files")
	flag.Parse()

	// Parse the flag arguments.
	var sep = regexp.MustCompile("[,:]")
	var codecs, paths, files []string
	var tests, budgets, sizes []int
	codecs = sep.Split(*f1, -1)
	paths = sep.Split(*f2, -1)
	files = sep.Split(*f3, -1)
	for _, s := range sep.Split(*f0, -1) {
		if _, ok := testToEnum[s]; !ok {
			panic("invalid test")
		}
		tests = append(tests, testToEnum[s])
	}
	for _, s := range codecs {
		if _, ok := bench.Codecs[s]; !ok {
			panic("invalid codec")
		}
	}
	for _, s := range sep.Split(*f4, -1) {
		m, err := strconv.ParsePrefix(s, strconv.AutoParse)
		if err != nil {
			panic("invalid budget")
		}
		budgets = append(budgets, int(m))
	}
	for _, s := range sep.Split(*f5, -1) {
		var size int
		if nf, err := strconv.ParsePrefix(s, strconv.AutoParse); err == nil {
			size = int(nf)
		}
		sizes = append(sizes, size)
	}

	ts := time.Now()
	bench.Paths, bench.TempDir = paths, *f6
	runBenchmarks(files, codecs, tests, budgets, sizes)
	te := time.Now()
	fmt.Printf("RUNTIME: %v\n", te.Sub(ts))
}

func runBenchmarks(files, codecs []string, tests, budgets, sizes []int) {
	for _, t := range tests {
		fmt.Printf("BENCHMARK: %s\n", enumToTest[t])

		// Progress ticker.
		var cnt int
		tick := func() {
			total := len(codecs) * len(files) * len(budgets) * len(sizes)
			pct := 100.0 * float64(cnt) / float64(total)
			fmt.Printf("\t[%6.2f%%] %d of %d\r", pct, cnt, total)
			cnt++
		}

		// Perform the bench. This may take some time.
		results, names := bench.BenchmarkSuite(t, codecs, files, budgets, sizes, tick)

		// Print all of the results.
		printResults(results, names, codecs, enumToTitle[t])
		fmt.Println()
	}
}

func printResults(results [][]bench.Result, names, codecs []string, title string) {
	// Allocate result table.
	cells := make([][]string, 1+len(names))
	for i := range cells {
		cells[i] = make([]string, 1+2*len(codecs))
	}

	// Label the first row.
	cells[0][0] = "benchmark"
	for i, c := range codecs {
		cells[0][1+2*i] = c + " " + title
		cells[0][2+2*i] = "delta"
	}

	// Insert all rows.
	for j, row := range results {
		cells[1+j][0] = names[j]
		for i, r := range row {
			if !math.IsNaN(r.R) && !math.IsInf(r.R, 0) {
				cells[1+j][1+2*i] = fmt.Sprintf("%.2f", r.R)
			}
			if r.D != 0 && !math.IsNaN(r.D) && !math.IsInf(r.D, 0) {
				cells[1+j][2+2*i] = fmt.Sprintf("%.2f", r.D) + "x"
			}
		}
	}

	// Compute the maximum lengths.
	maxLens := make([]int, 1+2*len(codecs))
	for _, row := range cells {
		for i, s := range row {
			if maxLens[i] < len(s) {
				maxLens[i] = len(s)
			}
		}
	}

	// Print padded versions of all cells.
	for _, row := range cells {
		fmt.Print("\t")
		for i, s := range row {
			switch {
			case i == 0: // Column 0
				row[i] = s + strings.Repeat(" ", maxLens[i]-len(s))
			case i%2 == 1: // Column 1, 3, 5, 7, ...
				row[i] = strings.Repeat(" ", 6+maxLens[i]-len(s)) + s
			case i%2 == 0: // Column 2, 4, 6, 8, ...
				row[i] = strings.Repeat(" ", 2+maxLens[i]-len(s)) + s
			}
			fmt.Print(row[i])
		}
		fmt.Println()
	}
}
