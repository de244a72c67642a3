// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Command extsa builds, checks, and transforms suffix arrays of files larger
// than memory.
//
// Example usage:
//
//	$ extsa -mode build -mem 1Gi -format u16 -in text.bin -sa text.sa
//	$ extsa -mode check -format u16 -in text.bin -sa text.sa
//	$ extsa -mode bwt -format u16 -in text.bin -sa text.sa -out text.bwt
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dsnet/extsa/bwt"
	"github.com/dsnet/extsa/dsais"
	"github.com/dsnet/extsa/internal/emvec"
	"github.com/dsnet/extsa/internal/symio"
	strconv "github.com/dsnet/golib/unitconv"
	"go.uber.org/zap"
)

func main() {
	// Setup flag arguments.
	mode := flag.String("mode", "build", "One of build, check, or bwt")
	in := flag.String("in", "", "Path to the input text")
	sa := flag.String("sa", "", "Path to the suffix array")
	out := flag.String("out", "", "Path to the output of the bwt mode")
	mem := flag.String("mem", "256Mi", "Memory budget")
	format := flag.String("format", "u8", "Input format: bits, u8, u16, u32 or u64")
	width := flag.Int("width", dsais.DefaultOffsetWidth, "Width in bytes of suffix array offsets")
	shift := flag.Bool("shift", false, "Add one to every symbol so that zero is allowed")
	align := flag.Int("align", 1, "Required byte alignment of bit-packed input")
	comp := flag.String("comp", "none", "Staging codec: none, flate or xz")
	frame := flag.String("frame", "", "Staging frame size")
	tmp := flag.String("tmp", "", "Directory for staging files")
	json := flag.Bool("json", false, "Log in JSON")
	flag.Parse()

	var log *zap.Logger
	var err error
	if *json {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	fatal := func(msg string, err error) {
		log.Error(msg, zap.Error(err))
		log.Sync()
		os.Exit(1)
	}

	// Parse the flag arguments.
	cfg := dsais.Config{
		TempDir:     *tmp,
		OffsetWidth: *width,
		Shift:       *shift,
		Alignment:   *align,
		Logger:      log,
	}
	m, err := strconv.ParsePrefix(*mem, strconv.AutoParse)
	if err != nil {
		fatal("invalid memory budget", err)
	}
	cfg.MemoryLimit = int64(m)
	if *frame != "" {
		f, err := strconv.ParsePrefix(*frame, strconv.AutoParse)
		if err != nil {
			fatal("invalid frame size", err)
		}
		cfg.FrameSize = int(f)
	}
	if cfg.Format, err = symio.ParseFormat(*format); err != nil {
		fatal("invalid format", err)
	}
	if cfg.Compression, err = emvec.ParseCompression(*comp); err != nil {
		fatal("invalid staging codec", err)
	}
	if *in == "" || *sa == "" {
		fatal("missing paths", fmt.Errorf("both -in and -sa are required"))
	}

	switch *mode {
	case "build":
		stats, err := dsais.BuildFile(*in, *sa, &cfg)
		if err != nil {
			fatal("build failed", err)
		}
		fmt.Printf("symbols: %d\n", stats.Symbols)
		fmt.Printf("depth: %d\n", stats.Depth())
		fmt.Printf("pdu: %.2f bytes/symbol\n", stats.PDUPerSymbol())
		fmt.Printf("io: %.2f bytes/symbol\n", stats.IOPerSymbol())
		fmt.Printf("crc32: 0x%08x\n", stats.Checksum)
		fmt.Printf("elapsed: %v\n", stats.Elapsed)
	case "check":
		res, err := dsais.CheckFile(*in, *sa, &cfg)
		if err != nil {
			fatal("check failed", err)
		}
		fmt.Println(res)
		if !res.OK {
			os.Exit(2)
		}
	case "bwt":
		if *out == "" {
			fatal("missing paths", fmt.Errorf("-out is required"))
		}
		ptr, err := bwt.BuildFile(*in, *sa, *out, &cfg)
		if err != nil {
			fatal("bwt failed", err)
		}
		fmt.Printf("primary index: %d\n", ptr)
	default:
		fatal("invalid mode", fmt.Errorf("unknown mode %q", *mode))
	}
}
