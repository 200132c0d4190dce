// Copyright (C) 2024 clox authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command clox is the driver described in spec.md §6: it glues the
// scan/compile/vm/bcfile packages into compile, run-bytecode,
// interpret and REPL modes.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cloxlang/clox/bcfile"
	"github.com/cloxlang/clox/chunk"
	"github.com/cloxlang/clox/compile"
	"github.com/cloxlang/clox/value"
	"github.com/cloxlang/clox/vm"
)

var (
	dashHelp         bool
	dashRepl         bool
	dashCode         string
	dashCompile      bool
	dashOutput       string
	dashCompress     bool
	dashRun          bool
	dashDisasm       bool
	dashStep         bool
	dashAllowDynamic bool
	dashDefaultConst bool
	dashConfig       string

	errlog *log.Logger
)

func init() {
	flagDefaultUsage = flag.CommandLine.Usage
	flag.CommandLine.Usage = printHelp

	flag.BoolVar(&dashHelp, "help", false, "show help")
	flag.BoolVar(&dashRepl, "repl", false, "enter interactive mode")
	flag.StringVar(&dashCode, "code", "", "treat next arg as inline source")
	flag.BoolVar(&dashCompile, "compile", false, "compile only; write bytecode")
	flag.StringVar(&dashOutput, "output", "", "target file for -compile (else stdout)")
	flag.BoolVar(&dashCompress, "compress", false, "wrap -compile output (or expect on -run) in a zstd frame")
	flag.BoolVar(&dashRun, "run", false, "load precompiled bytecode and execute")
	flag.BoolVar(&dashDisasm, "disassemble", false, "dump bytecode listing after load")
	flag.BoolVar(&dashStep, "step_debugging", false, "single-step the VM")
	flag.BoolVar(&dashAllowDynamic, "allow_dynamic_variables", false, "permit implicit declaration on first assign")
	flag.BoolVar(&dashDefaultConst, "default_const_variables", false, "require `mut` for mutability")
	flag.StringVar(&dashConfig, "config", "", "path to a YAML config file (SPEC_FULL.md §10.3)")

	errlog = log.New(os.Stderr, "", log.Lshortfile)
}

func main() {
	flag.Parse()

	if dashHelp {
		flag.Usage()
		os.Exit(0)
	}

	opt, err := resolveOptions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}

	if dashRepl {
		runREPL(opt)
		return
	}

	args := flag.Args()

	switch {
	case dashRun:
		path := firstArg(args)
		if path == "" {
			fail("no-input", "-run requires a path to a bytecode file")
		}
		runBytecodeFile(path, opt)
	case dashCompile:
		src, err := sourceFrom(args)
		if err != nil {
			fail("no-input", err.Error())
		}
		compileOnly(src, opt)
	default:
		src, err := sourceFrom(args)
		if err != nil {
			fail("no-input", err.Error())
		}
		interpretDirect(src, opt)
	}
}

// resolveOptions merges the optional -config file with explicit
// flags; flags always win (SPEC_FULL.md §10.3).
func resolveOptions() (compile.Options, error) {
	var cfg config
	if dashConfig != "" {
		c, err := loadConfig(dashConfig)
		if err != nil {
			return compile.Options{}, fmt.Errorf("loading -config: %w", err)
		}
		cfg = *c
	}

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	allowDynamic := cfg.AllowDynamicVariables
	if explicit["allow_dynamic_variables"] {
		allowDynamic = dashAllowDynamic
	}
	defaultConst := cfg.DefaultConstVariables
	if explicit["default_const_variables"] {
		defaultConst = dashDefaultConst
	}
	if !explicit["step_debugging"] {
		dashStep = cfg.StepDebugging
	}

	return compile.Options{
		AllowDynamicVariables: allowDynamic,
		DefaultConstVariables: defaultConst,
		AllowMut:              true,
	}, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// sourceFrom returns the program source: -code's value if given,
// otherwise the contents of the first positional argument (a file
// path, per spec.md §6's "path-or-code").
func sourceFrom(args []string) ([]byte, error) {
	if dashCode != "" {
		return []byte(dashCode), nil
	}
	path := firstArg(args)
	if path == "" {
		return nil, fmt.Errorf("no source given (use -code or pass a file path)")
	}
	return os.ReadFile(path)
}

func compileOnly(src []byte, opt compile.Options) {
	heap := value.NewHeap()
	c, res := compile.Compile(src, heap, opt)
	reportDiagnostics(res)
	if err := res.Err(); err != nil {
		os.Exit(-1)
	}

	data, err := bcfile.Serialize(c)
	if err != nil {
		fail("serialize", err.Error())
	}

	out := os.Stdout
	if dashOutput != "" {
		f, err := os.Create(dashOutput)
		if err != nil {
			fail("output", err.Error())
		}
		defer f.Close()
		out = f
	}

	if dashCompress {
		if err := bcfile.WriteCompressed(out, data); err != nil {
			fail("compress", err.Error())
		}
		return
	}
	if _, err := out.Write(data); err != nil {
		fail("output", err.Error())
	}
}

func runBytecodeFile(path string, opt compile.Options) {
	raw, err := os.ReadFile(path)
	if err != nil {
		fail("no-input", err.Error())
	}
	if dashCompress {
		raw, err = bcfile.ReadCompressed(bytes.NewReader(raw))
		if err != nil {
			fail("decompress", err.Error())
		}
	}

	heap := value.NewHeap()
	c, err := bcfile.Deserialize(raw, heap)
	if err != nil {
		fail("deserialize", err.Error())
	}

	if dashDisasm {
		compile.Disassemble(os.Stdout, c, path)
	}

	execute(c, heap, opt)
}

func interpretDirect(src []byte, opt compile.Options) {
	heap := value.NewHeap()
	c, res := compile.Compile(src, heap, opt)
	reportDiagnostics(res)
	if err := res.Err(); err != nil {
		os.Exit(-1)
	}

	if dashDisasm {
		compile.Disassemble(os.Stdout, c, "source")
	}

	execute(c, heap, opt)
}

func execute(c *chunk.Chunk, heap *value.Heap, opt compile.Options) {
	v := vm.New()
	v.Heap = heap
	v.Stdout = os.Stdout
	if dashStep {
		v.StepDebugging = true
		v.StepIn = os.Stdin
		v.StepOut = os.Stderr
	}
	defer v.Finish()

	code, _, err := v.Interpret(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
	if code != 0 {
		os.Exit(int(code))
	}
}

func reportDiagnostics(res *compile.Result) {
	for _, d := range res.Diagnostics() {
		fmt.Fprintln(os.Stderr, d)
	}
}

func fail(kind, msg string) {
	errlog.Printf("%s: %s", kind, msg)
	os.Exit(-1)
}
