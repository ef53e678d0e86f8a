// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The cpm command compiles and runs a CPM program.
// With no arguments and a terminal on standard input, it starts a
// read-compile-run loop (REPL); otherwise it reads the program from
// standard input. The exit status is the integer result of the
// program's entry point.
package main // import "go.cpmlang.net/cmd/cpm"

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"golang.org/x/term"

	"go.cpmlang.net/codegen"
	"go.cpmlang.net/internal/compile"
	"go.cpmlang.net/internal/llvmgen"
	"go.cpmlang.net/repl"
	"go.cpmlang.net/syntax"
	"go.cpmlang.net/types"
	"go.cpmlang.net/vm"
)

// flags
var (
	cpuprofile = flag.String("cpuprofile", "", "gather Go CPU profile in this file")
	memprofile = flag.String("memprofile", "", "gather Go memory profile in this file")
	execprog   = flag.String("c", "", "compile and run program `prog`")
	output     = flag.String("o", "", "write the compiled program image to `file`")
	llvmout    = flag.String("llvm", "", "write the program as LLVM IR to `file`")
	load       = flag.String("load", "", "run the compiled program image `file`")
	echo       = flag.Bool("echo", false, "print the source with line numbers")
	printAST   = flag.Bool("print", false, "print the syntax tree")
	run        = flag.Bool("run", true, "run the program after compiling it")
)

func init() {
	flag.BoolVar(&compile.Disassemble, "disassemble", compile.Disassemble, "show disassembly of each method after compilation")
	flag.BoolVar(&codegen.AllowBlockScope, "blockscope", codegen.AllowBlockScope, "give each compound statement its own scope")
	flag.StringVar(&codegen.EntryPointName, "entry", codegen.EntryPointName, "name of the entry point method")
}

func main() {
	os.Exit(doMain())
}

func doMain() int {
	log.SetPrefix("cpm: ")
	log.SetFlags(0)
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		check(err)
		err = pprof.StartCPUProfile(f)
		check(err)
		defer func() {
			pprof.StopCPUProfile()
			err := f.Close()
			check(err)
		}()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		check(err)
		defer func() {
			runtime.GC()
			err := pprof.Lookup("heap").WriteTo(f, 0)
			check(err)
			err = f.Close()
			check(err)
		}()
	}

	var (
		filename string
		src      []byte
		err      error
	)
	switch {
	case *load != "":
		if flag.NArg() > 0 || *execprog != "" {
			log.Print("-load takes no program source")
			return 1
		}
		f, err := os.Open(*load)
		check(err)
		defer f.Close()
		prog, err := compile.ReadProgram(bufio.NewReader(f))
		if err != nil {
			log.Printf("%s: %v", *load, err)
			return 1
		}
		return exec(prog)
	case *execprog != "":
		filename, src = "cmdline", []byte(*execprog)
	case flag.NArg() == 1:
		filename = flag.Arg(0)
		src, err = os.ReadFile(filename)
		check(err)
	case flag.NArg() == 0 && term.IsTerminal(int(os.Stdin.Fd())):
		fmt.Println("Welcome to CPM (go.cpmlang.net)")
		repl.REPL()
		return 0
	case flag.NArg() == 0:
		filename = "<stdin>"
		src, err = io.ReadAll(os.Stdin)
		check(err)
	default:
		log.Print("want at most one CPM file name")
		return 1
	}

	if *echo {
		printLines(os.Stdout, src)
	}
	root, err := syntax.Parse(filename, src)
	if err != nil {
		repl.PrintError(err)
		return 1
	}
	if *printAST {
		check(syntax.Print(os.Stdout, root))
		fmt.Println()
	}

	mod := compile.NewModule(root.Name.Name)
	if err := codegen.Generate(mod, types.System(), root); err != nil {
		repl.PrintError(err)
		return 1
	}
	prog := mod.Program()

	if *output != "" {
		var buf bytes.Buffer
		check(prog.Write(&buf))
		check(os.WriteFile(*output, buf.Bytes(), 0666))
	}
	if *llvmout != "" {
		lmod := llvmgen.NewModule(root.Name.Name)
		if err := codegen.Generate(lmod, types.System(), root); err != nil {
			repl.PrintError(err)
			return 1
		}
		var buf bytes.Buffer
		check(lmod.Write(&buf))
		check(os.WriteFile(*llvmout, buf.Bytes(), 0666))
	}
	if !*run {
		return 0
	}
	return exec(prog)
}

// exec runs prog and returns its exit status.
func exec(prog *compile.Program) int {
	thread := &vm.Thread{Name: "exec " + prog.Name}
	v, err := vm.Run(thread, prog)
	if err != nil {
		repl.PrintError(err)
		return 1
	}
	return vm.ExitCode(v)
}

// printLines writes src with each line prefixed by its number.
func printLines(out io.Writer, src []byte) {
	sc := bufio.NewScanner(bytes.NewReader(src))
	for line := 1; sc.Scan(); line++ {
		fmt.Fprintf(out, "%02d %s\n", line, sc.Text())
	}
}

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
