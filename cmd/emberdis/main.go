// Command emberdis disassembles marshaled Ember units.
//
// Usage:
//
//	emberdis [-func name] [-no-color] [-v] unit.ebc
//
// With no -func flag the pseudomain is disassembled. The special name
// "list" prints the function index instead.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/cloudcmds/ember/bytecode"
	"github.com/cloudcmds/ember/dis"
)

func main() {
	funcName := flag.String("func", "", "function to disassemble (default: pseudomain)")
	noColor := flag.Bool("no-color", false, "disable colored output")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
	if !*verbose {
		log = log.Level(zerolog.WarnLevel)
	}
	if *noColor {
		color.NoColor = true
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: emberdis [-func name] unit.ebc")
		os.Exit(2)
	}
	path := flag.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to read unit")
	}
	unit, err := bytecode.Unmarshal(data)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to decode unit")
	}
	log.Debug().
		Str("filename", unit.Filename()).
		Int("bc_len", unit.BCLen()).
		Int("funcs", unit.FuncCount()).
		Int("classes", unit.ClassCount()).
		Msg("unit loaded")

	if *funcName == "list" {
		listFunctions(unit)
		return
	}

	fn := findFunction(unit, *funcName)
	if fn == nil {
		log.Fatal().Str("func", *funcName).Msg("function not found")
	}

	instructions, err := dis.Disassemble(unit, fn)
	if err != nil {
		log.Fatal().Err(err).Str("func", fn.FullName()).Msg("disassembly failed")
	}
	bold := color.New(color.Bold)
	bold.Printf("%s [%d, %d)\n", displayName(fn), fn.Base(), fn.Past())
	dis.Print(instructions, os.Stdout)
}

func displayName(fn *bytecode.Function) string {
	if fn.Name() == "" {
		return "<pseudomain>"
	}
	return fn.FullName()
}

// findFunction resolves a name against the unit's free functions and
// class methods. Methods are addressed as Class::method.
func findFunction(unit *bytecode.Unit, name string) *bytecode.Function {
	if name == "" {
		return unit.Pseudomain()
	}
	for i := 0; i < unit.FuncCount(); i++ {
		if fn := unit.FuncAt(i); fn.Name() == name {
			return fn
		}
	}
	for i := 0; i < unit.ClassCount(); i++ {
		cls := unit.ClassAt(i)
		for j := 0; j < cls.MethodCount(); j++ {
			m := cls.MethodAt(j)
			if m.FullName() == name || m.Name() == name {
				return m
			}
		}
	}
	return nil
}

func listFunctions(unit *bytecode.Unit) {
	print := func(fn *bytecode.Function) {
		fmt.Printf("%6d %6d  %s\n", fn.Base(), fn.Past(), displayName(fn))
	}
	print(unit.Pseudomain())
	for i := 0; i < unit.FuncCount(); i++ {
		print(unit.FuncAt(i))
	}
	for i := 0; i < unit.ClassCount(); i++ {
		cls := unit.ClassAt(i)
		for j := 0; j < cls.MethodCount(); j++ {
			print(cls.MethodAt(j))
		}
	}
}
