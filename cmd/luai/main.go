// Command luai loads and runs pre-compiled Lua 5.1 bytecode (.luac
// files). It is a thin host around the lua51vm interpreter: it never
// parses Lua source, so every subcommand here operates on already-
// compiled chunks.
package main

import (
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	lua "github.com/anidiot373/lua51vm"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "luai",
		Short:                 "run and inspect precompiled Lua 5.1 bytecode",
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
	}
	c.AddCommand(newRunCommand(), newDisasmCommand(), newReplCommand())
	return c
}

func newRunCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "run FILE.luac",
		Short:                 "execute a compiled chunk's main function",
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0], os.Stdout)
		},
	}
	return c
}

func runFile(path string, stdout *os.File) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	vm := lua.NewVM()
	vm.Stdout = stdout
	main, err := vm.Load(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if _, err := vm.Run(main); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func newDisasmCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "disasm FILE.luac",
		Short:                 "print the instruction stream of a compiled chunk",
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			proto, err := lua.Undump(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			lua.Disassemble(os.Stdout, proto)
			return nil
		},
	}
	return c
}

func newReplCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "repl",
		Short:                 "interactively load and run compiled chunks against one shared VM",
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl()
		},
	}
	return c
}

// runRepl keeps one VM alive across iterations, so globals persist
// between loads, and reads chunk paths with line editing/history via
// chzyer/readline — the teacher declares this dependency but never
// calls it; here it backs the one place this repo actually needs line
// editing.
func runRepl() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "luai> ",
		HistoryFile: "/tmp/luai_history",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	vm := lua.NewVM()
	fmt.Fprintln(rl.Stderr(), "luai repl: enter a path to a .luac chunk to run it, or Ctrl-D to exit")
	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		if line == "" {
			continue
		}
		f, err := os.Open(line)
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		main, err := vm.Load(f)
		f.Close()
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		if _, err := vm.Run(main); err != nil {
			fmt.Fprintln(rl.Stderr(), err)
		}
	}
}
