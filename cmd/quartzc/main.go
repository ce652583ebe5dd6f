package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/example/quartz-lang/compiler/internal/sql/analyzer"
	"github.com/example/quartz-lang/compiler/internal/sql/parser"
)

const (
	historyFile = ".quartz_history"
	promptMain  = "==> "
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	switch cmd {
	case "check":
		runCheck(os.Args[2:])
	case "repl":
		runRepl()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Quartz compiler front-end")
	fmt.Println("Usage:")
	fmt.Println("  quartzc check -q <source>")
	fmt.Println("  quartzc check <file>")
	fmt.Println("  quartzc repl")
}

func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	query := fs.String("q", "", "Quartz source to check")
	fs.Usage = func() {
		fmt.Println("Usage: quartzc check [-q <source> | <file>]")
	}
	fs.Parse(args)

	source := *query
	if source == "" {
		if fs.NArg() != 1 {
			fs.Usage()
			os.Exit(1)
		}
		data, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		source = string(data)
	}

	diags, err := checkSource(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(diags) == 0 {
		fmt.Println("ok")
		return
	}
	for _, diag := range diags {
		fmt.Printf("%d:%d: %s\n", diag.Pos.Line, diag.Pos.Column, diag.Error())
	}
	os.Exit(1)
}

func checkSource(source string) ([]analyzer.Error, error) {
	program, err := parser.ParseProgram(source)
	if err != nil {
		return nil, err
	}
	return analyzer.AnalyzeProgram(program), nil
}

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}

func runRepl() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyPath()); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath()); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("Quartz REPL. Ctrl+D or :quit exits.")
	for {
		input, err := line.Prompt(promptMain)
		if err != nil {
			fmt.Println()
			return
		}
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		if trimmed == ":quit" {
			return
		}
		line.AppendHistory(input)

		diags, err := checkSource(input)
		if err != nil {
			fmt.Println(red(err.Error()))
			continue
		}
		if len(diags) == 0 {
			fmt.Println(green("ok"))
			continue
		}
		for _, diag := range diags {
			fmt.Println(red(fmt.Sprintf("%d:%d: %s", diag.Pos.Line, diag.Pos.Column, diag.Error())))
		}
	}
}
