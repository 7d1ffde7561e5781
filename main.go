package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heathj/streamparser/autoescape"
	"github.com/heathj/streamparser/config"
)

func usage() {
	fmt.Println(`streamparser - context-aware auto-escaping for HTML templates
Usage: streamparser <command> [args]

Commands:
  check <template> [macro...]            Print the escaping function chosen for every variable
  render <template> [macro...] [k=v...]  Render the template to stdout
  help                                   Show help

Macros are template files called as {{call name}}, name being the file name
without its extension. Settings are read from ./app.env and the environment
(LOG_LEVEL, DEFAULT_MODE, MAX_INCLUDE_DEPTH).`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logrus.SetLevel(level)

	switch os.Args[1] {
	case "help":
		usage()
	case "check", "render":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		if err := run(cfg, os.Args[1], os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "%s error: %v\n", os.Args[1], err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func loadTemplate(path string) (*autoescape.Template, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading template")
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return autoescape.ParseTemplate(name, string(src))
}

func run(cfg config.Config, cmd string, args []string) error {
	tmpl, err := loadTemplate(args[0])
	if err != nil {
		return err
	}
	macros := map[string]*autoescape.Template{}
	data := map[string]string{}
	for _, arg := range args[1:] {
		if k, v, ok := strings.Cut(arg, "="); ok {
			data[k] = v
			continue
		}
		m, err := loadTemplate(arg)
		if err != nil {
			return err
		}
		macros[m.Name] = m
	}

	mode, _ := cfg.Mode()
	e, err := autoescape.New(mode,
		autoescape.WithMaxIncludeDepth(cfg.MaxIncludeDepth),
		autoescape.WithRecording(),
	)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if cmd == "check" {
		// placeholders, so that every insertion is seen by the parser
		names := tmpl.Variables()
		for _, m := range macros {
			names = append(names, m.Variables()...)
		}
		for _, name := range names {
			if _, ok := data[name]; !ok {
				data[name] = "x"
			}
		}
		out = io.Discard
	}

	if err := tmpl.Execute(out, e, data, macros); err != nil {
		return err
	}
	if err := e.Finish(); err != nil {
		return err
	}

	if cmd == "check" {
		for _, d := range e.Decisions() {
			fmt.Printf("%d:%d\t%s\t%s\t%s\n", d.Line, d.Column, d.Name, d.Func, d.Context)
		}
		fmt.Printf("ok: %d variables, ends in %s\n", len(e.Decisions()), e.Context().State)
	}
	return nil
}
