// Command pdftpl imports pages of existing PDF files into new documents.
//
// # Installation
//
//	go install github.com/lvillar/pdftpl/cmd/pdftpl@latest
//
// # Usage
//
//	pdftpl [-config file.yaml] <command> [flags] [args]
//
// # Commands
//
//   - merge: concatenate PDF files
//   - extract: copy selected pages into a new file
//   - split: write every page to its own file
//   - rotate: rotate pages
//   - watermark: draw a translucent text across pages
//   - number: add page numbers
//   - barcode: stamp a QR, Code 128 or PDF417 barcode
//   - info: print document metadata
//   - boxes: print page boundary boxes
//   - fill: start from a template and add lines of text
//
// The configuration file may set logLevel, cacheEntries, compress, pageSize and
// info (a map of document information entries).
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "pdftpl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pdftpl [-config file.yaml] <merge|extract|split|rotate|watermark|number|barcode|info|boxes|fill> [flags] [args]")
}

func run(args []string) error {
	global := flag.NewFlagSet("pdftpl", flag.ContinueOnError)
	configPath := global.String("config", "", "YAML configuration file")
	global.Usage = usage
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(config)
	if err != nil {
		return err
	}
	app := newApp(config, log)

	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := app.commands()[name]
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd(rest)
}
