package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/epochtools/actinorm/inspect"
	"github.com/epochtools/actinorm/internal/config"
	"github.com/epochtools/actinorm/internal/logging"
)

func main() {
	cfg := config.Load()

	var (
		metric    = flag.String("metric", cfg.Metric, "Metric column to look for")
		tsFormat  = flag.String("ts-format", cfg.TimestampPattern, "strptime timestamp pattern (default %Y-%m-%d %H:%M:%S)")
		tz        = flag.String("tz", cfg.Timezone, "IANA timezone for naive timestamps")
		rows      = flag.Int("rows", 5, "Number of sample rows to include")
		delimiter = flag.String("delimiter", "", "Column delimiter (default: sniffed from the header)")
		encoding  = flag.String("encoding", "", "Input text encoding: utf-8|latin1")
		logLevel  = flag.String("log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <count-file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logging.Init(logging.ParseLevel(*logLevel))

	summary, err := inspect.File(flag.Arg(0), inspect.Options{
		Metric:     *metric,
		Pattern:    *tsFormat,
		Timezone:   *tz,
		SampleRows: *rows,
		Delimiter:  delimiterRune(*delimiter),
		Encoding:   *encoding,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "actiscan failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, summary.Notes())
	if err := summary.WriteJSON(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
		os.Exit(1)
	}
}

func delimiterRune(s string) rune {
	switch s {
	case "":
		return 0
	case "\\t", "tab":
		return '\t'
	default:
		return []rune(s)[0]
	}
}
