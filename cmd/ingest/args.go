package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/heartmarshall/electricity-lca-backend/internal/config"
)

var errUsage = errors.New("usage error")

// options are the parsed command line flags.
type options struct {
	start   civilDate
	end     civilDate
	sleep   time.Duration
	sleepOK bool
	types   []string
	regions []string
	version bool
}

// civilDate is a calendar date without a location.
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func (d civilDate) in(loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

func (d civilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

var dateLayouts = []string{"20060102", "2006-01-02"}

func parseDate(s string) (civilDate, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civilDate{year: t.Year(), month: t.Month(), day: t.Day()}, nil
		}
	}
	return civilDate{}, fmt.Errorf("invalid date %q: want YYYYMMDD or YYYY-MM-DD", s)
}

// parseArgs parses args (without the program name). Errors other than
// flag.ErrHelp wrap errUsage.
func parseArgs(args []string, output io.Writer) (options, error) {
	var (
		opts                     options
		start, end, types, areas string
		sleep                    float64
	)

	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&start, "s", "", "start date, YYYYMMDD (shorthand)")
	fs.StringVar(&start, "start", "", "start date, YYYYMMDD or YYYY-MM-DD")
	fs.StringVar(&end, "e", "", "end date, YYYYMMDD (shorthand)")
	fs.StringVar(&end, "end", "", "end date (exclusive), YYYYMMDD or YYYY-MM-DD")
	fs.Float64Var(&sleep, "sleep", 0, "minimum seconds between region requests (overrides config)")
	fs.StringVar(&types, "types", "", "comma-separated generation type filter (overrides config)")
	fs.StringVar(&areas, "regions", "", "comma-separated region codes (default: all reference regions)")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return options{}, err
		}
		return options{}, fmt.Errorf("%w: %w", errUsage, err)
	}
	if opts.version {
		return opts, nil
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}

	if start == "" || end == "" {
		return options{}, fmt.Errorf("%w: both --start and --end are required", errUsage)
	}

	var err error
	if opts.start, err = parseDate(start); err != nil {
		return options{}, fmt.Errorf("%w: start: %w", errUsage, err)
	}
	if opts.end, err = parseDate(end); err != nil {
		return options{}, fmt.Errorf("%w: end: %w", errUsage, err)
	}
	if !opts.end.in(time.UTC).After(opts.start.in(time.UTC)) {
		return options{}, fmt.Errorf("%w: end %s must be after start %s", errUsage, opts.end, opts.start)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "sleep" {
			opts.sleepOK = true
		}
	})
	if opts.sleepOK {
		if sleep < 0 {
			return options{}, fmt.Errorf("%w: --sleep must not be negative", errUsage)
		}
		opts.sleep = time.Duration(sleep * float64(time.Second))
	}

	opts.types = config.ParseList(types)
	opts.regions = config.ParseList(areas)

	return opts, nil
}
