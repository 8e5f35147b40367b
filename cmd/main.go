package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidleitw/msgarchive/internal/archive"
	"github.com/davidleitw/msgarchive/internal/config"
	"github.com/davidleitw/msgarchive/internal/craw"
	"github.com/davidleitw/msgarchive/internal/db"
	"github.com/davidleitw/msgarchive/internal/display"
	"github.com/davidleitw/msgarchive/internal/exchange"
	"github.com/davidleitw/msgarchive/internal/fileio"
	"github.com/davidleitw/msgarchive/internal/parser"
	"github.com/davidleitw/msgarchive/internal/writer"
	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetReportCaller(true)
}

var errInvalid = errors.New("archive is not valid")

type options struct {
	filename string

	validateOnly bool
	verbose      bool

	toJSON     string
	fromJSON   string
	jsonString string
	toXML      string
	fromXML    string
	xmlString  string
	toYAML     string
	fromYAML   string
	toOriginal string
	lineEnding string
	toSqlite   string
	fromSqlite string
	importHTML string
}

func stringFlag(fs *flag.FlagSet, p *string, long, short, value, usage string) {
	fs.StringVar(p, long, value, usage)
	if short != "" {
		fs.StringVar(p, short, value, usage+" (shorthand)")
	}
}

func boolFlag(fs *flag.FlagSet, p *bool, long, short, usage string) {
	fs.BoolVar(p, long, false, usage)
	if short != "" {
		fs.BoolVar(p, short, false, usage+" (shorthand)")
	}
}

func parseOptions(args []string, cfg config.Config, output io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("msgarchive", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(output, "Usage: msgarchive [flags] [filename]")
		fmt.Fprintln(output, "Parse, validate, display and convert message archive files.")
		fs.PrintDefaults()
	}

	boolFlag(fs, &opts.validateOnly, "validate-only", "v", "Only validate the file without displaying")
	boolFlag(fs, &opts.verbose, "verbose", "V", "Trace every section and key while parsing")
	stringFlag(fs, &opts.toJSON, "to-json", "j", "", "Convert the parsed data to JSON and save to a file")
	stringFlag(fs, &opts.fromJSON, "from-json", "J", "", "Load the services from a JSON file")
	stringFlag(fs, &opts.jsonString, "json-string", "s", "", "JSON string to load instead of the -from-json file")
	stringFlag(fs, &opts.toXML, "to-xml", "x", "", "Convert the parsed data to XML and save to a file")
	stringFlag(fs, &opts.fromXML, "from-xml", "X", "", "Load the services from an XML file")
	stringFlag(fs, &opts.xmlString, "xml-string", "S", "", "XML string to load instead of the -from-xml file")
	stringFlag(fs, &opts.toYAML, "to-yaml", "", "", "Convert the parsed data to YAML and save to a file")
	stringFlag(fs, &opts.fromYAML, "from-yaml", "", "", "Load the services from a YAML file")
	stringFlag(fs, &opts.toOriginal, "to-original", "o", "", "Save the data in the archive text format")
	stringFlag(fs, &opts.lineEnding, "line-ending", "l", cfg.LineEnding, "Line ending for -to-original: lf, cr or crlf")
	stringFlag(fs, &opts.toSqlite, "to-sqlite", "", "", "Store the data in a SQLite archive database")
	stringFlag(fs, &opts.fromSqlite, "from-sqlite", "", "", "Load an archive from a SQLite database; the filename argument names the archive")
	stringFlag(fs, &opts.importHTML, "import-html", "", "", "Import a forum thread from an HTML file or URL")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one filename, got %d", fs.NArg())
	}
	opts.filename = fs.Arg(0)

	opts.verbose = opts.verbose || cfg.Verbose
	if opts.filename == "" && !opts.loadsElsewhere() {
		fs.Usage()
		return nil, errors.New("missing filename")
	}
	if opts.jsonString != "" && opts.fromJSON == "" {
		return nil, errors.New("-json-string requires -from-json")
	}
	if opts.xmlString != "" && opts.fromXML == "" {
		return nil, errors.New("-xml-string requires -from-xml")
	}
	return opts, nil
}

func (opts *options) loadsElsewhere() bool {
	return opts.fromJSON != "" || opts.fromXML != "" || opts.fromYAML != "" || opts.fromSqlite != "" || opts.importHTML != ""
}

type app struct {
	opts    *options
	parser  *parser.Parser
	crawler craw.Crawler
	out     io.Writer
}

func (a *app) validate() error {
	_, result := a.parser.Load(a.opts.filename)
	if result.Valid {
		fmt.Fprintf(a.out, "The file '%s' is valid.\n", a.opts.filename)
		return nil
	}
	fmt.Fprintf(a.out, "Validation Error: %s\n", result.Message)
	fmt.Fprintf(a.out, "Line: %s\n", strings.TrimSpace(result.Line))
	return errInvalid
}

func (a *app) loadSqlite() (*archive.Document, error) {
	store := db.NewArchiveDb(a.opts.fromSqlite)
	if err := store.Open(); err != nil {
		return nil, err
	}
	defer store.Close()

	if a.opts.filename != "" {
		id, err := store.ArchiveId(a.opts.filename)
		if err != nil {
			return nil, err
		}
		return store.LoadDocument(id)
	}
	records, err := store.Archives()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", a.opts.fromSqlite, archive.ErrNotFound)
	}
	return store.LoadDocument(records[0].Id)
}

func (a *app) importHTML() (*archive.Document, error) {
	source := a.opts.importHTML
	var imp *craw.Import
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		var err error
		if imp, err = a.crawler.ImportThread(source); err != nil {
			return nil, err
		}
	} else {
		data, err := fileio.ReadFile(source)
		if err != nil {
			return nil, &archive.IOError{Path: source, Err: err}
		}
		page, err := craw.ParsePage(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if imp, err = craw.BuildImport(1, page.Title, page.Floors); err != nil {
			return nil, err
		}
	}

	name := imp.Thread.Title
	if name == "" {
		name = "Imported thread"
	}
	service, err := imp.Service(1, name)
	if err != nil {
		return nil, err
	}
	return &archive.Document{Services: []*archive.Service{service}}, nil
}

func (a *app) load() (*archive.Document, error) {
	opts := a.opts
	switch {
	case opts.fromJSON != "":
		if opts.jsonString != "" {
			return exchange.Unmarshal([]byte(opts.jsonString), exchange.JSON)
		}
		return exchange.ReadFile(opts.fromJSON, exchange.JSON)
	case opts.fromXML != "":
		if opts.xmlString != "" {
			return exchange.Unmarshal([]byte(opts.xmlString), exchange.XML)
		}
		return exchange.ReadFile(opts.fromXML, exchange.XML)
	case opts.fromYAML != "":
		return exchange.ReadFile(opts.fromYAML, exchange.YAML)
	case opts.fromSqlite != "":
		return a.loadSqlite()
	case opts.importHTML != "":
		return a.importHTML()
	default:
		return a.parser.ParseFile(opts.filename)
	}
}

func (a *app) archiveName() string {
	switch {
	case a.opts.filename != "" && a.opts.fromSqlite == "":
		return filepath.Base(a.opts.filename)
	case a.opts.importHTML != "":
		return filepath.Base(a.opts.importHTML)
	default:
		return "archive"
	}
}

func (a *app) save(doc *archive.Document) (bool, error) {
	opts := a.opts
	saved := false

	exports := []struct {
		path   string
		format exchange.Format
		label  string
	}{
		{opts.toJSON, exchange.JSON, "JSON"},
		{opts.toXML, exchange.XML, "XML"},
		{opts.toYAML, exchange.YAML, "YAML"},
	}
	for _, export := range exports {
		if export.path == "" {
			continue
		}
		if err := exchange.WriteFile(doc, export.path, export.format); err != nil {
			return saved, err
		}
		fmt.Fprintf(a.out, "Saved %s to %s\n", export.label, export.path)
		saved = true
	}

	if opts.toOriginal != "" {
		ending, err := writer.ParseLineEnding(opts.lineEnding)
		if err != nil {
			return saved, err
		}
		if err := writer.WriteFile(doc, opts.toOriginal, ending); err != nil {
			return saved, err
		}
		fmt.Fprintf(a.out, "Saved original format to %s\n", opts.toOriginal)
		saved = true
	}

	if opts.toSqlite != "" {
		store := db.NewArchiveDb(opts.toSqlite)
		if err := store.Open(); err != nil {
			return saved, err
		}
		defer store.Close()
		name := a.archiveName()
		if _, err := store.SaveDocument(name, doc); err != nil {
			return saved, err
		}
		fmt.Fprintf(a.out, "Saved archive '%s' to %s\n", name, opts.toSqlite)
		saved = true
	}
	return saved, nil
}

func (a *app) run() error {
	if a.opts.validateOnly && !a.opts.loadsElsewhere() {
		return a.validate()
	}

	doc, err := a.load()
	if err != nil {
		return err
	}
	saved, err := a.save(doc)
	if err != nil {
		return err
	}
	if !saved {
		return display.Print(a.out, doc)
	}
	return nil
}

func newApp(args []string, out io.Writer) (*app, error) {
	cfg := config.Load()
	opts, err := parseOptions(args, cfg, out)
	if err != nil {
		return nil, err
	}

	crawler := craw.NewCrawler(craw.Timeout(cfg.FetchTimeout))
	p := parser.New(
		parser.Verbose(opts.verbose),
		parser.MaxIncludeDepth(cfg.MaxIncludeDepth),
		parser.WithFetcher(crawler),
	)
	return &app{opts: opts, parser: p, crawler: crawler, out: out}, nil
}

func main() {
	if err := config.LoadEnv(); err != nil {
		logrus.Fatalf("Error loading .env file: %v", err)
	}

	a, err := newApp(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		os.Exit(2)
	}

	if err := a.run(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		}
		os.Exit(1)
	}
}
