package parser

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/davidleitw/msgarchive/internal/archive"
	"github.com/davidleitw/msgarchive/internal/fileio"
)

const stringSource = "<string>"

var errNoFetcher = errors.New("remote include without a configured fetcher")

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// resolveRef resolves an include reference against the location of the
// including source: a directory for local files, the full URL for remote ones.
func resolveRef(ref, base string) string {
	if isURL(ref) || base == "" {
		return ref
	}
	if isURL(base) {
		baseURL, err := url.Parse(base)
		if err != nil {
			return ref
		}
		refURL, err := url.Parse(filepath.ToSlash(ref))
		if err != nil {
			return ref
		}
		return baseURL.ResolveReference(refURL).String()
	}
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(base, ref)
}

func canonical(ref string) string {
	if isURL(ref) {
		return ref
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return filepath.Clean(ref)
	}
	return abs
}

// parseRef parses the file or URL named by ref, guarding against include
// cycles and runaway include depth. chain is never modified in place.
func (p *Parser) parseRef(ref, base string, chain []string) (*archive.Document, *line, error) {
	path := resolveRef(ref, base)
	name := canonical(path)

	for _, active := range chain {
		if active == name {
			return nil, nil, &archive.CyclicIncludeError{Path: name, Chain: append([]string{}, chain...)}
		}
	}
	if len(chain) > p.maxDepth {
		return nil, nil, &archive.FormatError{
			Field: "Include",
			Msg:   fmt.Sprintf("maximum include depth (%d) exceeded while including '%s'", p.maxDepth, path),
		}
	}

	data, err := p.read(path)
	if err != nil {
		p.logger.WithError(err).Errorf("read %s failed", path)
		return nil, nil, err
	}

	next := make([]string, len(chain), len(chain)+1)
	copy(next, chain)
	next = append(next, name)

	nextBase := path
	if !isURL(path) {
		nextBase = filepath.Dir(path)
	}
	return p.parseData(path, nextBase, data, next)
}

func (p *Parser) read(path string) ([]byte, error) {
	if !isURL(path) {
		data, err := fileio.ReadFile(path)
		if err != nil {
			return nil, &archive.IOError{Path: path, Err: err}
		}
		return data, nil
	}

	if p.fetcher == nil {
		return nil, &archive.IOError{Path: path, Err: errNoFetcher}
	}
	raw, err := p.fetcher.Fetch(path)
	if err != nil {
		return nil, &archive.IOError{Path: path, Err: err}
	}
	// Pick the codec from the URL path so a query string does not hide the extension.
	codecName := path
	if parsed, err := url.Parse(path); err == nil {
		codecName = parsed.Path
	}
	data, err := fileio.Decode(codecName, raw)
	if err != nil {
		return nil, &archive.IOError{Path: path, Err: err}
	}
	return data, nil
}

// include parses every referenced file of a closed include block, in order.
func (b *builder) include(refs []string) ([]*archive.Document, error) {
	docs := make([]*archive.Document, 0, len(refs))
	for _, ref := range refs {
		doc, _, err := b.p.parseRef(ref, b.base, b.chain)
		if err != nil {
			return nil, fmt.Errorf("line %d: include '%s': %w", b.cur.num, ref, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (b *builder) mergeIncludes(sec section, docs []*archive.Document) {
	for _, doc := range docs {
		switch sec {
		case secIncludeService:
			b.doc.Services = append(b.doc.Services, doc.Services...)
		case secIncludeUsers:
			for _, service := range doc.Services {
				for id, user := range service.Users {
					b.service.Users[id] = user
				}
			}
		case secIncludeMessages:
			for _, service := range doc.Services {
				b.declare(service)
				b.service.MessageThreads = append(b.service.MessageThreads, service.MessageThreads...)
			}
		case secIncludeCategories:
			for _, service := range doc.Services {
				b.declare(service)
				for _, category := range service.Categories {
					category.Type, category.Level = archive.SplitKind(category.Kind)
					b.refs.registerCategory(category)
				}
				b.service.Categories = append(b.service.Categories, service.Categories...)
			}
		}
	}
}

// declare carries the groups, interactions and status values of an included
// service into the current one. They are applied again when the service
// closes, since a later Categorization List or list key replaces them.
func (b *builder) declare(included *archive.Service) {
	b.service.MergeDeclarations(included)
	b.included = append(b.included, included)
}
