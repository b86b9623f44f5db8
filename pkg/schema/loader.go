package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	version "github.com/hashicorp/go-version"
)

// DefaultVersionConstraint is the range of document versions this module
// understands. Documents without a version are treated as DefaultVersion.
const (
	DefaultVersionConstraint = ">= 1.0.0, < 2.0.0"
	DefaultVersion           = "1.0.0"
)

// ErrUnsupportedVersion is returned for documents outside the accepted range.
var ErrUnsupportedVersion = errors.New("schema: unsupported document version")

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFS sets the filesystem used for SourceKindFS documents.
func WithFS(fsys fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithHTTPClient enables URL sources using the provided client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		l.http = client
	}
}

// WithRequestTimeout bounds URL fetches.
func WithRequestTimeout(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// WithVersionConstraint overrides DefaultVersionConstraint.
func WithVersionConstraint(constraint string) LoaderOption {
	return func(l *Loader) {
		l.constraint = strings.TrimSpace(constraint)
	}
}

// WithoutSanitize keeps labels untouched.
func WithoutSanitize() LoaderOption {
	return func(l *Loader) {
		l.sanitize = false
	}
}

// Loader reads form documents from files, fs.FS entries or URLs, decodes JSON
// or YAML, gates the document version and checks the structure.
type Loader struct {
	fs         fs.FS
	http       *http.Client
	timeout    time.Duration
	constraint string
	sanitize   bool
}

// NewLoader constructs a Loader. URL sources stay disabled until an HTTP
// client is supplied.
func NewLoader(options ...LoaderOption) *Loader {
	l := &Loader{
		constraint: DefaultVersionConstraint,
		sanitize:   true,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Load fetches the document behind src and parses it.
func (l *Loader) Load(ctx context.Context, src Source) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = os.ReadFile(src.Location())
	case SourceKindFS:
		if l.fs == nil {
			return Document{}, errors.New("schema loader: filesystem is not configured")
		}
		data, err = fs.ReadFile(l.fs, src.Location())
	case SourceKindURL:
		data, err = l.loadHTTP(ctx, src.Location())
	default:
		err = fmt.Errorf("schema loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Document{}, fmt.Errorf("schema loader: read %s: %w", src.Location(), err)
	}
	return l.Parse(src, data)
}

// Parse decodes raw bytes attributed to src.
func (l *Loader) Parse(src Source, data []byte) (Document, error) {
	if src == nil {
		src = SourceInline("")
	}
	doc, err := decodeDocument(data, src.Location())
	if err != nil {
		return Document{}, err
	}
	doc.source = src

	if err := l.checkVersion(doc.Version); err != nil {
		return Document{}, err
	}
	if l.sanitize {
		doc.Title = SanitizeText(doc.Title)
		doc.Fields = SanitizeFields(doc.Fields)
	}
	if err := Check(doc.Fields); err != nil {
		return Document{}, fmt.Errorf("schema: %s: %w", src.Location(), err)
	}
	return doc, nil
}

// Parse decodes a document with the default loader settings.
func Parse(name string, data []byte) (Document, error) {
	return NewLoader().Parse(SourceInline(name), data)
}

func (l *Loader) checkVersion(raw string) error {
	if l.constraint == "" {
		return nil
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		value = DefaultVersion
	}
	v, err := version.NewVersion(value)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedVersion, raw, err)
	}
	constraints, err := version.NewConstraint(l.constraint)
	if err != nil {
		return fmt.Errorf("schema loader: invalid version constraint %q: %w", l.constraint, err)
	}
	if !constraints.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedVersion, v, l.constraint)
	}
	return nil
}

func (l *Loader) loadHTTP(ctx context.Context, url string) ([]byte, error) {
	if l.http == nil {
		return nil, errors.New("http support disabled")
	}

	reqCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("unexpected status " + resp.Status)
	}
	return io.ReadAll(resp.Body)
}
