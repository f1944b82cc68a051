// Package docpkg reads and writes zip containers: DOCX input packages and the
// converted output bundle.
package docpkg

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
)

// ErrNotFound is returned when a named entry does not exist.
var ErrNotFound = errors.New("entry not found")

// Entry is one named member of a package.
type Entry struct {
	Name string
	Data []byte
}

// Package is an in-memory view of a zip container. Entries read from the
// source archive are decompressed lazily; written entries shadow them.
type Package struct {
	order   []string
	files   map[string]*zip.File
	written map[string][]byte
	folded  map[string]string
}

// New returns an empty package for building output bundles.
func New() *Package {
	return &Package{
		files:   make(map[string]*zip.File),
		written: make(map[string][]byte),
		folded:  make(map[string]string),
	}
}

// Open reads a zip container from a byte buffer.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	p := New()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := f.Name
		if f.NonUTF8 && legacyName(name) {
			if decoded, err := DecodeName([]byte(name)); err == nil {
				name = decoded
			}
		}
		if _, dup := p.files[name]; !dup {
			p.order = append(p.order, name)
		}
		p.files[name] = f
		p.folded[strings.ToLower(name)] = name
	}
	return p, nil
}

// OpenFile reads a zip container from disk.
func OpenFile(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Open(data)
}

// Names returns entry names in container order followed by newly written ones.
func (p *Package) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Lookup resolves name to the stored entry name. OOXML part names are
// case-insensitive, so an exact miss falls back to a case-folded match.
func (p *Package) Lookup(name string) (string, bool) {
	name = strings.TrimPrefix(name, "/")
	if _, ok := p.written[name]; ok {
		return name, true
	}
	if _, ok := p.files[name]; ok {
		return name, true
	}
	if real, ok := p.folded[strings.ToLower(name)]; ok {
		return real, true
	}
	return "", false
}

// Has reports whether the named entry exists.
func (p *Package) Has(name string) bool {
	_, ok := p.Lookup(name)
	return ok
}

// Read returns the contents of the named entry.
func (p *Package) Read(name string) ([]byte, error) {
	real, ok := p.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if data, ok := p.written[real]; ok {
		return data, nil
	}
	rc, err := p.files[real].Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", real, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", real, err)
	}
	return data, nil
}

// Write stores data under name, replacing any existing entry.
func (p *Package) Write(name string, data []byte) {
	name = strings.TrimPrefix(name, "/")
	if real, ok := p.Lookup(name); ok {
		name = real
	} else {
		p.order = append(p.order, name)
		p.folded[strings.ToLower(name)] = name
	}
	p.written[name] = data
}

// Entries returns every entry with its contents, in order.
func (p *Package) Entries() ([]Entry, error) {
	out := make([]Entry, 0, len(p.order))
	for _, name := range p.order {
		data, err := p.Read(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Name: name, Data: data})
	}
	return out, nil
}

// Commit writes the package as a zip container. Entry names are encoded in
// the legacy Korean code page and the UTF-8 name flag is left unset, which
// is what the consuming office software expects. Contents are stored as-is
// with deflate at its fastest level.
func (p *Package) Commit(w io.Writer) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	now := time.Now()
	for _, name := range p.order {
		data, err := p.Read(name)
		if err != nil {
			return err
		}
		encoded, err := EncodeName(name)
		if err != nil {
			return err
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     string(encoded),
			Method:   zip.Deflate,
			Modified: now,
			NonUTF8:  true,
		})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("write entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

// Bytes commits the package into a new buffer.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Commit(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeName converts a UTF-8 entry name to the legacy Korean code page.
func EncodeName(name string) ([]byte, error) {
	if isASCII(name) {
		return []byte(name), nil
	}
	out, err := korean.EUCKR.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("encode entry name %q: %w", name, err)
	}
	return out, nil
}

// DecodeName converts a legacy Korean code page entry name to UTF-8.
func DecodeName(raw []byte) (string, error) {
	out, err := korean.EUCKR.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode entry name: %w", err)
	}
	if !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
		return "", fmt.Errorf("decode entry name: %x is not valid EUC-KR", raw)
	}
	return string(out), nil
}

// legacyName reports whether an unflagged entry name is in the legacy code
// page. Many writers store UTF-8 names without the flag; those are kept.
// EUC-KR pairs that happen to be valid UTF-8 only ever decode to two-byte
// runes (U+0080 to U+07FF), which real Korean UTF-8 names do not contain.
func legacyName(name string) bool {
	if !utf8.ValidString(name) {
		return true
	}
	for _, r := range name {
		if r >= utf8.RuneSelf && r < 0x800 {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
