// Package opc reads the parts of an Open Packaging Conventions archive (xlsx)
// and resolves the relationship parts that link them together.
package opc

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrPartNotFound indicates the package has no part with the requested name.
var ErrPartNotFound = errors.New("part not found")

// PartReader is the read-only view of a package used by the parsers.
type PartReader interface {
	ListParts() []string
	ReadPart(name string) ([]byte, error)
}

// Package is an opened xlsx archive. It is safe to read from concurrently
// but must be closed exactly once.
type Package struct {
	zr     *zip.Reader
	closer io.Closer
	names  []string
	exact  map[string]*zip.File
	folded map[string]*zip.File
}

// Open opens the archive at path.
func Open(path string) (*Package, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open package %s: %w", path, err)
	}
	return newPackage(&rc.Reader, rc), nil
}

// FromBytes opens an archive held in memory.
func FromBytes(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	return newPackage(zr, nil), nil
}

func newPackage(zr *zip.Reader, closer io.Closer) *Package {
	p := &Package{
		zr:     zr,
		closer: closer,
		exact:  make(map[string]*zip.File, len(zr.File)),
		folded: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		p.names = append(p.names, f.Name)
		p.exact[f.Name] = f
		key := strings.ToLower(f.Name)
		if _, ok := p.folded[key]; !ok {
			p.folded[key] = f
		}
	}
	return p
}

// Close releases the underlying file, if any.
func (p *Package) Close() error {
	if p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	return err
}

// ListParts returns every part name in archive order.
func (p *Package) ListParts() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// HasPart reports whether the named part exists.
func (p *Package) HasPart(name string) bool {
	return p.lookup(name) != nil
}

// ReadPart returns the content of the named part. A missing part yields an
// error wrapping ErrPartNotFound; any other error is a read failure.
func (p *Package) ReadPart(name string) ([]byte, error) {
	f := p.lookup(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", name, err)
	}
	return data, nil
}

// Part names are case-insensitive in OPC, so an exact miss falls back to a
// case-folded lookup.
func (p *Package) lookup(name string) *zip.File {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return nil
	}
	if f, ok := p.exact[name]; ok {
		return f
	}
	return p.folded[strings.ToLower(name)]
}

// Exists reports whether name is a part of r, using HasPart when r provides it.
func Exists(r PartReader, name string) bool {
	if h, ok := r.(interface{ HasPart(string) bool }); ok {
		return h.HasPart(name)
	}
	name = strings.TrimPrefix(name, "/")
	for _, n := range r.ListParts() {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
