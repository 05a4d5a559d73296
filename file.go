// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package winmd

import (
	"os"
	"path/filepath"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/gowinmd/winmd/internal/log"
)

// TinyPESize is the smallest buffer this reader will attempt to parse as
// a PE image (a DOS header plus e_lfanew).
const TinyPESize = 64

// image is one loaded, fully parsed PE file carrying an ECMA-335 CLI
// metadata root: the PE/CLI locator, stream index and table engine for a
// single physical file (spec §3 "File image"). Reader composes one or
// more images into the cross-file query surface spec.md §6 describes.
type image struct {
	DOSHeader ImageDOSHeader
	NtHeader  ImageNtHeader
	Sections  []Section
	CLR       ImageCorHeader
	Anomalies []string
	FileInfo

	path    string
	data    mmap.MMap
	size    uint32
	f       *os.File
	streams streamTable
	tables  *tables
}

// Options controls parsing behaviour (mirrors the teacher's pe.Options).
type Options struct {
	// Fast parses only the PE header and skips the CLI metadata walk.
	Fast bool

	// WinRTOnly selects the namespace-index construction mode (spec §4.9
	// point 1, SPEC_FULL.md §13): true restricts TypeDef selection to
	// rows with the windows_runtime flag bit set; false inserts every row.
	WinRTOnly bool

	// Logger receives recoverable parsing diagnostics.
	Logger log.Logger
}

// withDefaults fills in the opinionated defaults for a nil Options. A
// caller passing a non-nil *Options gets exactly the fields they set;
// the WinRTOnly-by-default behaviour (SPEC_FULL.md §13) only applies to
// the common `Open(path, nil)` case.
func (o *Options) withDefaults() *Options {
	if o != nil {
		return o
	}
	return &Options{WinRTOnly: true}
}

func newHelper(opts *Options) *log.Helper {
	if opts.Logger != nil {
		return log.NewHelper(opts.Logger)
	}
	return log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stdout), log.FilterLevel(log.LevelError)))
}

// openImage parses one PE file already resident in memory.
func openImage(path string, data []byte, mm mmap.MMap, f *os.File, opts *Options, logger *log.Helper) (*image, error) {
	const op = "Parse"

	if len(data) < TinyPESize {
		return nil, invalidData(op, "file %q is smaller than the minimum PE size", path)
	}

	img := &image{path: path, data: mm, size: uint32(len(data)), f: f}
	if mm == nil {
		img.data = mmap.MMap(data)
	}

	if err := img.parseDOSHeader(); err != nil {
		return nil, err
	}
	if err := img.parseNTHeader(); err != nil {
		return nil, err
	}
	if err := img.parseSectionHeader(); err != nil {
		return nil, err
	}
	if opts.Fast {
		return img, nil
	}

	rootOffset, err := img.parseCLRHeader()
	if err != nil {
		return nil, err
	}
	st, err := img.parseStreams(rootOffset)
	if err != nil {
		return nil, err
	}
	img.streams = st

	t, err := parseTables(st.tables)
	if err != nil {
		return nil, err
	}
	img.tables = t

	logger.Debugf("parsed %q: %d TypeDef rows", path, img.tables.rowCounts[tableTypeDef])
	return img, nil
}

func (img *image) close() error {
	// Only file-backed images own a memory mapping; a NewBytes buffer
	// belongs to the caller and is left alone.
	if img.data != nil && img.f != nil {
		_ = img.data.Unmap()
	}
	if img.f != nil {
		return img.f.Close()
	}
	return nil
}

// Reader is the queryable, cross-file type database spec.md §1 describes:
// one or more parsed images plus the namespace index built over them.
// Once constructed it is immutable and safe to share across goroutines
// (spec §5).
type Reader struct {
	images []*image
	ns     *namespaceIndex
	opts   *Options
	logger *log.Helper
}

func newReader(images []*image, opts *Options) (*Reader, error) {
	ns, err := buildNamespaceIndex(images, opts.WinRTOnly)
	if err != nil {
		return nil, err
	}
	return &Reader{images: images, ns: ns, opts: opts, logger: newHelper(opts)}, nil
}

// Open memory-maps and parses a single `.winmd`/PE file (spec §6 `from_files`
// specialised to one path).
func Open(path string, opts *Options) (*Reader, error) {
	const op = "Open"
	opts = opts.withDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, ioErr(op, err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, ioErr(op, err)
	}

	img, err := openImage(path, data, data, f, opts, newHelper(opts))
	if err != nil {
		_ = data.Unmap()
		f.Close()
		return nil, err
	}
	return newReader([]*image{img}, opts)
}

// NewBytes parses a single in-memory `.winmd`/PE buffer, kept for parity
// with the teacher's `pe.NewBytes` entry point.
func NewBytes(data []byte, opts *Options) (*Reader, error) {
	opts = opts.withDefaults()
	img, err := openImage("<memory>", data, nil, nil, opts, newHelper(opts))
	if err != nil {
		return nil, err
	}
	return newReader([]*image{img}, opts)
}

// FromFiles loads every path as a metadata file and builds one cross-file
// reader over all of them (spec §6 `from_files(paths)`).
func FromFiles(paths []string, opts *Options) (*Reader, error) {
	const op = "FromFiles"
	opts = opts.withDefaults()
	logger := newHelper(opts)

	images := make([]*image, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			for _, img := range images {
				_ = img.close()
			}
			return nil, ioErr(op, err)
		}
		data, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			for _, img := range images {
				_ = img.close()
			}
			return nil, ioErr(op, err)
		}
		img, err := openImage(p, data, data, f, opts, logger)
		if err != nil {
			_ = data.Unmap()
			f.Close()
			for _, im := range images {
				_ = im.close()
			}
			return nil, err
		}
		images = append(images, img)
	}
	return newReader(images, opts)
}

// FromDirectory loads every `*.winmd` file directly inside dir (spec §6
// `from_directory(path)`).
func FromDirectory(dir string, opts *Options) (*Reader, error) {
	const op = "FromDirectory"
	matches, err := filepath.Glob(filepath.Join(dir, "*.winmd"))
	if err != nil {
		return nil, ioErr(op, err)
	}
	if len(matches) == 0 {
		return nil, invalidData(op, "no .winmd files found in %q", dir)
	}
	return FromFiles(matches, opts)
}

// Close releases every underlying file handle and memory mapping.
func (r *Reader) Close() error {
	var first error
	for _, img := range r.images {
		if err := img.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Anomalies aggregates the PE/CLI-locator-layer soft-failure observations
// across every loaded image (SPEC_FULL.md §15).
func (r *Reader) Anomalies() []string {
	var all []string
	for _, img := range r.images {
		all = append(all, img.Anomalies...)
	}
	return all
}

// Namespaces lists every namespace name discovered across all loaded files.
func (r *Reader) Namespaces() []string { return r.ns.Namespaces() }

// Namespace looks up one namespace's bucket view.
func (r *Reader) Namespace(name string) (Namespace, bool) { return r.ns.Namespace(name) }

// Find looks up a TypeDef by its full "Namespace.Name" (spec §6 `find`).
func (r *Reader) Find(fullName string) (TypeDef, bool) { return r.ns.Find(fullName) }
