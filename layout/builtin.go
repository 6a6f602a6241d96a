package layout

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"
)

// Field names shared by the autosplitter layouts
const (
	FieldLevel               = "level"
	FieldChapter             = "chapter"
	FieldMode                = "mode"
	FieldTimerActive         = "timerActive"
	FieldChapterStarted      = "chapterStarted"
	FieldChapterComplete     = "chapterComplete"
	FieldChapterTime         = "chapterTime"
	FieldChapterStrawberries = "chapterStrawberries"
	FieldChapterCassette     = "chapterCassette"
	FieldChapterHeart        = "chapterHeart"
	FieldFileTime            = "fileTime"
	FieldFileStrawberries    = "fileStrawberries"
	FieldFileCassettes       = "fileCassettes"
	FieldFileHearts          = "fileHearts"

	FieldChapterDeaths = "chapterDeaths"
	FieldLevelDeaths   = "levelDeaths"
	FieldAreaName      = "areaName"
	FieldAreaSID       = "areaSID"
	FieldLevelSet      = "levelSet"
	FieldFeed          = "feed"
	FieldFeedIndex     = "feedIndex"
)

// The fresh-launch state of the tracked object: the top of the vtable pointer, an empty sync block,
// a wildcard level pointer, chapter = mode = -1 and everything else zero.
const autoSplitterV1Signature = "7f00000000000000000000????????????????ffffffffffffffff" +
	"000000000000000000000000000000000000000000000000" +
	"000000000000000000000000000000000000000000000000"

// AutoSplitterV1 is the object published by the game for autosplitters
var AutoSplitterV1 = Layout{
	Name:            "autosplitter-v1",
	HeaderSize:      16,
	BodySize:        60,
	Signature:       autoSplitterV1Signature,
	SignatureOffset: -5,
	Fields: []Field{
		{FieldLevel, 0, KindPointer},
		{FieldChapter, 8, KindI32},
		{FieldMode, 12, KindI32},
		{FieldTimerActive, 16, KindBool},
		{FieldChapterStarted, 17, KindBool},
		{FieldChapterComplete, 18, KindBool},
		{FieldChapterTime, 24, KindI64},
		{FieldChapterStrawberries, 32, KindI32},
		{FieldChapterCassette, 36, KindBool},
		{FieldChapterHeart, 37, KindBool},
		{FieldFileTime, 40, KindI64},
		{FieldFileStrawberries, 48, KindI32},
		{FieldFileCassettes, 52, KindI32},
		{FieldFileHearts, 56, KindI32},
	},
}

// ExtendedV1 is published by the companion mod behind a fixed marker
var ExtendedV1 = Layout{
	Name:       "extended-v1",
	HeaderSize: 8,
	BodySize:   44,
	Signature:  "1100efbeadde0011",
	Fields: []Field{
		{FieldChapterDeaths, 0, KindI32},
		{FieldLevelDeaths, 4, KindI32},
		{FieldAreaName, 8, KindPointer},
		{FieldAreaSID, 16, KindPointer},
		{FieldLevelSet, 24, KindPointer},
		{FieldFeed, 32, KindPointer},
		{FieldFeedIndex, 40, KindI32},
	},
}

// Registry maps layout names to pinned tables
type Registry struct {
	mu      sync.RWMutex
	layouts map[string]Layout
}

// NewRegistry returns a registry holding the builtin layouts
func NewRegistry() *Registry {
	r := &Registry{layouts: make(map[string]Layout)}
	for _, l := range []Layout{AutoSplitterV1, ExtendedV1} {
		r.layouts[l.Name] = l
	}
	return r
}

// Register adds or replaces a layout after validating it
func (r *Registry) Register(l Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[l.Name] = l
	return nil
}

func (r *Registry) Get(name string) (*Layout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.layouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q (have %s)", name, strings.Join(r.namesLocked(), ", "))
	}
	return &l, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type layoutFile struct {
	Layouts []Layout `yaml:"layouts"`
}

// LoadYAML parses a document of the form
//
//	layouts:
//	  - name: autosplitter-v2
//	    header-size: 16
//	    body-size: 64
//	    signature: "7f00...."
//	    signature-offset: -5
//	    fields:
//	      - {name: level, offset: 0, kind: ptr}
func LoadYAML(r io.Reader) ([]Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var f layoutFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}
	for i := range f.Layouts {
		if err := f.Layouts[i].Validate(); err != nil {
			return nil, err
		}
	}
	return f.Layouts, nil
}

func LoadFile(path string) ([]Layout, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return LoadYAML(fh)
}
