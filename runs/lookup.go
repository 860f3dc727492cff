package runs

import (
	"container/list"
	"strings"
	"sync"

	"github.com/HimoriK/HexManiacAdvance/model"
	"github.com/HimoriK/HexManiacAdvance/pcs"
)

// DefaultLookupSize is the capacity of a Lookup created with size < 1.
const DefaultLookupSize = 64

// lookupKey identifies one option list. The revision makes any edit to the
// buffer miss the cache, so entries never need explicit invalidation.
type lookupKey struct {
	model    model.Model
	revision uint64
	name     string
}

type lookupEntry struct {
	options []string
	ok      bool
	element *list.Element
}

// Lookup caches the option lists read from text arrays, with LRU eviction.
// It is safe for concurrent use. Models used as keys must be comparable,
// which every pointer type is.
type Lookup struct {
	entries map[lookupKey]*lookupEntry
	lruList *list.List // Front = most recent; stores lookupKeys
	mu      sync.Mutex
	maxSize int
}

// NewLookup creates a cache holding at most size option lists.
func NewLookup(size int) *Lookup {
	if size < 1 {
		size = DefaultLookupSize
	}
	return &Lookup{
		entries: make(map[lookupKey]*lookupEntry),
		lruList: list.New(),
		maxSize: size,
	}
}

// Options returns the display strings of the text array anchored at name.
// Quotes are stripped, and added back around options that contain a space.
// ok is false when name is not an array whose first segment is text.
func (lk *Lookup) Options(m model.Model, name string) (options []string, ok bool) {
	if lk == nil {
		return readOptions(m, name)
	}
	key := lookupKey{model: m, revision: m.Revision(), name: name}

	lk.mu.Lock()
	if entry, found := lk.entries[key]; found {
		lk.lruList.MoveToFront(entry.element)
		lk.mu.Unlock()
		return entry.options, entry.ok
	}
	lk.mu.Unlock()

	options, ok = readOptions(m, name)

	lk.mu.Lock()
	defer lk.mu.Unlock()
	if _, found := lk.entries[key]; found {
		return options, ok
	}
	for lk.lruList.Len() >= lk.maxSize {
		oldest := lk.lruList.Back()
		lk.lruList.Remove(oldest)
		delete(lk.entries, oldest.Value.(lookupKey))
	}
	elem := lk.lruList.PushFront(key)
	lk.entries[key] = &lookupEntry{options: options, ok: ok, element: elem}
	return options, ok
}

// Len returns the number of cached option lists.
func (lk *Lookup) Len() int {
	if lk == nil {
		return 0
	}
	lk.mu.Lock()
	defer lk.mu.Unlock()
	return lk.lruList.Len()
}

// textArray resolves name to an array whose first segment is text.
func textArray(m model.Model, name string) (ArrayRun, bool) {
	address := m.AddressOfAnchor(name)
	if address == model.NULL {
		return ArrayRun{}, false
	}
	array, ok := m.NextRun(address).(ArrayRun)
	if !ok || array.Start() != address || array.format.Segments[0].Kind != KindText {
		return ArrayRun{}, false
	}
	return array, true
}

func readOptions(m model.Model, name string) ([]string, bool) {
	array, ok := textArray(m, name)
	if !ok {
		return nil, false
	}
	length := array.format.Segments[0].Length
	options := make([]string, array.count)
	for i := range options {
		text := pcs.Convert(m, array.start+array.ElementLength()*i, length)
		text = unquote(strings.TrimSpace(text))
		if strings.Contains(text, " ") {
			text = `"` + text + `"`
		}
		options[i] = text
	}
	return options, true
}

// unquote strips one pair of surrounding double quotes.
func unquote(text string) string {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return text[1 : len(text)-1]
	}
	return text
}
