package kg

import (
	"bufio"
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/scivar-kg/backend/pkg/logger"
)

// EntityRef identifies one external ontology entity. Namespace and Entity
// together form the hash key; PrefLabel and Class are carried for display
// and category inference.
type EntityRef struct {
	Namespace string
	Entity    string
	PrefLabel string
	Class     string
}

// HashOf returns the stable id for an entity reference: the decimal FNV-64a
// digest of "namespace#entity". Stable across processes, unlike interpreter
// hashes, so persisted graphs and indexes stay joinable.
func HashOf(namespace, entity string) string {
	h := fnv.New64a()
	h.Write([]byte(namespace))
	h.Write([]byte{'#'})
	h.Write([]byte(entity))
	return fmt.Sprintf("%d", h.Sum64())
}

// EntityIndex maps hash ids to entity references. Registration is first
// writer wins: a colliding registration for a different entity keeps the
// existing entry and logs once per id.
type EntityIndex struct {
	mu       sync.RWMutex
	refs     map[string]EntityRef
	reported map[string]bool
}

func NewEntityIndex() *EntityIndex {
	return &EntityIndex{
		refs:     make(map[string]EntityRef),
		reported: make(map[string]bool),
	}
}

// Register stores ref under its hash id and returns the id. Re-registering
// the same entity is a no-op.
func (ix *EntityIndex) Register(ref EntityRef) string {
	id := HashOf(ref.Namespace, ref.Entity)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	existing, ok := ix.refs[id]
	if !ok {
		ix.refs[id] = ref
		return id
	}
	if existing.Namespace != ref.Namespace || existing.Entity != ref.Entity {
		if !ix.reported[id] {
			ix.reported[id] = true
			logger.Warn("entity hash collision, keeping first entry",
				"id", id,
				"kept", existing.Namespace+"#"+existing.Entity,
				"dropped", ref.Namespace+"#"+ref.Entity)
		}
	}
	return id
}

func (ix *EntityIndex) Lookup(id string) (EntityRef, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ref, ok := ix.refs[id]
	return ref, ok
}

func (ix *EntityIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.refs)
}

// Save writes the index in a line-oriented format, one block per entity:
//
//	hash,<id>
//	namespace,<namespace>
//	entity,<entity>
//	preflabel,<label>
//	class,<class>
//
// Blocks are emitted in sorted id order so saves are diffable.
func (ix *EntityIndex) Save(path string) error {
	ix.mu.RLock()
	ids := make([]string, 0, len(ix.refs))
	for id := range ix.refs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var sb strings.Builder
	for _, id := range ids {
		ref := ix.refs[id]
		fmt.Fprintf(&sb, "hash,%s\n", id)
		fmt.Fprintf(&sb, "namespace,%s\n", ref.Namespace)
		fmt.Fprintf(&sb, "entity,%s\n", ref.Entity)
		fmt.Fprintf(&sb, "preflabel,%s\n", ref.PrefLabel)
		fmt.Fprintf(&sb, "class,%s\n", ref.Class)
	}
	ix.mu.RUnlock()
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// Load reads a saved index, re-registering every entity under the current
// hash scheme. It returns the remap from the ids recorded in the file to the
// freshly computed ids, which the caller applies to the graph's rank maps.
// Ids written by earlier builds with interpreter-dependent hashes remap
// cleanly this way.
func (ix *EntityIndex) Load(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	remap := make(map[string]string)
	var fileID string
	var ref EntityRef
	flush := func() {
		if fileID == "" {
			return
		}
		remap[fileID] = ix.Register(ref)
		fileID = ""
		ref = EntityRef{}
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ",")
		if !found {
			logger.Warn("skipping malformed entity index line", "line", line)
			continue
		}
		switch key {
		case "hash":
			flush()
			fileID = value
		case "namespace":
			ref.Namespace = value
		case "entity":
			ref.Entity = value
		case "preflabel":
			ref.PrefLabel = value
		case "class":
			ref.Class = value
		default:
			logger.Warn("skipping unknown entity index attribute", "key", key)
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return remap, nil
}
