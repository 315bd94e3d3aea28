package catalog

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ansarctica/ross/internal/types"
)

func init() {
	gob.Register(types.Program{})
	gob.Register(types.Requirement{})
	gob.Register([]types.Program{})
}

type Catalog struct {
	mu         sync.RWMutex
	programs   []types.Program
	nameList   []string
	lowerIndex map[string]int
}

func New(programs []types.Program) *Catalog {
	c := &Catalog{}
	c.Replace(programs)
	return c
}

func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	list, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return New(list), nil
}

func Decode(b []byte) ([]types.Program, error) {
	var list []types.Program
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}

func Encode(list []types.Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(list); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Catalog) Replace(programs []types.Program) {
	names := make([]string, 0, len(programs))
	index := make(map[string]int, len(programs))
	for i, p := range programs {
		names = append(names, p.PROGRAM_NAME)
		index[types.Normalize(p.PROGRAM_NAME)] = i
		for _, a := range p.ALIASES {
			if _, ok := index[types.Normalize(a)]; !ok {
				index[types.Normalize(a)] = i
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs = programs
	c.nameList = names
	c.lowerIndex = index
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.nameList))
	copy(out, c.nameList)
	return out
}

// Lookup resolves a program by exact name or alias, then by name prefix,
// then by name substring. Matching is case-insensitive.
func (c *Catalog) Lookup(q string) (types.Program, bool) {
	lq := types.Normalize(q)
	if lq == "" {
		return types.Program{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if idx, ok := c.lowerIndex[lq]; ok {
		return c.programs[idx], true
	}
	for _, p := range c.programs {
		if strings.HasPrefix(types.Normalize(p.PROGRAM_NAME), lq) {
			return p, true
		}
	}
	for _, p := range c.programs {
		if strings.Contains(types.Normalize(p.PROGRAM_NAME), lq) {
			return p, true
		}
	}
	return types.Program{}, false
}
