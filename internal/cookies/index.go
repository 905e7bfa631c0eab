package cookies

import (
	"fmt"
	"slices"
)

// Index is the three-level cookie index: domain -> path -> key -> cookie.
type Index map[string]map[string]map[string]*Cookie

// Snapshot is the plain persisted form of an Index.
type Snapshot map[string]map[string]map[string]Fields

// Len returns the number of cookies in the index.
func (idx Index) Len() int {
	n := 0
	for _, paths := range idx {
		for _, keys := range paths {
			n += len(keys)
		}
	}
	return n
}

// Cookies flattens the index, ordered by CreationIndex ascending.
func (idx Index) Cookies() []*Cookie {
	result := make([]*Cookie, 0, idx.Len())
	for _, paths := range idx {
		for _, keys := range paths {
			for _, c := range keys {
				result = append(result, c)
			}
		}
	}
	SortByCreation(result)
	return result
}

// Snapshot serializes every cookie in the index.
func (idx Index) Snapshot() (Snapshot, error) {
	snap := make(Snapshot, len(idx))
	for domain, paths := range idx {
		snapPaths := make(map[string]map[string]Fields, len(paths))
		for path, keys := range paths {
			snapKeys := make(map[string]Fields, len(keys))
			for key, c := range keys {
				f, err := c.Fields()
				if err != nil {
					return nil, err
				}
				snapKeys[key] = f
			}
			snapPaths[path] = snapKeys
		}
		snap[domain] = snapPaths
	}
	return snap, nil
}

// Index rehydrates every leaf of the snapshot into a Cookie. Indexing fields
// missing from a leaf are taken from its position; a leaf that contradicts
// its position is rejected. Empty levels are dropped.
func (snap Snapshot) Index() (Index, error) {
	idx := make(Index, len(snap))
	for domain, paths := range snap {
		for path, keys := range paths {
			for key, f := range keys {
				if f == nil {
					return nil, fmt.Errorf("%w: nil cookie at %s", ErrMalformedSnapshot, position(domain, path, key))
				}
				c, err := FromFields(f)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: %w", ErrMalformedSnapshot, position(domain, path, key), err)
				}
				if err := placeAt(c, domain, path, key); err != nil {
					return nil, err
				}
				if idx[domain] == nil {
					idx[domain] = make(map[string]map[string]*Cookie)
				}
				if idx[domain][path] == nil {
					idx[domain][path] = make(map[string]*Cookie)
				}
				idx[domain][path][key] = c
			}
		}
	}
	return idx, nil
}

// Len returns the number of cookies in the snapshot.
func (snap Snapshot) Len() int {
	n := 0
	for _, paths := range snap {
		for _, keys := range paths {
			n += len(keys)
		}
	}
	return n
}

func placeAt(c *Cookie, domain, path, key string) error {
	fill := func(field *string, want, name string) error {
		if *field == "" {
			*field = want
			return nil
		}
		if *field != want {
			return fmt.Errorf("%w: cookie %s %q stored at %s", ErrMalformedSnapshot, name, *field, position(domain, path, key))
		}
		return nil
	}
	if err := fill(&c.Domain, domain, "domain"); err != nil {
		return err
	}
	if err := fill(&c.Path, path, "path"); err != nil {
		return err
	}
	return fill(&c.Key, key, "key")
}

func position(domain, path, key string) string {
	return fmt.Sprintf("[%s][%s][%s]", domain, path, key)
}

// SortByCreation sorts cookies by CreationIndex ascending. Ties keep their
// relative order.
func SortByCreation(cs []*Cookie) {
	slices.SortStableFunc(cs, func(a, b *Cookie) int {
		switch {
		case a.CreationIndex < b.CreationIndex:
			return -1
		case a.CreationIndex > b.CreationIndex:
			return 1
		}
		return 0
	})
}
