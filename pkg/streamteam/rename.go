package streamteam

import "strings"

// RenameMap is an identity-by-default id translation table parsed from the
// flat encoding `{oldId:newId}%{oldId:newId}%…`; an empty string parses to
// an identity map.
type RenameMap struct {
	table map[string]string
}

// ParseRenameMap parses the `{old:new}%{old:new}…` encoding described in
// spec.md §6. Malformed entries are skipped rather than rejected outright
// — a best-effort identity fallback per entry, since a single malformed
// rename pair should not take down rename resolution for every other id in
// the same match.
func ParseRenameMap(encoded string) RenameMap {
	rm := RenameMap{table: map[string]string{}}
	if encoded == "" {
		return rm
	}
	for _, pair := range strings.Split(encoded, "%") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		pair = strings.TrimPrefix(pair, "{")
		pair = strings.TrimSuffix(pair, "}")
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		old, new := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if old == "" {
			continue
		}
		rm.table[old] = new
	}
	return rm
}

// Resolve returns the renamed id, or id unchanged if it has no mapping.
func (rm RenameMap) Resolve(id string) string {
	if rm.table == nil {
		return id
	}
	if renamed, ok := rm.table[id]; ok {
		return renamed
	}
	return id
}

// RenameCache lazily parses and caches a match's object-rename and
// team-rename maps, so the `{old:new}%…` string is parsed exactly once per
// match (spec.md §9: rename maps are "parsed lazily once per match and
// then cached in-process").
type RenameCache struct {
	objectByMatch map[string]RenameMap
	teamByMatch   map[string]RenameMap
}

// NewRenameCache constructs an empty cache.
func NewRenameCache() *RenameCache {
	return &RenameCache{objectByMatch: map[string]RenameMap{}, teamByMatch: map[string]RenameMap{}}
}

// ObjectRenameFor returns the parsed object-rename map for matchID,
// parsing and caching encoded on first use.
func (c *RenameCache) ObjectRenameFor(matchID, encoded string) RenameMap {
	if rm, ok := c.objectByMatch[matchID]; ok {
		return rm
	}
	rm := ParseRenameMap(encoded)
	c.objectByMatch[matchID] = rm
	return rm
}

// TeamRenameFor returns the parsed team-rename map for matchID, parsing
// and caching encoded on first use.
func (c *RenameCache) TeamRenameFor(matchID, encoded string) RenameMap {
	if rm, ok := c.teamByMatch[matchID]; ok {
		return rm
	}
	rm := ParseRenameMap(encoded)
	c.teamByMatch[matchID] = rm
	return rm
}
