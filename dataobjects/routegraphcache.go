package dataobjects

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gbl08ma/sqalx"
)

// PathHop is one node of a computed routing path. RouteID is empty on the
// first hop (nothing was ridden to reach the start)
type PathHop struct {
	LocationID   string `json:"location_id" msgpack:"location_id"`
	LocationName string `json:"location_name" msgpack:"location_name"`
	RouteID      string `json:"route_id,omitempty" msgpack:"route_id"`
}

// PathHops is a path stored as a JSON column
type PathHops []PathHop

// Value implements the driver.Valuer interface
func (p PathHops) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface
func (p *PathHops) Scan(val interface{}) error {
	if val == nil {
		*p = nil
		return nil
	}
	b, ok := val.([]byte)
	if !ok {
		return errors.New("Scan: Invalid val type for scanning")
	}
	return json.Unmarshal(b, p)
}

// RouteGraphCacheEntry is a persisted routing result for a location pair.
// Unreachable pairs are stored with RequiresManualRouting set so repeated
// lookups do not recompute a known-impossible path
type RouteGraphCacheEntry struct {
	FromID                string
	ToID                  string
	Path                  PathHops
	HopCount              int
	RequiresManualRouting bool
	CachedAt              time.Time
}

func getRouteGraphCacheEntriesWithSelect(node sqalx.Node, sbuilder sq.SelectBuilder) ([]*RouteGraphCacheEntry, error) {
	entries := []*RouteGraphCacheEntry{}

	tx, err := node.Beginx()
	if err != nil {
		return entries, err
	}
	defer tx.Commit() // read-only tx

	rows, err := sbuilder.Columns("from_location_id", "to_location_id", "path", "hop_count",
		"requires_manual_routing", "cached_at").
		From("route_graph_cache").
		RunWith(tx).Query()
	if err != nil {
		return entries, fmt.Errorf("getRouteGraphCacheEntriesWithSelect: %s", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry RouteGraphCacheEntry
		err := rows.Scan(
			&entry.FromID,
			&entry.ToID,
			&entry.Path,
			&entry.HopCount,
			&entry.RequiresManualRouting,
			&entry.CachedAt)
		if err != nil {
			return entries, fmt.Errorf("getRouteGraphCacheEntriesWithSelect: %s", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return entries, fmt.Errorf("getRouteGraphCacheEntriesWithSelect: %s", err)
	}
	return entries, nil
}

// GetRouteGraphCacheEntry returns the persisted routing result for a pair
func GetRouteGraphCacheEntry(node sqalx.Node, fromID, toID string) (*RouteGraphCacheEntry, error) {
	s := sdb.Select().
		Where(sq.Eq{"from_location_id": fromID}).
		Where(sq.Eq{"to_location_id": toID})
	entries, err := getRouteGraphCacheEntriesWithSelect(node, s)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New("RouteGraphCacheEntry not found")
	}
	return entries[0], nil
}

// Fresh returns whether the entry is younger than maxAge
func (entry *RouteGraphCacheEntry) Fresh(maxAge time.Duration) bool {
	return time.Since(entry.CachedAt) < maxAge
}

// Update adds or updates the cache entry
func (entry *RouteGraphCacheEntry) Update(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Insert("route_graph_cache").
		Columns("from_location_id", "to_location_id", "path", "hop_count", "requires_manual_routing", "cached_at").
		Values(entry.FromID, entry.ToID, entry.Path, entry.HopCount, entry.RequiresManualRouting, entry.CachedAt).
		Suffix("ON CONFLICT (from_location_id, to_location_id) DO UPDATE SET path = ?, hop_count = ?, requires_manual_routing = ?, cached_at = ?",
			entry.Path, entry.HopCount, entry.RequiresManualRouting, entry.CachedAt).
		RunWith(tx).Exec()

	if err != nil {
		return errors.New("AddRouteGraphCacheEntry: " + err.Error())
	}
	return tx.Commit()
}

// ClearRouteGraphCache deletes every persisted routing result
func ClearRouteGraphCache(node sqalx.Node) error {
	tx, err := node.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = sdb.Delete("route_graph_cache").
		RunWith(tx).Exec()
	if err != nil {
		return fmt.Errorf("ClearRouteGraphCache: %s", err)
	}
	return tx.Commit()
}
