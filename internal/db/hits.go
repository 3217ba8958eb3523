package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/banshee-data/dtplot/internal/geometry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrEventNotFound is returned for an unknown event id.
	ErrEventNotFound = errors.New("event not found")
	// ErrInvalidHit is returned for a hit that has no values or a NaN value.
	ErrInvalidHit = errors.New("invalid hit")
)

// Event is one recorded set of cell hits.
type Event struct {
	ID        string
	Label     string
	CreatedAt time.Time
	// Cells is the number of distinct cells with hits.
	Cells int
}

// Hit is the annotation of one cell of one chamber.
type Hit struct {
	Chamber geometry.ChamberKey
	Info    geometry.CellInfo
}

// Validate checks that the hit carries at least one value and no NaN.
// Hits are stored one row per value.
func (h Hit) Validate() error {
	cell := fmt.Sprintf("%s SL%d L%d W%d", h.Chamber, h.Info.SuperLayer, h.Info.Layer, h.Info.Wire)
	if len(h.Info.Values) == 0 {
		return fmt.Errorf("%w: %s has no values", ErrInvalidHit, cell)
	}
	for _, name := range sortedNames(h.Info.Values) {
		if math.IsNaN(h.Info.Values[name]) {
			return fmt.Errorf("%w: %s value %q is NaN", ErrInvalidHit, cell, name)
		}
	}
	return nil
}

// HitsFromRecords reads flat records carrying wheel, sector, station, sl,
// l, w and any numeric annotations.
func HitsFromRecords(records []map[string]any) ([]Hit, error) {
	hits := make([]Hit, 0, len(records))
	for i, r := range records {
		var k geometry.ChamberKey
		var err error
		if k.Wheel, err = intField(r, "wheel"); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if k.Sector, err = intField(r, "sector"); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if k.Station, err = intField(r, "station"); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if err := k.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		info, err := geometry.CellInfoFromMap(r, "wheel", "sector", "station")
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		h := Hit{Chamber: k, Info: info}
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func intField(m map[string]any, key string) (int, error) {
	raw, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("missing %q", key)
	}
	f, ok := geometry.ToNumber(raw)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("%q must be an integer, got %v", key, raw)
	}
	return int(f), nil
}

// RecordEvent stores hits under a new event and returns its id. Nothing is
// stored when any hit fails Validate.
func (db *DB) RecordEvent(ctx context.Context, label string, hits []Hit) (string, error) {
	for _, h := range hits {
		if err := h.Validate(); err != nil {
			return "", err
		}
	}
	id := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (event_id, label, created_at) VALUES (?, ?, ?)`,
		id, label, time.Now().UnixNano(),
	); err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO cell_hits (
			event_id, wheel, sector, station, sl, layer, wire, name, value
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	rows := 0
	for _, h := range hits {
		for _, name := range sortedNames(h.Info.Values) {
			if _, err := stmt.ExecContext(ctx, id,
				h.Chamber.Wheel, h.Chamber.Sector, h.Chamber.Station,
				h.Info.SuperLayer, h.Info.Layer, h.Info.Wire,
				name, h.Info.Values[name],
			); err != nil {
				return "", fmt.Errorf("insert hit %s SL%d L%d W%d: %w",
					h.Chamber, h.Info.SuperLayer, h.Info.Layer, h.Info.Wire, err)
			}
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	db.log.Debug("recorded event", zap.String("event_id", id), zap.String("label", label), zap.Int("rows", rows))
	return id, nil
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ListEvents returns every event, newest first.
func (db *DB) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT e.event_id, e.label, e.created_at,
			COUNT(DISTINCT h.wheel || ':' || h.sector || ':' || h.station || ':' ||
				h.sl || ':' || h.layer || ':' || h.wire)
		FROM events e
		LEFT JOIN cell_hits h ON h.event_id = e.event_id
		GROUP BY e.event_id
		ORDER BY e.created_at DESC, e.event_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var created int64
		if err := rows.Scan(&e.ID, &e.Label, &created, &e.Cells); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(0, created)
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetEvent returns one event.
func (db *DB) GetEvent(ctx context.Context, id string) (Event, error) {
	var e Event
	var created int64
	err := db.QueryRowContext(ctx,
		`SELECT event_id, label, created_at FROM events WHERE event_id = ?`, id,
	).Scan(&e.ID, &e.Label, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	if err != nil {
		return Event{}, err
	}
	e.CreatedAt = time.Unix(0, created)
	return e, nil
}

// Chambers lists the chambers with hits in an event.
func (db *DB) Chambers(ctx context.Context, id string) ([]geometry.ChamberKey, error) {
	if _, err := db.GetEvent(ctx, id); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT wheel, sector, station FROM cell_hits
		WHERE event_id = ?
		ORDER BY wheel, sector, station`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []geometry.ChamberKey
	for rows.Next() {
		var k geometry.ChamberKey
		if err := rows.Scan(&k.Wheel, &k.Sector, &k.Station); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// CellInfoFor returns the cell annotations of one chamber in an event,
// ordered by super layer, layer and wire.
func (db *DB) CellInfoFor(ctx context.Context, id string, k geometry.ChamberKey) ([]geometry.CellInfo, error) {
	if _, err := db.GetEvent(ctx, id); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT sl, layer, wire, name, value FROM cell_hits
		WHERE event_id = ? AND wheel = ? AND sector = ? AND station = ?
		ORDER BY sl, layer, wire, name`,
		id, k.Wheel, k.Sector, k.Station)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []geometry.CellInfo
	for rows.Next() {
		var sl, l, w int
		var name string
		var value float64
		if err := rows.Scan(&sl, &l, &w, &name, &value); err != nil {
			return nil, err
		}
		n := len(infos)
		if n == 0 || infos[n-1].SuperLayer != sl || infos[n-1].Layer != l || infos[n-1].Wire != w {
			infos = append(infos, geometry.CellInfo{SuperLayer: sl, Layer: l, Wire: w, Values: map[string]float64{}})
			n++
		}
		infos[n-1].Values[name] = value
	}
	return infos, rows.Err()
}

// DeleteEvent removes an event and its hits.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM events WHERE event_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return nil
}
