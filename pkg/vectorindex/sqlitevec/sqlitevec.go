// Package sqlitevec implements the vectorindex.Client contract on a local
// SQLite database with the sqlite-vec extension. Each collection maps to a
// payload table plus a vec0 virtual table.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hannesnortje/agentmem/pkg/vectorindex"
)

func init() {
	// Auto-register sqlite-vec extension
	sqlite_vec.Auto()
}

// Store is a sqlite-vec backed vector index.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a sqlite-vec store at dbPath.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// WAL improves concurrent read behavior
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			vector_size INTEGER NOT NULL,
			distance TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) CreateCollection(ctx context.Context, spec vectorindex.CollectionSpec) error {
	var existing string
	err := s.db.QueryRowContext(ctx, "SELECT name FROM collections WHERE name = ?", spec.Name).Scan(&existing)
	if err == nil {
		return fmt.Errorf("%q: %w", spec.Name, vectorindex.ErrCollectionExists)
	}
	if err != sql.ErrNoRows {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO collections (name, vector_size, distance, created_at) VALUES (?, ?, ?, ?)",
		spec.Name, spec.VectorSize, string(spec.Distance), time.Now().Unix(),
	); err != nil {
		// Unique constraint violation means a concurrent create won the race.
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("%q: %w", spec.Name, vectorindex.ErrCollectionExists)
		}
		return err
	}

	points := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			seq INTEGER
		);
	`, pointsTable(spec.Name))
	if _, err := tx.ExecContext(ctx, points); err != nil {
		return fmt.Errorf("failed to create points table: %w", err)
	}

	vec := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
			id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		);
	`, vecTable(spec.Name), spec.VectorSize)
	if _, err := tx.ExecContext(ctx, vec); err != nil {
		return fmt.Errorf("failed to create vector table: %w", err)
	}

	return tx.Commit()
}

func (s *Store) CollectionInfo(ctx context.Context, name string) (vectorindex.CollectionInfo, error) {
	if err := s.requireCollection(ctx, name); err != nil {
		return vectorindex.CollectionInfo{}, err
	}
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pointsTable(name))
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return vectorindex.CollectionInfo{}, err
	}
	return vectorindex.CollectionInfo{Name: name, PointCount: count}, nil
}

func (s *Store) Upsert(ctx context.Context, collection string, points []vectorindex.Point) error {
	if err := s.requireCollection(ctx, collection); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertPoint := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (id, payload, seq) VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM %s))",
		pointsTable(collection), pointsTable(collection),
	)
	deleteVec := fmt.Sprintf("DELETE FROM %s WHERE id = ?", vecTable(collection))
	insertVec := fmt.Sprintf("INSERT INTO %s (id, embedding) VALUES (?, ?)", vecTable(collection))

	for _, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload for %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insertPoint, p.ID, string(payload)); err != nil {
			return err
		}
		if len(p.Vector) == 0 {
			continue
		}
		embedding, err := json.Marshal(p.Vector)
		if err != nil {
			return fmt.Errorf("marshal embedding for %s: %w", p.ID, err)
		}
		// vec0 virtual tables reject INSERT OR REPLACE, so delete first.
		if _, err := tx.ExecContext(ctx, deleteVec, p.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertVec, p.ID, string(embedding)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int) ([]vectorindex.ScoredPoint, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}

	embedding, err := json.Marshal(vector)
	if err != nil {
		return nil, fmt.Errorf("marshal query embedding: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT v.id, vec_distance_cosine(v.embedding, ?) AS distance, p.payload
		FROM %s v
		JOIN %s p ON p.id = v.id
		ORDER BY distance ASC
		LIMIT ?
	`, vecTable(collection), pointsTable(collection))

	rows, err := s.db.QueryContext(ctx, query, string(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []vectorindex.ScoredPoint
	for rows.Next() {
		var id, payloadJSON string
		var distance float64
		if err := rows.Scan(&id, &distance, &payloadJSON); err != nil {
			return nil, err
		}
		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload for %s: %w", id, err)
		}
		hits = append(hits, vectorindex.ScoredPoint{
			ID:      id,
			Score:   float32(1.0 - distance),
			Payload: payload,
		})
	}
	return hits, rows.Err()
}

func (s *Store) Scroll(ctx context.Context, collection string, req vectorindex.ScrollRequest) (vectorindex.ScrollPage, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return vectorindex.ScrollPage{}, err
	}

	start := 0
	if req.Offset != "" {
		if _, err := fmt.Sscanf(req.Offset, "%d", &start); err != nil {
			return vectorindex.ScrollPage{}, fmt.Errorf("invalid scroll offset %q", req.Offset)
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	batch := limit
	if batch < 64 {
		batch = 64
	}

	// The filter is applied client-side, so rows it excludes must not
	// consume the page window. Keep fetching batches by seq cursor until
	// the page is full or the table is exhausted.
	var page vectorindex.ScrollPage
	cursor := start
	for {
		rows, err := s.scrollBatch(ctx, collection, cursor, batch)
		if err != nil {
			return vectorindex.ScrollPage{}, err
		}
		if len(rows) == 0 {
			return page, nil
		}

		for i, row := range rows {
			cursor = row.seq
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(row.payload), &payload); err != nil {
				return vectorindex.ScrollPage{}, fmt.Errorf("unmarshal payload for %s: %w", row.id, err)
			}
			if !vectorindex.MatchesFilter(payload, req.Filter) {
				continue
			}
			point := vectorindex.Point{ID: row.id}
			if req.WithPayload {
				point.Payload = payload
			}
			if req.WithVector {
				vec, err := s.pointVector(ctx, collection, row.id)
				if err != nil {
					return vectorindex.ScrollPage{}, err
				}
				point.Vector = vec
			}
			page.Points = append(page.Points, point)
			if len(page.Points) == limit {
				// Rows past the cursor are unscanned; hand back a cursor
				// unless this batch provably drained the table.
				if i < len(rows)-1 || len(rows) == batch {
					page.NextOffset = fmt.Sprint(cursor)
				}
				return page, nil
			}
		}
		if len(rows) < batch {
			return page, nil
		}
	}
}

type scrollRow struct {
	id      string
	payload string
	seq     int
}

func (s *Store) scrollBatch(ctx context.Context, collection string, afterSeq, batch int) ([]scrollRow, error) {
	query := fmt.Sprintf(
		"SELECT id, payload, seq FROM %s WHERE seq > ? ORDER BY seq ASC LIMIT ?",
		pointsTable(collection),
	)
	rows, err := s.db.QueryContext(ctx, query, afterSeq, batch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scrollRow
	for rows.Next() {
		var row scrollRow
		if err := rows.Scan(&row.id, &row.payload, &row.seq); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// pointVector reads an embedding back from the vec0 table. Points stored
// without a vector yield nil.
func (s *Store) pointVector(ctx context.Context, collection, id string) ([]float32, error) {
	query := fmt.Sprintf("SELECT embedding FROM %s WHERE id = ?", vecTable(collection))
	var blob []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	vec := make([]float32, 0, len(blob)/4)
	for i := 0; i+4 <= len(blob); i += 4 {
		vec = append(vec, math.Float32frombits(binary.LittleEndian.Uint32(blob[i:i+4])))
	}
	return vec, nil
}

func (s *Store) Healthy(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

func (s *Store) requireCollection(ctx context.Context, name string) error {
	var found string
	err := s.db.QueryRowContext(ctx, "SELECT name FROM collections WHERE name = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%q: %w", name, vectorindex.ErrCollectionNotFound)
	}
	return err
}

// sanitize maps a collection name to a safe SQL identifier fragment.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func pointsTable(name string) string {
	return "points_" + sanitize(name)
}

func vecTable(name string) string {
	return "vec_" + sanitize(name)
}
