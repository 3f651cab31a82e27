// Package search resolves free-text queries to video ids.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidshare/backend/internal/db"
)

// PostgresIndex matches text case-insensitively against video titles and descriptions.
type PostgresIndex struct {
	pool db.Pool
}

// NewPostgresIndex constructs a PostgresIndex.
func NewPostgresIndex(pool db.Pool) *PostgresIndex {
	return &PostgresIndex{pool: pool}
}

// Search returns the ids of videos whose title or description contains text.
func (i *PostgresIndex) Search(ctx context.Context, text string) ([]string, error) {
	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		`SELECT id FROM videos WHERE title ILIKE $1 ESCAPE '\' OR description ILIKE $1 ESCAPE '\' ORDER BY id`,
		likePattern(text),
	)
	if err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan video id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}
	return ids, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns text into a contains-pattern with wildcards escaped.
func likePattern(text string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(text)) + "%"
}
