package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Store keeps client state in a single key/value table so a session survives
// device changes. The table is created on first connect.
type Store struct {
	db *sql.DB
}

func NewStore(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		create table if not exists client_state (
			key        text primary key,
			value      text not null,
			updated_at timestamptz not null default now()
		)`)
	if err != nil {
		return nil, fmt.Errorf("create client_state table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`select value from client_state where key = $1`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("client_state get %s: %v", key, err)
		}
		return "", false
	}
	return value, true
}

func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`insert into client_state(key, value, updated_at) values ($1, $2, now())
		 on conflict (key) do update set value = excluded.value, updated_at = now()`,
		key, value,
	)
	return err
}

func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`delete from client_state where key = $1`, key)
	return err
}

func (s *Store) Keys(prefix string) []string {
	pattern := strings.ReplaceAll(strings.ReplaceAll(prefix, `\`, `\\`), "%", `\%`)
	pattern = strings.ReplaceAll(pattern, "_", `\_`) + "%"
	rows, err := s.db.Query(`select key from client_state where key like $1`, pattern)
	if err != nil {
		log.Printf("client_state keys %s: %v", prefix, err)
		return nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			continue
		}
		out = append(out, k)
	}
	return out
}

func (s *Store) Clear() error {
	_, err := s.db.Exec(`delete from client_state`)
	return err
}
