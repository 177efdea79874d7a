// Package supabase stores clinics and appointments in a hosted Supabase
// project through its PostgREST interface.
package supabase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/jwalitptl/vetbook-api/internal/config"
	"github.com/jwalitptl/vetbook-api/internal/model"
	"github.com/jwalitptl/vetbook-api/internal/repository"
)

// uniqueViolation is the Postgres SQLSTATE PostgREST passes through.
const uniqueViolation = "23505"

func NewClient(cfg config.SupabaseConfig) (*supa.Client, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}
	client, err := supa.NewClient(cfg.URL, cfg.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return client, nil
}

func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), uniqueViolation) {
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// decodeOne unmarshals a PostgREST array response and returns its first row.
func decodeOne[T any](data []byte, op string) (*T, error) {
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return &rows[0], nil
}

func decodeAll[T any](data []byte, op string) ([]*T, error) {
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	out := make([]*T, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

func page(p model.Pagination) (int, int) {
	from := p.Offset()
	return from, from + p.Limit() - 1
}

var (
	ascending  = &postgrest.OrderOpts{Ascending: true}
	descending = &postgrest.OrderOpts{Ascending: false}
)
