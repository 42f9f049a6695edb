package storage

import (
	"fmt"
	"strings"

	"github.com/jimezsa/upjobs/internal/export"
	supabase "github.com/nedpals/supabase-go"
)

// DefaultBatchSize bounds the rows sent in one insert request.
const DefaultBatchSize = 200

// SupabaseSink inserts rows into a Supabase (PostgREST) table.
type SupabaseSink struct {
	client    *supabase.Client
	table     string
	batchSize int
}

func NewSupabaseSink(supabaseURL, supabaseKey, table string) (*SupabaseSink, error) {
	if strings.TrimSpace(supabaseURL) == "" || strings.TrimSpace(supabaseKey) == "" {
		return nil, fmt.Errorf("supabase url and key are required (UPJOBS_SUPABASE_URL / UPJOBS_SUPABASE_KEY)")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("supabase table is required")
	}
	return &SupabaseSink{
		client:    supabase.CreateClient(supabaseURL, supabaseKey),
		table:     table,
		batchSize: DefaultBatchSize,
	}, nil
}

func (s *SupabaseSink) Name() string {
	return "supabase:" + s.table
}

func (s *SupabaseSink) SaveRows(rows []export.FlatRow) error {
	for _, batch := range Batches(rows, s.batchSize) {
		var results []export.FlatRow
		if err := s.client.DB.From(s.table).Insert(batch).Execute(&results); err != nil {
			return fmt.Errorf("supabase insert into %s: %w", s.table, err)
		}
	}
	return nil
}

// Batches splits rows into consecutive chunks of at most size rows.
func Batches(rows []export.FlatRow, size int) [][]export.FlatRow {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]export.FlatRow
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}
