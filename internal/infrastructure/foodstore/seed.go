package foodstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"nutrition-calculator/internal/pkg/common"
)

// Import reads a JSON array of Food documents from r and upserts each one.
// Entries without a name are skipped. It returns the number written.
func Import(ctx context.Context, store Store, r io.Reader) (int, error) {
	var foods []Food
	if err := common.DecodeJSON(r, &foods); err != nil {
		return 0, fmt.Errorf("failed to decode seed data: %w", err)
	}

	n := 0
	for _, f := range foods {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			continue
		}
		if err := store.Upsert(ctx, f.Record()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// ImportFile is Import for a file path.
func ImportFile(ctx context.Context, store Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return Import(ctx, store, f)
}
