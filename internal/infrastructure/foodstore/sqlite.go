package foodstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"nutrition-calculator/internal/core/nutrition"
)

// SQLiteStore keeps the reference in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection avoids SQLITE_BUSY between the seeder and readers
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS foods (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        food_name TEXT NOT NULL UNIQUE COLLATE NOCASE,
        energy_kcal REAL,
        protein_g REAL,
        carb_g REAL,
        fat_g REAL,
        fibre_g REAL,
        updated_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_foods_name_lower ON foods(lower(food_name));
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const foodColumns = `food_name, energy_kcal, protein_g, carb_g, fat_g, fibre_g`

func (s *SQLiteStore) FindExact(ctx context.Context, name string) (*nutrition.FoodRecord, error) {
	query := `SELECT ` + foodColumns + ` FROM foods WHERE lower(food_name) = lower(?) ORDER BY id LIMIT 1`
	return s.queryOne(ctx, query, name)
}

func (s *SQLiteStore) FindContaining(ctx context.Context, fragment string) (*nutrition.FoodRecord, error) {
	query := `SELECT ` + foodColumns + ` FROM foods WHERE instr(lower(food_name), lower(?)) > 0 ORDER BY id LIMIT 1`
	return s.queryOne(ctx, query, fragment)
}

func (s *SQLiteStore) FindContainedIn(ctx context.Context, text string) (*nutrition.FoodRecord, error) {
	query := `SELECT ` + foodColumns + ` FROM foods
        WHERE food_name <> '' AND instr(lower(?), lower(food_name)) > 0
        ORDER BY length(food_name) DESC, id LIMIT 1`
	return s.queryOne(ctx, query, text)
}

func (s *SQLiteStore) FoodNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT food_name FROM foods ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query food names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan food name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec nutrition.FoodRecord) error {
	f := FoodFromRecord(rec)
	query := `
    INSERT INTO foods (` + foodColumns + `, updated_at)
    VALUES (?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT(food_name) DO UPDATE SET
        energy_kcal = excluded.energy_kcal,
        protein_g = excluded.protein_g,
        carb_g = excluded.carb_g,
        fat_g = excluded.fat_g,
        fibre_g = excluded.fibre_g,
        updated_at = excluded.updated_at
    `

	_, err := s.db.ExecContext(ctx, query, f.Name, f.Calories, f.Protein, f.Carbs, f.Fat, f.Fiber, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert food %q: %w", rec.Name, err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) queryOne(ctx context.Context, query string, arg string) (*nutrition.FoodRecord, error) {
	var (
		name                                 string
		calories, protein, carbs, fat, fiber sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&name, &calories, &protein, &carbs, &fat, &fiber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nutrition.ErrFoodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query food: %w", err)
	}

	rec := Food{
		Name:     name,
		Calories: nullable(calories),
		Protein:  nullable(protein),
		Carbs:    nullable(carbs),
		Fat:      nullable(fat),
		Fiber:    nullable(fiber),
	}.Record()
	return &rec, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
