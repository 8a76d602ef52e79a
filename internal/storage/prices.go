package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/lueurxax/polymer-price-bot/internal/core/domain"
)

// NameInfo is one known polymer with its most recent observation date.
type NameInfo struct {
	NormalizedName string
	DisplayName    string
	LatestDate     time.Time
}

const recordColumns = `id, normalized_name, display_name, price::text, status, date, source_text, source_link, chat_id, created_at`

// InsertPrice upserts one price record. The logical key is
// (normalized_name, date, source_link): re-processing the same message
// overwrites the row instead of creating a duplicate, and created_at keeps
// its original value so "latest" ordering is stable across re-scans.
func (db *DB) InsertPrice(ctx context.Context, rec domain.PriceRecord) error {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO price_records
			(id, normalized_name, display_name, price, status, date, source_text, source_link, chat_id)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9)
		ON CONFLICT (normalized_name, date, source_link) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			price = EXCLUDED.price,
			status = EXCLUDED.status,
			source_text = EXCLUDED.source_text,
			chat_id = EXCLUDED.chat_id`,
		id,
		rec.NormalizedName,
		SanitizeUTF8(rec.DisplayName),
		rec.Price.String(),
		rec.Status,
		rec.Date,
		SanitizeUTF8(rec.SourceText),
		rec.SourceLink,
		rec.ChatID,
	)
	if err != nil {
		return fmt.Errorf("insert price record: %w", err)
	}

	return nil
}

// RecordsFor returns all priced records for one (name, day) pair in
// insertion order. The ledger depends on this ordering for first-seen
// provenance ties.
func (db *DB) RecordsFor(ctx context.Context, normalizedName string, date time.Time) ([]domain.PriceRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM price_records
		WHERE normalized_name = $1 AND date = $2 AND price IS NOT NULL
		ORDER BY created_at, id`,
		normalizedName, domain.Day(date))
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetLatest returns the most recent record for a polymer across all days.
func (db *DB) GetLatest(ctx context.Context, normalizedName string) (*domain.PriceRecord, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM price_records
		WHERE normalized_name = $1
		ORDER BY date DESC, created_at DESC
		LIMIT 1`,
		normalizedName)

	return scanOptionalRecord(row)
}

// GetOnDate returns the most recent record for a polymer on one day, or
// nil when the day has no data.
func (db *DB) GetOnDate(ctx context.Context, normalizedName string, date time.Time) (*domain.PriceRecord, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM price_records
		WHERE normalized_name = $1 AND date = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		normalizedName, domain.Day(date))

	return scanOptionalRecord(row)
}

// GetAllForDate returns every record observed on one day, ordered by name.
func (db *DB) GetAllForDate(ctx context.Context, date time.Time) ([]domain.PriceRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM price_records
		WHERE date = $1 AND price IS NOT NULL
		ORDER BY normalized_name, created_at`,
		domain.Day(date))
	if err != nil {
		return nil, fmt.Errorf("query records for date: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// likeEscaper neutralizes LIKE metacharacters in user input, so searching
// for "100%" matches those literal characters instead of everything.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search finds known polymers whose normalized name contains the substring.
func (db *DB) Search(ctx context.Context, substring string) ([]NameInfo, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT normalized_name, MIN(display_name), MAX(date)
		FROM price_records
		WHERE normalized_name LIKE '%' || $1 || '%' ESCAPE '\'
		GROUP BY normalized_name
		ORDER BY normalized_name`,
		likeEscaper.Replace(substring))
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	return scanNameInfos(rows)
}

// DistinctNamesWithLatestDate lists every known polymer with its most
// recent observation date, for the bot's selection menu.
func (db *DB) DistinctNamesWithLatestDate(ctx context.Context) ([]NameInfo, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT normalized_name, MIN(display_name), MAX(date)
		FROM price_records
		GROUP BY normalized_name
		ORDER BY normalized_name`)
	if err != nil {
		return nil, fmt.Errorf("query distinct names: %w", err)
	}
	defer rows.Close()

	return scanNameInfos(rows)
}

func scanRecords(rows pgx.Rows) ([]domain.PriceRecord, error) {
	var records []domain.PriceRecord

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

func scanRecord(row pgx.Row) (domain.PriceRecord, error) {
	var (
		rec       domain.PriceRecord
		priceText *string
	)

	if err := row.Scan(
		&rec.ID,
		&rec.NormalizedName,
		&rec.DisplayName,
		&priceText,
		&rec.Status,
		&rec.Date,
		&rec.SourceText,
		&rec.SourceLink,
		&rec.ChatID,
		&rec.CreatedAt,
	); err != nil {
		return domain.PriceRecord{}, fmt.Errorf("scan record: %w", err)
	}

	if priceText != nil {
		price, err := decimal.NewFromString(*priceText)
		if err != nil {
			return domain.PriceRecord{}, fmt.Errorf("parse stored price: %w", err)
		}

		rec.Price = price
	}

	return rec, nil
}

func scanOptionalRecord(row pgx.Row) (*domain.PriceRecord, error) {
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &rec, nil
}

func scanNameInfos(rows pgx.Rows) ([]NameInfo, error) {
	var infos []NameInfo

	for rows.Next() {
		var info NameInfo

		if err := rows.Scan(&info.NormalizedName, &info.DisplayName, &info.LatestDate); err != nil {
			return nil, fmt.Errorf("scan name info: %w", err)
		}

		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate name infos: %w", err)
	}

	return infos, nil
}
