package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"BeatWave/db"
	"BeatWave/model"
)

// BeatOrder selects the ordering of a beat listing.
type BeatOrder int

const (
	// OrderDefault is insertion order (id ascending). Also the tie-break
	// for the other orders when sort keys collide.
	OrderDefault BeatOrder = iota
	// OrderNewest sorts by creation time, newest first.
	OrderNewest
	// OrderMostPlayed sorts by play count, highest first.
	OrderMostPlayed
)

// BeatFilter narrows and orders a beat listing. Zero values mean
// "no restriction"; Limit 0 means unbounded.
type BeatFilter struct {
	ProducerID   int64
	Genre        string
	FeaturedOnly bool
	ExcludeID    int64
	Order        BeatOrder
	Limit        int
}

// BeatRepository defines the interface for beat catalog operations.
type BeatRepository interface {
	CreateBeat(ctx context.Context, beat *model.Beat) (int64, error)
	GetBeatByID(ctx context.Context, id int64) (*model.Beat, error)
	ListBeats(ctx context.Context, filter BeatFilter) ([]*model.Beat, error)
	IncrementPlayCount(ctx context.Context, id int64, delta int64) error
	SetFeatured(ctx context.Context, id int64, featured bool) error
}

// mysqlBeatRepository implements BeatRepository for MySQL.
type mysqlBeatRepository struct {
	db *sql.DB
}

// NewMySQLBeatRepository creates a new mysqlBeatRepository backed by the
// global connection.
func NewMySQLBeatRepository() BeatRepository {
	return &mysqlBeatRepository{db: db.DB}
}

const beatColumns = "id, producer_id, title, audio_path, cover_path, price, genre, bpm, description, tags, free_download, play_count, is_featured, created_at"

// CreateBeat inserts a new beat bound to its producer. The id and creation
// timestamp are assigned here and are immutable afterwards.
func (r *mysqlBeatRepository) CreateBeat(ctx context.Context, beat *model.Beat) (int64, error) {
	query := `INSERT INTO beats (producer_id, title, audio_path, cover_path, price, genre, bpm, description, tags, free_download, play_count, is_featured, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateBeat: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.ExecContext(ctx,
		beat.ProducerID, beat.Title, beat.AudioPath, nullString(beat.CoverPath),
		beat.Price, beat.Genre, beat.BPM, nullString(beat.Description), beat.Tags,
		beat.FreeDownload, beat.IsFeatured, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateBeat: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateBeat: %w", err)
	}

	beat.ID = id
	beat.CreatedAt = now
	beat.PlayCount = 0
	return id, nil
}

// GetBeatByID retrieves a beat by its ID. Returns (nil, nil) when absent.
func (r *mysqlBeatRepository) GetBeatByID(ctx context.Context, id int64) (*model.Beat, error) {
	query := `SELECT ` + beatColumns + ` FROM beats WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	beat, err := scanBeat(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // beat not found
		}
		return nil, fmt.Errorf("failed to scan beat by ID %d: %w", id, err)
	}
	return beat, nil
}

// ListBeats retrieves beats matching the filter, in the requested order.
// Equal sort keys fall back to id ascending so listings stay stable.
func (r *mysqlBeatRepository) ListBeats(ctx context.Context, filter BeatFilter) ([]*model.Beat, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ProducerID != 0 {
		conds = append(conds, "producer_id = ?")
		args = append(args, filter.ProducerID)
	}
	if filter.Genre != "" {
		conds = append(conds, "genre = ?")
		args = append(args, filter.Genre)
	}
	if filter.FeaturedOnly {
		conds = append(conds, "is_featured = 1")
	}
	if filter.ExcludeID != 0 {
		conds = append(conds, "id <> ?")
		args = append(args, filter.ExcludeID)
	}

	query := `SELECT ` + beatColumns + ` FROM beats`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	switch filter.Order {
	case OrderNewest:
		query += " ORDER BY created_at DESC, id ASC"
	case OrderMostPlayed:
		query += " ORDER BY play_count DESC, id ASC"
	default:
		query += " ORDER BY id ASC"
	}

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query beats: %w", err)
	}
	defer rows.Close()

	beats := make([]*model.Beat, 0)
	for rows.Next() {
		beat, err := scanBeat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan beat in ListBeats: %w", err)
		}
		beats = append(beats, beat)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListBeats: %w", err)
	}

	return beats, nil
}

// IncrementPlayCount adds delta plays to a beat.
func (r *mysqlBeatRepository) IncrementPlayCount(ctx context.Context, id int64, delta int64) error {
	query := `UPDATE beats SET play_count = play_count + ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, delta, id); err != nil {
		return fmt.Errorf("failed to execute IncrementPlayCount for beat ID %d: %w", id, err)
	}
	return nil
}

// SetFeatured flips the curated featured flag for a beat.
func (r *mysqlBeatRepository) SetFeatured(ctx context.Context, id int64, featured bool) error {
	query := `UPDATE beats SET is_featured = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, featured, id)
	if err != nil {
		return fmt.Errorf("failed to execute SetFeatured for beat ID %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for SetFeatured: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBeat(row rowScanner) (*model.Beat, error) {
	beat := &model.Beat{}
	var cover, description sql.NullString
	err := row.Scan(
		&beat.ID, &beat.ProducerID, &beat.Title, &beat.AudioPath, &cover,
		&beat.Price, &beat.Genre, &beat.BPM, &description, &beat.Tags,
		&beat.FreeDownload, &beat.PlayCount, &beat.IsFeatured, &beat.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cover.Valid {
		beat.CoverPath = cover.String
	}
	if description.Valid {
		beat.Description = description.String
	}
	return beat, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
