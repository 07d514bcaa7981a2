// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/manito/internal/models"
	"github.com/mmynk/manito/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// querier is the read side of *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Foreign keys and the busy timeout are set per connection through the DSN.
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one connection serializes all access.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRoom persists a room and all of its participants in one transaction.
func (s *SQLiteStore) CreateRoom(ctx context.Context, room *models.Room, participants []*models.Participant) error {
	// Generate IDs if not set
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	if room.CreatedAt == 0 {
		room.CreatedAt = time.Now().Unix()
	}
	if room.Epoch == 0 {
		room.Epoch = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rooms (id, title, host_name, master_password, is_revealed, epoch, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID, room.Title, room.HostName, room.MasterPassword, room.IsRevealed(), room.Epoch, room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}

	for _, p := range participants {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.CreatedAt == 0 {
			p.CreatedAt = room.CreatedAt
		}
		p.RoomID = room.ID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO participants (id, room_id, name, target_name, personal_password, is_joined, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.RoomID, p.Name, p.TargetName, p.Password, p.IsJoined(), p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRoom retrieves a room by ID.
func (s *SQLiteStore) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	return getRoom(ctx, s.db, roomID)
}

// GetRoomWithParticipants reads a room and its participants inside one
// transaction, so the reveal flag, the epoch and the targets all belong to
// the same committed state.
func (s *SQLiteStore) GetRoomWithParticipants(ctx context.Context, roomID string) (*models.RoomSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	room, err := getRoom(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}

	participants, err := listParticipants(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.RoomSnapshot{Room: room, Participants: participants}, nil
}

func getRoom(ctx context.Context, db querier, roomID string) (*models.Room, error) {
	room := &models.Room{}
	var revealed bool
	err := db.QueryRowContext(ctx,
		"SELECT id, title, host_name, master_password, is_revealed, epoch, created_at FROM rooms WHERE id = ?",
		roomID,
	).Scan(&room.ID, &room.Title, &room.HostName, &room.MasterPassword, &revealed, &room.Epoch, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %s: %w", roomID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if revealed {
		room.State = models.RoomRevealed
	}
	return room, nil
}

// UpdateRoom applies a partial update to a room.
func (s *SQLiteStore) UpdateRoom(ctx context.Context, roomID string, update models.RoomUpdate) error {
	return updateRoom(ctx, s.db, roomID, update)
}

// DeleteRoom removes a room; participants go with it through the foreign key cascade.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, roomID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", roomID)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return expectRow(res, "room", roomID)
}

// UpdateRoomWithParticipants applies a batch of participant updates and a room
// update inside one transaction.
func (s *SQLiteStore) UpdateRoomWithParticipants(ctx context.Context, roomID string, room models.RoomUpdate, participants []models.ParticipantUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, update := range participants {
		if err := updateParticipant(ctx, tx, roomID, update); err != nil {
			return err
		}
	}

	if err := updateRoom(ctx, tx, roomID, room); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// updateRoom builds an UPDATE from the non-nil fields of update.
func updateRoom(ctx context.Context, db execer, roomID string, update models.RoomUpdate) error {
	var sets []string
	var args []any
	if update.State != nil {
		sets = append(sets, "is_revealed = ?")
		args = append(args, *update.State == models.RoomRevealed)
	}
	if update.NextEpoch {
		sets = append(sets, "epoch = epoch + 1")
	}
	if len(sets) == 0 {
		// Nothing to change, but a missing room is still an error.
		sets = append(sets, "id = id")
	}
	args = append(args, roomID)

	res, err := db.ExecContext(ctx,
		"UPDATE rooms SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	return expectRow(res, "room", roomID)
}

// expectRow turns "zero rows affected" into storage.ErrNotFound.
func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
