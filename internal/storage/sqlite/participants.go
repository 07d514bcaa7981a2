package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/manito/internal/models"
	"github.com/mmynk/manito/internal/storage"
)

const participantColumns = "id, room_id, name, target_name, personal_password, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (*models.Participant, error) {
	p := &models.Participant{}
	if err := row.Scan(&p.ID, &p.RoomID, &p.Name, &p.TargetName, &p.Password, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// ListParticipants retrieves all participants of a room ordered by name.
func (s *SQLiteStore) ListParticipants(ctx context.Context, roomID string) ([]*models.Participant, error) {
	// Distinguish "no such room" from an empty result.
	snap, err := s.GetRoomWithParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return snap.Participants, nil
}

func listParticipants(ctx context.Context, db querier, roomID string) ([]*models.Participant, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE room_id = ? ORDER BY name",
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

// FindParticipantByName retrieves the participant of a room with the given name.
func (s *SQLiteStore) FindParticipantByName(ctx context.Context, roomID, name string) (*models.Participant, error) {
	p, err := scanParticipant(s.db.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE room_id = ? AND name = ?",
		roomID, name,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("participant %q in room %s: %w", name, roomID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

// GetParticipant retrieves a participant by ID.
func (s *SQLiteStore) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	p, err := scanParticipant(s.db.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE id = ?",
		participantID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("participant %s: %w", participantID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// ClaimParticipant sets the personal password with a conditional update that
// only matches while the stored password is still empty and the room is still
// at epoch. A rematch committed in between makes the update miss.
func (s *SQLiteStore) ClaimParticipant(ctx context.Context, participantID, password string, epoch int) (bool, error) {
	if password == "" {
		return false, models.ErrEmptyPassword
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE participants SET personal_password = ?, is_joined = 1
		 WHERE id = ? AND personal_password = ''
		   AND (SELECT epoch FROM rooms WHERE rooms.id = participants.room_id) = ?`,
		password, participantID, epoch,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim participant: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	// Nothing matched: the participant is gone, someone else claimed it, or
	// the room moved on to another epoch.
	if _, err := s.GetParticipant(ctx, participantID); err != nil {
		return false, err
	}
	return false, nil
}

// updateParticipant applies one batch entry, scoped to the room.
func updateParticipant(ctx context.Context, db execer, roomID string, update models.ParticipantUpdate) error {
	var sets []string
	var args []any
	if update.TargetName != nil {
		sets = append(sets, "target_name = ?")
		args = append(args, *update.TargetName)
	}
	if update.ResetClaim {
		sets = append(sets, "personal_password = ''", "is_joined = 0")
	}
	if len(sets) == 0 {
		sets = append(sets, "id = id")
	}
	args = append(args, update.ID, roomID)

	res, err := db.ExecContext(ctx,
		"UPDATE participants SET "+strings.Join(sets, ", ")+" WHERE id = ? AND room_id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update participant %s: %w", update.ID, err)
	}
	return expectRow(res, "participant", update.ID)
}
