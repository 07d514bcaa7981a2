package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/manito/internal/models"
)

const sessionIssuer = "manito"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")

	// ErrStaleSession means the session was issued for another room, another
	// epoch, or a participant that is no longer claimed.
	ErrStaleSession = fmt.Errorf("%w: session no longer matches the room", ErrAuthMismatch)
)

// JWTManager issues and checks participant sessions. A session is bound to
// one room and one epoch; a rematch in place silently retires all of them.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	parser        *jwt.Parser
}

// Claims is what a participant session carries.
type Claims struct {
	RoomID        string `json:"room_id"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Epoch         int    `json:"epoch"`
	jwt.RegisteredClaims
}

// NewJWTManager creates a JWTManager signing with secretKey (HS256). Sessions
// expire after tokenDuration.
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(sessionIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// Generate signs a session for the participant of id at the room's current epoch.
func (m *JWTManager) Generate(id *Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		RoomID:        id.Room.ID,
		ParticipantID: id.Participant.ID,
		Name:          id.Participant.Name,
		Epoch:         id.Room.Epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   id.Participant.ID,
			Audience:  jwt.ClaimStrings{id.Room.ID},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session for participant %s: %w", id.Participant.ID, err)
	}
	return signed, nil
}

// Validate checks the signature, issuer and lifetime of a session token. It
// does not know whether the room has moved on; see Claims.Check.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secretKey, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.RoomID == "" || claims.ParticipantID == "" || claims.Subject != claims.ParticipantID {
		return nil, fmt.Errorf("%w: incomplete session", ErrInvalidToken)
	}
	return claims, nil
}

// Check resolves the session against a snapshot of its room. It fails with
// ErrStaleSession when the room, the epoch or the claim no longer match.
func (c *Claims) Check(snap *models.RoomSnapshot) (*models.Participant, error) {
	if snap.Room.ID != c.RoomID {
		return nil, fmt.Errorf("%w: session is for room %s", ErrStaleSession, c.RoomID)
	}
	if snap.Room.Epoch != c.Epoch {
		return nil, fmt.Errorf("%w: session is from epoch %d, room is at %d", ErrStaleSession, c.Epoch, snap.Room.Epoch)
	}

	participant := snap.ParticipantByID(c.ParticipantID)
	if participant == nil || !participant.IsJoined() {
		return nil, ErrStaleSession
	}
	return participant, nil
}
