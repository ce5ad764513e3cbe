package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is a bearer login token. A session is valid while ExpiresAt is in
// the future and RevokedAt is unset; logout revokes rather than deletes.
type Session struct {
	BaseSimple
	UserID    uuid.UUID  `db:"user_id"`
	Token     uuid.UUID  `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	UserAgent *string    `db:"user_agent"`
	IPAddress *string    `db:"ip_address"`
}
