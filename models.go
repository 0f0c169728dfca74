package auth

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the identity record. The password hash never leaves the process:
// it is excluded from JSON and must not be logged.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	Username      string    `bun:"username,notnull,unique" json:"username"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	FullName      string    `bun:"full_name" json:"full_name,omitempty"`
	IsActive      bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	IsVerified    bool      `bun:"is_verified,notnull,default:false" json:"is_verified"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}
