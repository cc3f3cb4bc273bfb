package model

import "time"

// Merchant holds one API credential pair. Rows are provisioned out-of-band;
// PasswordHash is a bcrypt hash, never a plaintext secret.
type Merchant struct {
	ID           int64
	PasswordHash string
	DateCreated  time.Time
}
