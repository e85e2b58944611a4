// Copyright 2025 Certen Protocol
//
// Repositories - convenience wrapper bundling the Record Store and Audit
// Log repositories behind a single composition point.

package store

// Repositories holds all repository instances backed by a shared Client.
type Repositories struct {
	Deposits    *DepositRepository
	Redemptions *RedemptionRepository
	Audit       *AuditRepository
}

// NewRepositories creates all repositories with the given client.
func NewRepositories(client *Client) *Repositories {
	return &Repositories{
		Deposits:    NewDepositRepository(client),
		Redemptions: NewRedemptionRepository(client),
		Audit:       NewAuditRepository(client),
	}
}
