package service

import "github.com/google/uuid"

// Actor carries the authenticated caller's identity into every operation.
// OrgID scopes all lookups; it is threaded explicitly rather than held in
// ambient state.
type Actor struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Name   string
	Email  string
	Role   string
}

func (a Actor) auditUserID() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
