package services

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"

	"challengr-backend/internal/apperr"
)

const (
	codeLength = 6
	codeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// InviteCodeAllocator generates and resolves short challenge invite codes.
// Allocation is stateless and does not guarantee global uniqueness; resolve
// takes the first match in store order. Two concurrent creations can pick
// the same code.
type InviteCodeAllocator struct {
	records RecordStore
}

// NewInviteCodeAllocator creates a new invite code allocator
func NewInviteCodeAllocator(records RecordStore) *InviteCodeAllocator {
	return &InviteCodeAllocator{records: records}
}

// Allocate produces a random 6-character code over [A-Z0-9]
func (a *InviteCodeAllocator) Allocate() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}

// Resolve looks up the challenge whose invite code equals the upper-cased
// input. Returns ErrInviteNotFound when no challenge matches.
func (a *InviteCodeAllocator) Resolve(ctx context.Context, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	docs, err := a.records.QueryEquals(ctx, CollectionChallenges, "inviteCode", code, 1)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", apperr.ErrInviteNotFound
	}
	return docs[0].ID, nil
}
