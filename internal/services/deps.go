package services

import (
	"context"
	"time"

	"challengr-backend/internal/repository"
)

// Collections used in the record store
const (
	CollectionUsers              = "users"
	CollectionChallenges         = "challenges"
	CollectionSubmissions        = "submissions"
	CollectionParticipantConfigs = "participant_configs"
)

// RecordStore is the document-store contract the services depend on
type RecordStore interface {
	Create(ctx context.Context, collection string, data map[string]any) (*repository.Document, error)
	Get(ctx context.Context, collection, id string) (*repository.Document, error)
	Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	Query(ctx context.Context, collection string, eq map[string]string, from, to *time.Time, limit int) ([]repository.Document, error)
	QueryEquals(ctx context.Context, collection, field, value string, limit int) ([]repository.Document, error)
	QueryArrayContains(ctx context.Context, collection, field, value string) ([]repository.Document, error)
	ArrayUnion(ctx context.Context, collection, id, field, value string) error
	Delete(ctx context.Context, collection, id string) error
}

// BlobStore is the object-store contract the services depend on
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	ResolveURL(key string) string
	ListPrefix(ctx context.Context, prefix string) (items []string, subPrefixes []string, err error)
	Delete(ctx context.Context, key string) error
}

// IdentityGateway is the identity-service contract the services depend on
type IdentityGateway interface {
	CreateCredential(ctx context.Context, email, password string) (string, error)
	Verify(ctx context.Context, email, password string) (string, error)
	UpdatePassword(ctx context.Context, id, newPassword string) error
	SetDisplayName(ctx context.Context, id, name string) error
	Lookup(ctx context.Context, id string) (*repository.Credential, error)
	DeleteCredential(ctx context.Context, id string) error
}
