package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"challengr-backend/internal/apperr"
	"challengr-backend/internal/repository"
)

// fakeRecordStore is an in-memory RecordStore with the same set semantics
// as the real one
type fakeRecordStore struct {
	mu    sync.Mutex
	docs  map[string]map[string]*repository.Document
	seq   int
	calls map[string]int
	fail  map[string]error // keyed by "op:collection"
	now   time.Time
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		docs:  make(map[string]map[string]*repository.Document),
		calls: make(map[string]int),
		fail:  make(map[string]error),
		now:   time.Now(),
	}
}

func (s *fakeRecordStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *fakeRecordStore) record(op, collection string) error {
	s.calls[op]++
	if err, ok := s.fail[op+":"+collection]; ok {
		return err
	}
	return nil
}

// put seeds a document with an explicit creation timestamp
func (s *fakeRecordStore) put(collection, id string, data map[string]any, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]*repository.Document)
	}
	s.docs[collection][id] = &repository.Document{ID: id, Data: data, CreatedAt: createdAt}
}

func (s *fakeRecordStore) Create(ctx context.Context, collection string, data map[string]any) (*repository.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("create", collection); err != nil {
		return nil, err
	}
	s.seq++
	doc := &repository.Document{
		ID:        fmt.Sprintf("%s-%d", collection, s.seq),
		Data:      data,
		CreatedAt: s.now,
	}
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]*repository.Document)
	}
	s.docs[collection][doc.ID] = doc
	return doc, nil
}

func (s *fakeRecordStore) Get(ctx context.Context, collection, id string) (*repository.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("get", collection); err != nil {
		return nil, err
	}
	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, apperr.Store(fmt.Sprintf("get %s/%s", collection, id), apperr.ErrNotFound)
	}
	return doc, nil
}

func (s *fakeRecordStore) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("set", collection); err != nil {
		return err
	}
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]*repository.Document)
	}
	existing, ok := s.docs[collection][id]
	if ok && merge {
		for k, v := range fields {
			existing.Data[k] = v
		}
		return nil
	}
	s.docs[collection][id] = &repository.Document{ID: id, Data: fields, CreatedAt: s.now}
	return nil
}

func (s *fakeRecordStore) Query(ctx context.Context, collection string, eq map[string]string, from, to *time.Time, limit int) ([]repository.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("query", collection); err != nil {
		return nil, err
	}
	var out []repository.Document
	for _, doc := range s.docs[collection] {
		match := true
		for field, want := range eq {
			if got, _ := doc.Data[field].(string); got != want {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if from != nil && doc.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && doc.CreatedAt.After(*to) {
			continue
		}
		out = append(out, *doc)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeRecordStore) QueryEquals(ctx context.Context, collection, field, value string, limit int) ([]repository.Document, error) {
	return s.Query(ctx, collection, map[string]string{field: value}, nil, nil, limit)
}

func (s *fakeRecordStore) QueryArrayContains(ctx context.Context, collection, field, value string) ([]repository.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("query-array", collection); err != nil {
		return nil, err
	}
	var out []repository.Document
	for _, doc := range s.docs[collection] {
		for _, item := range asStrings(doc.Data[field]) {
			if item == value {
				out = append(out, *doc)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeRecordStore) ArrayUnion(ctx context.Context, collection, id, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("array-union", collection); err != nil {
		return err
	}
	doc, ok := s.docs[collection][id]
	if !ok {
		return apperr.Store(fmt.Sprintf("array-union %s/%s", collection, id), apperr.ErrNotFound)
	}
	current := asStrings(doc.Data[field])
	for _, item := range current {
		if item == value {
			return nil
		}
	}
	doc.Data[field] = append(current, value)
	return nil
}

func (s *fakeRecordStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("delete", collection); err != nil {
		return err
	}
	delete(s.docs[collection], id)
	return nil
}

// asStrings normalizes both []string (as written) and []any (as decoded)
func asStrings(v any) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// fakeBlobStore is an in-memory BlobStore
type fakeBlobStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	calls      map[string]int
	uploadErr  error
	listErr    error
	deleteErrs map[string]error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects:    make(map[string][]byte),
		calls:      make(map[string]int),
		deleteErrs: make(map[string]error),
	}
}

func (b *fakeBlobStore) count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *fakeBlobStore) Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["upload"]++
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.objects[key] = data
	return nil
}

func (b *fakeBlobStore) ResolveURL(key string) string {
	return "https://blobs.test/" + key
}

func (b *fakeBlobStore) ListPrefix(ctx context.Context, prefix string) ([]string, []string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["list"]++
	if b.listErr != nil {
		return nil, nil, b.listErr
	}
	var items []string
	subPrefixes := make(map[string]bool)
	for key := range b.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			subPrefixes[prefix+rest[:idx+1]] = true
		} else {
			items = append(items, key)
		}
	}
	var subs []string
	for sub := range subPrefixes {
		subs = append(subs, sub)
	}
	return items, subs, nil
}

func (b *fakeBlobStore) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["delete"]++
	if err, ok := b.deleteErrs[key]; ok {
		return err
	}
	delete(b.objects, key)
	return nil
}

// fakeIdentityGateway is an in-memory IdentityGateway
type fakeIdentityGateway struct {
	mu        sync.Mutex
	creds     map[string]*repository.Credential // by id
	passwords map[string]string                 // by email
	ids       map[string]string                 // email -> id
	calls     map[string]int
	verifyErr error
	deleteErr error
}

func newFakeIdentityGateway() *fakeIdentityGateway {
	return &fakeIdentityGateway{
		creds:     make(map[string]*repository.Credential),
		passwords: make(map[string]string),
		ids:       make(map[string]string),
		calls:     make(map[string]int),
	}
}

func (g *fakeIdentityGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *fakeIdentityGateway) seed(id, email, password string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creds[id] = &repository.Credential{ID: id, Email: email, CreatedAt: time.Now()}
	g.passwords[email] = password
	g.ids[email] = id
}

func (g *fakeIdentityGateway) CreateCredential(ctx context.Context, email, password string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["create"]++
	if _, ok := g.ids[email]; ok {
		return "", apperr.Auth("create-credential", errors.New("email already registered"))
	}
	id := fmt.Sprintf("user-%d", len(g.creds)+1)
	g.creds[id] = &repository.Credential{ID: id, Email: email, CreatedAt: time.Now()}
	g.passwords[email] = password
	g.ids[email] = id
	return id, nil
}

func (g *fakeIdentityGateway) Verify(ctx context.Context, email, password string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["verify"]++
	if g.verifyErr != nil {
		return "", g.verifyErr
	}
	if stored, ok := g.passwords[email]; !ok || stored != password {
		return "", apperr.Auth("verify", errors.New("invalid credentials"))
	}
	return g.ids[email], nil
}

func (g *fakeIdentityGateway) UpdatePassword(ctx context.Context, id, newPassword string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["update-password"]++
	cred, ok := g.creds[id]
	if !ok {
		return apperr.Auth("update-password", errors.New("no such identity"))
	}
	g.passwords[cred.Email] = newPassword
	return nil
}

func (g *fakeIdentityGateway) SetDisplayName(ctx context.Context, id, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["set-display-name"]++
	cred, ok := g.creds[id]
	if !ok {
		return apperr.Auth("set-display-name", errors.New("no such identity"))
	}
	cred.DisplayName = name
	return nil
}

func (g *fakeIdentityGateway) Lookup(ctx context.Context, id string) (*repository.Credential, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["lookup"]++
	cred, ok := g.creds[id]
	if !ok {
		return nil, apperr.Auth("lookup", errors.New("no such identity"))
	}
	return cred, nil
}

func (g *fakeIdentityGateway) DeleteCredential(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["delete"]++
	if g.deleteErr != nil {
		return g.deleteErr
	}
	cred, ok := g.creds[id]
	if !ok {
		return apperr.Auth("delete-credential", errors.New("no such identity"))
	}
	delete(g.passwords, cred.Email)
	delete(g.ids, cred.Email)
	delete(g.creds, id)
	return nil
}
