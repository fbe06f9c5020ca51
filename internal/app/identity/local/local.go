// internal/app/identity/local/local.go

// Package local is the Mongo-backed identity provider used when CasaLink
// runs self-hosted. Credentials live in their own collection, separate
// from user profiles, and passwords are stored as bcrypt hashes.
package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/casalink/internal/app/identity"
	"github.com/dalemusser/casalink/internal/app/system/normalize"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type credential struct {
	UID          string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash []byte    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// Provider implements identity.Provider over a Mongo credentials
// collection with a single in-process session slot.
type Provider struct {
	c   *mongo.Collection
	log *zap.Logger

	mu        sync.Mutex
	current   *identity.Identity
	listeners map[int]func(*identity.Identity)
	nextID    int
}

// New creates a local identity provider backed by the given database.
func New(db *mongo.Database, logger *zap.Logger) *Provider {
	return &Provider{
		c:         db.Collection("credentials"),
		log:       logger,
		listeners: make(map[int]func(*identity.Identity)),
	}
}

// EnsureIndexes creates the unique email index.
func (p *Provider) EnsureIndexes(ctx context.Context) error {
	_, err := p.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_credentials_email"),
	})
	return err
}

// SignIn verifies the credential and claims the session slot.
func (p *Provider) SignIn(ctx context.Context, email, password string) (identity.Identity, error) {
	email = normalize.Email(email)

	var cred credential
	err := p.c.FindOne(ctx, bson.M{"email": email}).Decode(&cred)
	if err == mongo.ErrNoDocuments {
		return identity.Identity{}, identity.ErrInvalidCredentials
	}
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}

	if bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)) != nil {
		return identity.Identity{}, identity.ErrInvalidCredentials
	}

	ident := identity.Identity{UID: cred.UID, Email: cred.Email}
	p.setCurrent(&ident)
	return ident, nil
}

// SignOut releases the session slot. Idempotent.
func (p *Provider) SignOut(ctx context.Context) error {
	p.setCurrent(nil)
	return nil
}

// SignUp creates a credential and switches the session to the new
// identity, signing out the previous holder.
func (p *Provider) SignUp(ctx context.Context, email, password string) (identity.Identity, error) {
	email = normalize.Email(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	cred := credential{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := p.c.InsertOne(ctx, cred); err != nil {
		if wafflemongo.IsDup(err) {
			return identity.Identity{}, identity.ErrEmailAlreadyInUse
		}
		return identity.Identity{}, fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}

	ident := identity.Identity{UID: cred.UID, Email: cred.Email}
	p.setCurrent(&ident)
	return ident, nil
}

// CurrentIdentity returns the session-slot holder.
func (p *Provider) CurrentIdentity() (identity.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return identity.Identity{}, false
	}
	return *p.current, true
}

// Reauthenticate verifies the current identity's credential without
// touching the session slot.
func (p *Provider) Reauthenticate(ctx context.Context, email, password string) error {
	cur, ok := p.CurrentIdentity()
	if !ok {
		return identity.ErrNotAuthenticated
	}
	if normalize.Email(email) != cur.Email {
		return identity.ErrInvalidCredentials
	}

	var cred credential
	err := p.c.FindOne(ctx, bson.M{"_id": cur.UID}).Decode(&cred)
	if err == mongo.ErrNoDocuments {
		return identity.ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	if bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)) != nil {
		return identity.ErrInvalidCredentials
	}
	return nil
}

// UpdatePassword replaces the current identity's credential.
func (p *Provider) UpdatePassword(ctx context.Context, newPassword string) error {
	cur, ok := p.CurrentIdentity()
	if !ok {
		return identity.ErrNotAuthenticated
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	res, err := p.c.UpdateOne(ctx,
		bson.M{"_id": cur.UID},
		bson.M{"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return identity.ErrNotAuthenticated
	}
	return nil
}

// OnSessionChange registers a listener. It fires immediately with the
// current slot state, then on every change.
func (p *Provider) OnSessionChange(cb func(*identity.Identity)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = cb
	cur := p.current
	p.mu.Unlock()

	cb(copyIdent(cur))

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// setCurrent swaps the session slot and notifies listeners outside the
// lock. Listeners receive their own copy of the identity.
func (p *Provider) setCurrent(ident *identity.Identity) {
	p.mu.Lock()
	p.current = copyIdent(ident)
	cbs := make([]func(*identity.Identity), 0, len(p.listeners))
	for _, cb := range p.listeners {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(copyIdent(ident))
	}
}

func copyIdent(ident *identity.Identity) *identity.Identity {
	if ident == nil {
		return nil
	}
	c := *ident
	return &c
}
