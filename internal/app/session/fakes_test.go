package session

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/casalink/internal/app/docstore"
	"github.com/dalemusser/casalink/internal/app/identity"
	"github.com/dalemusser/casalink/internal/domain/models"
)

// fakeProvider is an in-memory identity.Provider with the same
// single-session semantics as the real one: SignUp switches the active
// session to the new identity, SignOut releases it.
type fakeProvider struct {
	mu        sync.Mutex
	creds     map[string]fakeCred // keyed by email
	current   *identity.Identity
	listeners map[int]func(*identity.Identity)
	nextSub   int

	// failNextSignIn, when set, rejects the next SignIn with the given
	// error and then clears itself. Used to exercise restore failures.
	failNextSignIn error

	// failNextReauth does the same for Reauthenticate, simulating a
	// backend failure during a credential check.
	failNextReauth error
}

type fakeCred struct {
	uid      string
	password string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		creds:     make(map[string]fakeCred),
		listeners: make(map[int]func(*identity.Identity)),
	}
}

func (p *fakeProvider) addCredential(uid, email, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creds[email] = fakeCred{uid: uid, password: password}
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (identity.Identity, error) {
	p.mu.Lock()
	if err := p.failNextSignIn; err != nil {
		p.failNextSignIn = nil
		p.mu.Unlock()
		return identity.Identity{}, err
	}
	cred, ok := p.creds[email]
	p.mu.Unlock()
	if !ok || cred.password != password {
		return identity.Identity{}, identity.ErrInvalidCredentials
	}
	ident := identity.Identity{UID: cred.uid, Email: email}
	p.setCurrent(&ident)
	return ident, nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.setCurrent(nil)
	return nil
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (identity.Identity, error) {
	p.mu.Lock()
	if _, exists := p.creds[email]; exists {
		p.mu.Unlock()
		return identity.Identity{}, identity.ErrEmailAlreadyInUse
	}
	uid := "uid-" + email
	p.creds[email] = fakeCred{uid: uid, password: password}
	p.mu.Unlock()

	ident := identity.Identity{UID: uid, Email: email}
	p.setCurrent(&ident)
	return ident, nil
}

func (p *fakeProvider) CurrentIdentity() (identity.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return identity.Identity{}, false
	}
	return *p.current, true
}

func (p *fakeProvider) Reauthenticate(ctx context.Context, email, password string) error {
	p.mu.Lock()
	if err := p.failNextReauth; err != nil {
		p.failNextReauth = nil
		p.mu.Unlock()
		return err
	}
	p.mu.Unlock()
	cur, ok := p.CurrentIdentity()
	if !ok {
		return identity.ErrNotAuthenticated
	}
	p.mu.Lock()
	cred, exists := p.creds[email]
	p.mu.Unlock()
	if !exists || email != cur.Email || cred.password != password {
		return identity.ErrInvalidCredentials
	}
	return nil
}

func (p *fakeProvider) UpdatePassword(ctx context.Context, newPassword string) error {
	cur, ok := p.CurrentIdentity()
	if !ok {
		return identity.ErrNotAuthenticated
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cred := p.creds[cur.Email]
	cred.password = newPassword
	p.creds[cur.Email] = cred
	return nil
}

func (p *fakeProvider) OnSessionChange(cb func(*identity.Identity)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.listeners[id] = cb
	cur := p.current
	p.mu.Unlock()

	cb(cur)

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *fakeProvider) setCurrent(ident *identity.Identity) {
	p.mu.Lock()
	p.current = ident
	cbs := make([]func(*identity.Identity), 0, len(p.listeners))
	for _, cb := range p.listeners {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()
	for _, cb := range cbs {
		cb(ident)
	}
}

// fakeUsers is an in-memory UserDirectory.
type fakeUsers struct {
	mu    sync.Mutex
	users map[string]models.User

	putErr    error
	updateErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]models.User)}
}

func (f *fakeUsers) Get(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (f *fakeUsers) Put(ctx context.Context, id string, rec models.User) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = id
	f.users[id] = rec
	return nil
}

func (f *fakeUsers) Update(ctx context.Context, id string, fields map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return docstore.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "login_count":
			u.LoginCount = v.(int)
		case "last_login":
			t := v.(time.Time)
			u.LastLogin = &t
		case "has_temporary_password":
			u.HasTemporaryPassword = v.(bool)
		case "password_changed":
			u.PasswordChanged = v.(bool)
		case "password_changed_at":
			t := v.(time.Time)
			u.PasswordChangedAt = &t
		case "updated_at":
			u.UpdatedAt = v.(time.Time)
		}
	}
	f.users[id] = u
	return nil
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// fakeAdmins is an in-memory AdminDirectory.
type fakeAdmins struct {
	active map[string]bool
	err    error
}

func newFakeAdmins() *fakeAdmins {
	return &fakeAdmins{active: make(map[string]bool)}
}

func (f *fakeAdmins) IsActiveAdmin(ctx context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.active[id], nil
}
