package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/snakecogs/cogvault/internal/filex"
)

// Resolver supplies display identities for tenants and principals. It is
// used only for presentation and for filtering aggregate views, never for
// ledger correctness. "Not found" is an answer, not an error.
type Resolver interface {
	// TenantName returns the display name of a tenant, or false when the
	// tenant is no longer known to the host.
	TenantName(tenant TenantID) (string, bool)

	// MemberName returns the display name of a principal within a
	// tenant, or false when the member is gone.
	MemberName(tenant TenantID, principal PrincipalID) (string, bool)
}

// nowFn is a test seam for timestamp stamping.
var nowFn = func() time.Time { return time.Now().UTC() }

// accounts is the persisted document shape:
// tenant -> principal -> account name -> account.
type accounts[S any] map[TenantID]map[PrincipalID]map[string]Account[S]

// Store owns the nested account mapping and its on-disk snapshot. All
// operations are synchronous read-modify-write over the in-memory maps
// followed by a full-document persist; callers must serialize access
// externally if concurrent mutation is possible.
type Store[S any] struct {
	path     string
	resolver Resolver
	accounts accounts[S]
}

// NewStore builds a store backed by the JSON document at path. Call Load
// before first use.
func NewStore[S any](path string, resolver Resolver) *Store[S] {
	return &Store[S]{
		path:     path,
		resolver: resolver,
		accounts: make(accounts[S]),
	}
}

// Load reads the backing snapshot. A missing file starts an empty store;
// a present but unreadable one is a hard error.
func (s *Store[S]) Load() error {
	loaded := make(accounts[S])
	if err := filex.LoadJSON(s.path, &loaded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.accounts = make(accounts[S])
			return nil
		}
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	s.accounts = loaded
	return nil
}

// Flush rewrites the whole snapshot. Every mutating operation calls this;
// it is exported so callers can force a write after Load if they need the
// file to exist.
func (s *Store[S]) Flush() error {
	if err := filex.SaveJSON(s.path, s.accounts); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Create makes a new account under key with the given metadata attributes
// and initial storage. The creation timestamp is stamped with the current
// UTC time. Fails with ErrAccountExists when the key is occupied.
func (s *Store[S]) Create(key Key, attrs map[string]string, storage S) (Account[S], error) {
	if s.Exists(key) {
		return Account[S]{}, fmt.Errorf("create %s: %w", key, ErrAccountExists)
	}

	acct := Account[S]{
		Key:      key,
		Metadata: Metadata{CreatedAt: nowFn(), Attrs: attrs},
		Storage:  storage,
	}
	detached, err := clone(acct)
	if err != nil {
		return Account[S]{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.ensurePath(key)
	s.accounts[key.Tenant][key.Principal][key.Name] = acct
	if err := s.Flush(); err != nil {
		return Account[S]{}, err
	}
	return detached, nil
}

// Exists reports whether key addresses an account. Absent tenant or
// principal branches mean "does not exist", never an error.
func (s *Store[S]) Exists(key Key) bool {
	_, ok := s.accounts[key.Tenant][key.Principal][key.Name]
	return ok
}

// Get returns a detached copy of the account at key.
func (s *Store[S]) Get(key Key) (Account[S], error) {
	acct, ok := s.accounts[key.Tenant][key.Principal][key.Name]
	if !ok {
		return Account[S]{}, fmt.Errorf("get %s: %w", key, ErrNoAccount)
	}
	acct.Key = key
	detached, err := clone(acct)
	if err != nil {
		return Account[S]{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return detached, nil
}

// Storage is the payload projection of Get.
func (s *Store[S]) Storage(key Key) (S, error) {
	acct, err := s.Get(key)
	if err != nil {
		var zero S
		return zero, err
	}
	return acct.Storage, nil
}

// GetMetadata is the metadata projection of Get.
func (s *Store[S]) GetMetadata(key Key) (Metadata, error) {
	acct, err := s.Get(key)
	if err != nil {
		return Metadata{}, err
	}
	return acct.Metadata, nil
}

// SetStorage replaces the payload of an existing account wholesale and
// persists. It is not a merge.
func (s *Store[S]) SetStorage(key Key, storage S) error {
	acct, ok := s.accounts[key.Tenant][key.Principal][key.Name]
	if !ok {
		return fmt.Errorf("set storage %s: %w", key, ErrNoAccount)
	}
	acct.Storage = storage
	s.accounts[key.Tenant][key.Principal][key.Name] = acct
	return s.Flush()
}

// SetMetadata replaces the metadata of an existing account wholesale and
// persists.
func (s *Store[S]) SetMetadata(key Key, md Metadata) error {
	acct, ok := s.accounts[key.Tenant][key.Principal][key.Name]
	if !ok {
		return fmt.Errorf("set metadata %s: %w", key, ErrNoAccount)
	}
	acct.Metadata = md
	s.accounts[key.Tenant][key.Principal][key.Name] = acct
	return s.Flush()
}

// ClearAccount removes one account. Clearing a missing key is a no-op.
func (s *Store[S]) ClearAccount(key Key) error {
	if _, ok := s.accounts[key.Tenant][key.Principal][key.Name]; !ok {
		return nil
	}
	delete(s.accounts[key.Tenant][key.Principal], key.Name)
	s.prune(key.Tenant, key.Principal)
	return s.Flush()
}

// ClearPrincipal removes every account a principal holds in a tenant.
// Idempotent.
func (s *Store[S]) ClearPrincipal(tenant TenantID, principal PrincipalID) error {
	if _, ok := s.accounts[tenant][principal]; !ok {
		return nil
	}
	delete(s.accounts[tenant], principal)
	s.prune(tenant, "")
	return s.Flush()
}

// ClearTenant removes the whole tenant namespace. Idempotent.
func (s *Store[S]) ClearTenant(tenant TenantID) error {
	if _, ok := s.accounts[tenant]; !ok {
		return nil
	}
	delete(s.accounts, tenant)
	return s.Flush()
}

// ListTenant returns all accounts under a tenant, each annotated with the
// resolved display identity. Accounts whose principal no longer resolves
// are still returned with an empty Member so callers can filter for "is
// the principal still active".
func (s *Store[S]) ListTenant(tenant TenantID) ([]Resolved[S], error) {
	tenantName, _ := s.resolver.TenantName(tenant)

	principals := make([]PrincipalID, 0, len(s.accounts[tenant]))
	for p := range s.accounts[tenant] {
		principals = append(principals, p)
	}
	sort.Slice(principals, func(i, j int) bool { return principals[i] < principals[j] })

	var out []Resolved[S]
	for _, p := range principals {
		names := make([]string, 0, len(s.accounts[tenant][p]))
		for name := range s.accounts[tenant][p] {
			names = append(names, name)
		}
		sort.Strings(names)

		member, _ := s.resolver.MemberName(tenant, p)
		for _, name := range names {
			acct, err := s.Get(Key{Tenant: tenant, Principal: p, Name: name})
			if err != nil {
				return nil, err
			}
			out = append(out, Resolved[S]{Account: acct, Member: member, Tenant: tenantName})
		}
	}
	return out, nil
}

// ListAll aggregates accounts across every known tenant. Tenants the
// resolver reports as no-longer-existent are silently skipped: orphaned
// data stays on disk but is excluded from aggregate views.
func (s *Store[S]) ListAll() ([]Resolved[S], error) {
	tenants := make([]TenantID, 0, len(s.accounts))
	for t := range s.accounts {
		tenants = append(tenants, t)
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i] < tenants[j] })

	var out []Resolved[S]
	for _, t := range tenants {
		if _, ok := s.resolver.TenantName(t); !ok {
			continue
		}
		accts, err := s.ListTenant(t)
		if err != nil {
			return nil, err
		}
		out = append(out, accts...)
	}
	return out, nil
}

// put writes a working copy back into the live maps without persisting.
// The transaction runner uses it to stage one or two accounts before a
// single Flush.
func (s *Store[S]) put(acct Account[S]) {
	s.ensurePath(acct.Key)
	s.accounts[acct.Key.Tenant][acct.Key.Principal][acct.Key.Name] = acct
}

func (s *Store[S]) ensurePath(key Key) {
	if _, ok := s.accounts[key.Tenant]; !ok {
		s.accounts[key.Tenant] = make(map[PrincipalID]map[string]Account[S])
	}
	if _, ok := s.accounts[key.Tenant][key.Principal]; !ok {
		s.accounts[key.Tenant][key.Principal] = make(map[string]Account[S])
	}
}

// prune drops empty principal and tenant branches so cleared keys do not
// leave husks in the snapshot.
func (s *Store[S]) prune(tenant TenantID, principal PrincipalID) {
	if principal != "" && len(s.accounts[tenant][principal]) == 0 {
		delete(s.accounts[tenant], principal)
	}
	if len(s.accounts[tenant]) == 0 {
		delete(s.accounts, tenant)
	}
}
