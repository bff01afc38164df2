package vault

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type wallet struct {
	Balance int64 `json:"balance"`
}

// fakeResolver resolves everything unless a tenant or member id is listed
// as gone.
type fakeResolver struct {
	goneTenants map[TenantID]bool
	goneMembers map[PrincipalID]bool
}

func (f *fakeResolver) TenantName(t TenantID) (string, bool) {
	if f.goneTenants[t] {
		return "", false
	}
	return "tenant-" + string(t), true
}

func (f *fakeResolver) MemberName(t TenantID, p PrincipalID) (string, bool) {
	if f.goneTenants[t] || f.goneMembers[p] {
		return "", false
	}
	return "member-" + string(p), true
}

func newTestStore(t *testing.T, resolver Resolver) *Store[wallet] {
	t.Helper()
	if resolver == nil {
		resolver = &fakeResolver{}
	}
	s := NewStore[wallet](filepath.Join(t.TempDir(), "accounts.json"), resolver)
	require.NoError(t, s.Load())
	return s
}

func key(tenant, principal, name string) Key {
	return Key{Tenant: TenantID(tenant), Principal: PrincipalID(principal), Name: name}
}

func TestStore_CreateThenGet(t *testing.T) {
	s := newTestStore(t, nil)

	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	oldNow := nowFn
	nowFn = func() time.Time { return stamp }
	defer func() { nowFn = oldNow }()

	k := key("tenantX", "alice", "wallet")
	created, err := s.Create(k, map[string]string{"level": "0"}, wallet{Balance: 100})
	require.NoError(t, err)
	require.Equal(t, stamp, created.Metadata.CreatedAt)
	require.Equal(t, wallet{Balance: 100}, created.Storage)

	got, err := s.Get(k)
	require.NoError(t, err)
	require.Equal(t, created, got)
	require.Equal(t, map[string]string{"level": "0"}, got.Metadata.Attrs)
}

func TestStore_CreateTwiceFails(t *testing.T) {
	s := newTestStore(t, nil)
	k := key("t", "alice", "wallet")

	_, err := s.Create(k, nil, wallet{Balance: 100})
	require.NoError(t, err)

	_, err = s.Create(k, nil, wallet{Balance: 999})
	require.ErrorIs(t, err, ErrAccountExists)

	// First creation is untouched.
	got, err := s.Storage(k)
	require.NoError(t, err)
	require.Equal(t, wallet{Balance: 100}, got)
}

func TestStore_GetUnknownKey(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.Get(key("t", "nobody", "wallet"))
	require.ErrorIs(t, err, ErrNoAccount)

	_, err = s.Storage(key("missing-tenant", "alice", "wallet"))
	require.ErrorIs(t, err, ErrNoAccount)
}

func TestStore_ExistsNeverErrors(t *testing.T) {
	s := newTestStore(t, nil)
	require.False(t, s.Exists(key("ghost", "ghost", "ghost")))

	k := key("t", "alice", "wallet")
	_, err := s.Create(k, nil, wallet{})
	require.NoError(t, err)
	require.True(t, s.Exists(k))
}

func TestStore_DetachedCopies(t *testing.T) {
	s := newTestStore(t, nil)
	k := key("t", "alice", "wallet")
	_, err := s.Create(k, map[string]string{"a": "1"}, wallet{Balance: 10})
	require.NoError(t, err)

	got, err := s.Get(k)
	require.NoError(t, err)
	got.Storage.Balance = 9999
	got.Metadata.Attrs["a"] = "mutated"

	again, err := s.Get(k)
	require.NoError(t, err)
	require.Equal(t, int64(10), again.Storage.Balance)
	require.Equal(t, "1", again.Metadata.Attrs["a"])
}

func TestStore_SetStorageReplacesWholesale(t *testing.T) {
	s := newTestStore(t, nil)
	k := key("t", "alice", "wallet")
	_, err := s.Create(k, nil, wallet{Balance: 10})
	require.NoError(t, err)

	require.NoError(t, s.SetStorage(k, wallet{Balance: 77}))
	got, err := s.Storage(k)
	require.NoError(t, err)
	require.Equal(t, wallet{Balance: 77}, got)

	err = s.SetStorage(key("t", "bob", "wallet"), wallet{})
	require.ErrorIs(t, err, ErrNoAccount)
}

func TestStore_SetMetadataReplacesWholesale(t *testing.T) {
	s := newTestStore(t, nil)
	k := key("t", "alice", "wallet")
	_, err := s.Create(k, map[string]string{"keep": "no"}, wallet{})
	require.NoError(t, err)

	stamp := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetMetadata(k, Metadata{CreatedAt: stamp, Attrs: map[string]string{"level": "3"}}))

	md, err := s.GetMetadata(k)
	require.NoError(t, err)
	require.Equal(t, stamp, md.CreatedAt)
	require.Equal(t, map[string]string{"level": "3"}, md.Attrs)
}

func TestStore_ClearOperationsAreIdempotent(t *testing.T) {
	s := newTestStore(t, nil)

	// Clearing keys that never existed is a no-op, not an error.
	require.NoError(t, s.ClearAccount(key("t", "alice", "wallet")))
	require.NoError(t, s.ClearPrincipal("t", "alice"))
	require.NoError(t, s.ClearTenant("t"))

	k1 := key("t", "alice", "wallet")
	k2 := key("t", "alice", "savings")
	k3 := key("t", "bob", "wallet")
	for _, k := range []Key{k1, k2, k3} {
		_, err := s.Create(k, nil, wallet{Balance: 1})
		require.NoError(t, err)
	}

	require.NoError(t, s.ClearAccount(k1))
	require.False(t, s.Exists(k1))
	require.True(t, s.Exists(k2))

	require.NoError(t, s.ClearPrincipal("t", "alice"))
	require.False(t, s.Exists(k2))
	require.True(t, s.Exists(k3))

	require.NoError(t, s.ClearTenant("t"))
	require.False(t, s.Exists(k3))
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	resolver := &fakeResolver{}

	s := NewStore[wallet](path, resolver)
	require.NoError(t, s.Load())
	k := key("t", "alice", "wallet")
	_, err := s.Create(k, map[string]string{"level": "0"}, wallet{Balance: 42})
	require.NoError(t, err)

	// A second store instance over the same file sees the account.
	reopened := NewStore[wallet](path, resolver)
	require.NoError(t, reopened.Load())
	got, err := reopened.Get(k)
	require.NoError(t, err)
	require.Equal(t, wallet{Balance: 42}, got.Storage)
	require.Equal(t, "0", got.Metadata.Attrs["level"])
}

func TestStore_LoadMissingFileStartsEmpty(t *testing.T) {
	s := NewStore[wallet](filepath.Join(t.TempDir(), "missing.json"), &fakeResolver{})
	require.NoError(t, s.Load())
	require.False(t, s.Exists(key("t", "a", "w")))
}

func TestStore_ListTenantKeepsUnresolvedPrincipals(t *testing.T) {
	resolver := &fakeResolver{goneMembers: map[PrincipalID]bool{"ghost": true}}
	s := newTestStore(t, resolver)

	_, err := s.Create(key("t", "alice", "wallet"), nil, wallet{Balance: 1})
	require.NoError(t, err)
	_, err = s.Create(key("t", "ghost", "wallet"), nil, wallet{Balance: 2})
	require.NoError(t, err)

	accts, err := s.ListTenant("t")
	require.NoError(t, err)
	require.Len(t, accts, 2)

	byPrincipal := map[PrincipalID]Resolved[wallet]{}
	for _, a := range accts {
		byPrincipal[a.Key.Principal] = a
	}
	require.Equal(t, "member-alice", byPrincipal["alice"].Member)
	require.Equal(t, "", byPrincipal["ghost"].Member, "departed members stay listed, unresolved")
}

func TestStore_ListAllSkipsUnresolvableTenants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	resolver := &fakeResolver{goneTenants: map[TenantID]bool{"dead": true}}

	s := NewStore[wallet](path, resolver)
	require.NoError(t, s.Load())

	_, err := s.Create(key("live", "alice", "wallet"), nil, wallet{Balance: 1})
	require.NoError(t, err)
	_, err = s.Create(key("dead", "bob", "wallet"), nil, wallet{Balance: 2})
	require.NoError(t, err)

	accts, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, accts, 1)
	require.Equal(t, TenantID("live"), accts[0].Key.Tenant)

	// The orphaned tenant's data survives in the persisted snapshot.
	reopened := NewStore[wallet](path, resolver)
	require.NoError(t, reopened.Load())
	require.True(t, reopened.Exists(key("dead", "bob", "wallet")))
}
