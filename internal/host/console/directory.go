// Package console is the in-process chat host used by the botd binary
// and the tests: an in-memory member directory, a passphrase-gated
// permission checker, a stdout messenger, and a REPL that feeds the
// dispatcher. It stands in for the real chat runtime the cogs would
// normally be mounted on.
package console

import (
	"sort"
	"strings"

	"github.com/snakecogs/cogvault/internal/host"
	"github.com/snakecogs/cogvault/internal/vault"
)

// Directory is the in-memory tenant/member registry. Removing a tenant
// or member makes them unresolvable, which is how the store's
// "skip unresolvable tenants" and "members who left" paths get exercised.
type Directory struct {
	tenants map[vault.TenantID]*tenantEntry
}

type tenantEntry struct {
	name    string
	owner   vault.PrincipalID
	members map[vault.PrincipalID]string
}

func NewDirectory() *Directory {
	return &Directory{tenants: make(map[vault.TenantID]*tenantEntry)}
}

// AddTenant registers a tenant with its owning principal. The owner is
// added as a member automatically.
func (d *Directory) AddTenant(id vault.TenantID, name string, owner vault.PrincipalID, ownerName string) {
	d.tenants[id] = &tenantEntry{
		name:    name,
		owner:   owner,
		members: map[vault.PrincipalID]string{owner: ownerName},
	}
}

// RemoveTenant makes a tenant unresolvable. Ledger data for it stays on
// disk untouched.
func (d *Directory) RemoveTenant(id vault.TenantID) {
	delete(d.tenants, id)
}

// Join adds a member to a tenant. No-op when the tenant is unknown.
func (d *Directory) Join(tenant vault.TenantID, id vault.PrincipalID, name string) {
	if t, ok := d.tenants[tenant]; ok {
		t.members[id] = name
	}
}

// Leave removes a member. The owner can leave too; their accounts stay.
func (d *Directory) Leave(tenant vault.TenantID, id vault.PrincipalID) {
	if t, ok := d.tenants[tenant]; ok {
		delete(t.members, id)
	}
}

// Owner returns the owning principal of a tenant.
func (d *Directory) Owner(tenant vault.TenantID) (vault.PrincipalID, bool) {
	t, ok := d.tenants[tenant]
	if !ok {
		return "", false
	}
	return t.owner, true
}

// Tenants lists known tenant ids, sorted.
func (d *Directory) Tenants() []vault.TenantID {
	out := make([]vault.TenantID, 0, len(d.tenants))
	for id := range d.tenants {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TenantName implements vault.Resolver.
func (d *Directory) TenantName(tenant vault.TenantID) (string, bool) {
	t, ok := d.tenants[tenant]
	if !ok {
		return "", false
	}
	return t.name, true
}

// MemberName implements vault.Resolver.
func (d *Directory) MemberName(tenant vault.TenantID, principal vault.PrincipalID) (string, bool) {
	t, ok := d.tenants[tenant]
	if !ok {
		return "", false
	}
	name, ok := t.members[principal]
	return name, ok
}

// LookupMember implements host.IdentityResolver: match by principal id
// first, then by display name (case-insensitive).
func (d *Directory) LookupMember(tenant vault.TenantID, nameOrID string) (host.Member, bool) {
	t, ok := d.tenants[tenant]
	if !ok {
		return host.Member{}, false
	}

	if name, ok := t.members[vault.PrincipalID(nameOrID)]; ok {
		return host.Member{ID: vault.PrincipalID(nameOrID), DisplayName: name}, true
	}

	ids := make([]vault.PrincipalID, 0, len(t.members))
	for id := range t.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if strings.EqualFold(t.members[id], nameOrID) {
			return host.Member{ID: id, DisplayName: t.members[id]}, true
		}
	}
	return host.Member{}, false
}
