// Package vault implements the generic account ledger shared by the cogs.
//
// Accounts are addressed by a composite key (tenant, principal, account
// name) and hold a metadata record plus a cog-defined storage payload. The
// whole store is backed by a single JSON document that is rewritten on
// every mutation; reads always return detached copies, so callers never
// hold references into the live maps.
package vault

import (
	"encoding/json"
	"fmt"
	"time"
)

// TenantID is the namespace grouping principals (a chat server).
type TenantID string

// PrincipalID identifies the external owner of accounts (a chat member).
// The store never validates principal existence, only whether a matching
// account record is present.
type PrincipalID string

// Key uniquely addresses one account.
type Key struct {
	Tenant    TenantID
	Principal PrincipalID
	Name      string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Tenant, k.Principal, k.Name)
}

// Metadata describes an account independently of its payload. Attrs is an
// open set of cog-defined annotations (e.g. a permission level).
type Metadata struct {
	CreatedAt time.Time         `json:"created_at"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// Account is one ledger record. S is the cog-defined storage payload and
// must round-trip through JSON.
type Account[S any] struct {
	Key      Key      `json:"-"`
	Metadata Metadata `json:"metadata"`
	Storage  S        `json:"storage"`
}

// Resolved is an account annotated with its principal's display identity.
// Member is empty when the identity resolver no longer knows the
// principal; such accounts are still listed so callers can filter.
type Resolved[S any] struct {
	Account[S]
	Member string
	Tenant string
}

// clone returns a deep copy of a by round-tripping it through JSON. This
// is what detaches returned accounts from the store's live maps.
func clone[S any](a Account[S]) (Account[S], error) {
	data, err := json.Marshal(a)
	if err != nil {
		return Account[S]{}, fmt.Errorf("clone account %s: %w", a.Key, err)
	}
	var out Account[S]
	if err := json.Unmarshal(data, &out); err != nil {
		return Account[S]{}, fmt.Errorf("clone account %s: %w", a.Key, err)
	}
	out.Key = a.Key
	return out, nil
}
