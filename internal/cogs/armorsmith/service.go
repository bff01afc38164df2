package armorsmith

import (
	"context"
	"sort"

	"github.com/snakecogs/cogvault/internal/logging"
	"github.com/snakecogs/cogvault/internal/vault"
)

// AccountName is the single stash account each principal holds.
const AccountName = "stash"

// Stash is the armorsmith's typed storage payload: items keyed by name.
// A stash holds at most one of each item.
type Stash map[string]Item

// Service is the inventory API. Handlers and the shop both move items
// through it; nothing else touches the stash store.
type Service struct {
	store  *vault.Store[Stash]
	runner *vault.Runner[Stash]
	log    logging.Logger
}

func NewService(store *vault.Store[Stash], log logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		store:  store,
		runner: vault.NewRunner(store, log),
		log:    log,
	}
}

func stashKey(tenant vault.TenantID, principal vault.PrincipalID) vault.Key {
	return vault.Key{Tenant: tenant, Principal: principal, Name: AccountName}
}

// Open creates an empty stash.
func (s *Service) Open(tenant vault.TenantID, principal vault.PrincipalID) (vault.Account[Stash], error) {
	attrs := map[string]string{"id": string(principal)}
	return s.store.Create(stashKey(tenant, principal), attrs, Stash{})
}

// HasAccount reports whether the principal holds a stash in this tenant.
func (s *Service) HasAccount(tenant vault.TenantID, principal vault.PrincipalID) bool {
	return s.store.Exists(stashKey(tenant, principal))
}

// Items lists the stash contents sorted by item name.
func (s *Service) Items(tenant vault.TenantID, principal vault.PrincipalID) ([]Item, error) {
	stash, err := s.store.Storage(stashKey(tenant, principal))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(stash))
	for name := range stash {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]Item, 0, len(names))
	for _, name := range names {
		items = append(items, stash[name])
	}
	return items, nil
}

// HasItem reports whether the stash contains the named item.
func (s *Service) HasItem(tenant vault.TenantID, principal vault.PrincipalID, itemName string) bool {
	stash, err := s.store.Storage(stashKey(tenant, principal))
	if err != nil {
		return false
	}
	_, ok := stash[itemName]
	return ok
}

// GiveItem puts an item into the stash, replacing any same-named one.
func (s *Service) GiveItem(ctx context.Context, tenant vault.TenantID, principal vault.PrincipalID, item Item) error {
	_, err := s.runner.Deposit(ctx, stashKey(tenant, principal), func(acct *vault.Account[Stash]) error {
		if acct.Storage == nil {
			acct.Storage = Stash{}
		}
		acct.Storage[item.Name] = item
		return nil
	})
	return err
}

// RemoveItem takes the named item out of the stash; the transaction is
// rejected when the item is not there.
func (s *Service) RemoveItem(ctx context.Context, tenant vault.TenantID, principal vault.PrincipalID, itemName string) error {
	_, err := s.runner.Withdraw(ctx, stashKey(tenant, principal), func(acct *vault.Account[Stash]) error {
		if _, ok := acct.Storage[itemName]; !ok {
			return vault.InvalidFor(ErrItemNotFound, acct.Key)
		}
		delete(acct.Storage, itemName)
		return nil
	})
	return err
}

// TransferItem moves the named item from one stash to another.
func (s *Service) TransferItem(ctx context.Context, tenant vault.TenantID, from, to vault.PrincipalID, itemName string) error {
	_, err := s.runner.Transfer(ctx, stashKey(tenant, from), stashKey(tenant, to),
		func(send, recv *vault.Account[Stash]) error {
			item, ok := send.Storage[itemName]
			if !ok {
				return vault.InvalidFor(ErrItemNotFound, send.Key)
			}
			delete(send.Storage, itemName)
			if recv.Storage == nil {
				recv.Storage = Stash{}
			}
			recv.Storage[item.Name] = item
			return nil
		})
	return err
}

// WipeTenant deletes every stash in a tenant.
func (s *Service) WipeTenant(tenant vault.TenantID) error {
	return s.store.ClearTenant(tenant)
}

// TenantAccounts lists all stashes of a tenant with resolved identities.
func (s *Service) TenantAccounts(tenant vault.TenantID) ([]vault.Resolved[Stash], error) {
	return s.store.ListTenant(tenant)
}
