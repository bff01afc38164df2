// Package bank is the virtual-currency cog: one wallet account per
// principal in the vault, plus the commands built on it (transfers,
// payday, the slot machine, leaderboards).
package bank

import (
	"context"
	"errors"
	"fmt"

	"github.com/snakecogs/cogvault/internal/logging"
	"github.com/snakecogs/cogvault/internal/vault"
)

// AccountName is the single wallet account each principal holds.
const AccountName = "basic_bank_account"

// Wallet is the bank's typed storage payload.
type Wallet struct {
	Balance int64 `json:"balance"`
}

var (
	ErrNegativeValue       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Service is the bank's ledger API. The command handlers and the
// armorsmith shop both settle money through it; nothing else touches the
// wallet store.
type Service struct {
	store  *vault.Store[Wallet]
	runner *vault.Runner[Wallet]
	log    logging.Logger
}

func NewService(store *vault.Store[Wallet], log logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		store:  store,
		runner: vault.NewRunner(store, log),
		log:    log,
	}
}

func walletKey(tenant vault.TenantID, principal vault.PrincipalID) vault.Key {
	return vault.Key{Tenant: tenant, Principal: principal, Name: AccountName}
}

// Open creates a wallet with the given opening balance.
func (s *Service) Open(tenant vault.TenantID, principal vault.PrincipalID, opening int64) (vault.Account[Wallet], error) {
	attrs := map[string]string{"id": string(principal), "permission_level": "0"}
	return s.store.Create(walletKey(tenant, principal), attrs, Wallet{Balance: opening})
}

// HasAccount reports whether the principal holds a wallet in this tenant.
func (s *Service) HasAccount(tenant vault.TenantID, principal vault.PrincipalID) bool {
	return s.store.Exists(walletKey(tenant, principal))
}

// Balance returns the wallet balance.
func (s *Service) Balance(tenant vault.TenantID, principal vault.PrincipalID) (int64, error) {
	w, err := s.store.Storage(walletKey(tenant, principal))
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// CanSpend reports whether the wallet covers amount. Missing accounts
// cannot spend.
func (s *Service) CanSpend(tenant vault.TenantID, principal vault.PrincipalID, amount int64) bool {
	balance, err := s.Balance(tenant, principal)
	return err == nil && balance >= amount
}

// Deposit adds a positive amount to the wallet.
func (s *Service) Deposit(ctx context.Context, tenant vault.TenantID, principal vault.PrincipalID, amount int64) error {
	if amount <= 0 {
		return ErrNegativeValue
	}
	_, err := s.runner.Deposit(ctx, walletKey(tenant, principal), func(acct *vault.Account[Wallet]) error {
		acct.Storage.Balance += amount
		return nil
	})
	return err
}

// Withdraw removes a positive amount; the transaction is rejected when
// the balance would go negative.
func (s *Service) Withdraw(ctx context.Context, tenant vault.TenantID, principal vault.PrincipalID, amount int64) error {
	if amount <= 0 {
		return ErrNegativeValue
	}
	_, err := s.runner.Withdraw(ctx, walletKey(tenant, principal), func(acct *vault.Account[Wallet]) error {
		if acct.Storage.Balance < amount {
			return vault.InvalidFor(ErrInsufficientBalance, acct.Key)
		}
		acct.Storage.Balance -= amount
		return nil
	})
	return err
}

// Set overwrites the balance outright (admin operation).
func (s *Service) Set(tenant vault.TenantID, principal vault.PrincipalID, amount int64) error {
	if amount < 0 {
		return ErrNegativeValue
	}
	return s.store.SetStorage(walletKey(tenant, principal), Wallet{Balance: amount})
}

// Transfer moves a positive amount between two principals' wallets.
func (s *Service) Transfer(ctx context.Context, tenant vault.TenantID, from, to vault.PrincipalID, amount int64) (vault.Receipt, error) {
	if amount <= 0 {
		return vault.Receipt{}, ErrNegativeValue
	}
	return s.runner.Transfer(ctx, walletKey(tenant, from), walletKey(tenant, to),
		func(send, recv *vault.Account[Wallet]) error {
			if send.Storage.Balance < amount {
				return vault.InvalidFor(ErrInsufficientBalance, send.Key)
			}
			send.Storage.Balance -= amount
			recv.Storage.Balance += amount
			return nil
		})
}

// WipeTenant deletes every wallet in a tenant.
func (s *Service) WipeTenant(tenant vault.TenantID) error {
	return s.store.ClearTenant(tenant)
}

// TenantAccounts lists all wallets of a tenant with resolved identities.
func (s *Service) TenantAccounts(tenant vault.TenantID) ([]vault.Resolved[Wallet], error) {
	return s.store.ListTenant(tenant)
}

// AllAccounts aggregates wallets across resolvable tenants.
func (s *Service) AllAccounts() ([]vault.Resolved[Wallet], error) {
	return s.store.ListAll()
}

func describeAmount(amount int64) string {
	if amount == 1 {
		return "1 credit"
	}
	return fmt.Sprintf("%d credits", amount)
}
