package vault

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/snakecogs/cogvault/internal/logging"
)

// TxFunc validates and mutates one working copy. Domain rules (balance
// floors, item presence) live here, never in the runner. Returning an
// *InvalidTransactionError rejects the mutation and leaves persisted
// state untouched.
type TxFunc[S any] func(acct *Account[S]) error

// TransferFunc validates and mutates both sides of a transfer.
type TransferFunc[S any] func(send, recv *Account[S]) error

// Receipt identifies one applied transaction for audit logging.
type Receipt struct {
	ID   string
	Kind string
	Keys []Key
	At   time.Time
}

// Runner applies caller-supplied transaction functions to working copies
// of accounts and persists only when the function succeeds. It enforces
// no domain rule itself; it guarantees atomicity-of-effect relative to
// the validation outcome: either every loaded account is written back, or
// none is.
//
// Concurrent invocations against the same key are not isolated from one
// another; the design assumes a single logical actor applies transactions
// serially.
type Runner[S any] struct {
	store *Store[S]
	log   logging.Logger
}

func NewRunner[S any](store *Store[S], log logging.Logger) *Runner[S] {
	if log == nil {
		log = logging.Nop()
	}
	return &Runner[S]{store: store, log: log}
}

// Withdraw loads the account at key, applies fn, and persists the result
// unless fn rejected the mutation.
func (r *Runner[S]) Withdraw(ctx context.Context, key Key, fn TxFunc[S]) (Receipt, error) {
	return r.apply(ctx, "withdraw", key, fn)
}

// Deposit is Withdraw's mirror; the split exists so call sites read like
// the ledger operations they are.
func (r *Runner[S]) Deposit(ctx context.Context, key Key, fn TxFunc[S]) (Receipt, error) {
	return r.apply(ctx, "deposit", key, fn)
}

func (r *Runner[S]) apply(ctx context.Context, kind string, key Key, fn TxFunc[S]) (Receipt, error) {
	acct, err := r.store.Get(key)
	if err != nil {
		return Receipt{}, err
	}

	if err := fn(&acct); err != nil {
		if IsInvalid(err) {
			r.log.Warn(ctx, "transaction rejected", "kind", kind, "key", key.String(), "err", err)
		}
		return Receipt{}, err
	}

	r.store.put(acct)
	if err := r.store.Flush(); err != nil {
		return Receipt{}, err
	}

	rec := Receipt{ID: uuid.NewString(), Kind: kind, Keys: []Key{key}, At: nowFn()}
	r.log.Info(ctx, "transaction applied", "kind", kind, "key", key.String(), "receipt", rec.ID)
	return rec, nil
}

// Transfer loads both accounts, applies fn to the pair, and persists both
// sides in one snapshot write. Identical sender and receiver keys are
// rejected before fn runs.
func (r *Runner[S]) Transfer(ctx context.Context, send, recv Key, fn TransferFunc[S]) (Receipt, error) {
	if send == recv {
		return Receipt{}, ErrSameSenderAndReceiver
	}

	sendAcct, err := r.store.Get(send)
	if err != nil {
		return Receipt{}, err
	}
	recvAcct, err := r.store.Get(recv)
	if err != nil {
		return Receipt{}, err
	}

	if err := fn(&sendAcct, &recvAcct); err != nil {
		if IsInvalid(err) {
			r.log.Warn(ctx, "transfer rejected",
				"send", send.String(), "recv", recv.String(), "err", err)
		}
		return Receipt{}, err
	}

	r.store.put(sendAcct)
	r.store.put(recvAcct)
	if err := r.store.Flush(); err != nil {
		return Receipt{}, err
	}

	rec := Receipt{ID: uuid.NewString(), Kind: "transfer", Keys: []Key{send, recv}, At: nowFn()}
	r.log.Info(ctx, "transfer applied",
		"send", send.String(), "recv", recv.String(), "receipt", rec.ID)
	return rec, nil
}

// IsNoAccount reports whether err stems from a missing account key.
func IsNoAccount(err error) bool {
	return errors.Is(err, ErrNoAccount)
}
