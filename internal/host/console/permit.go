package console

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/snakecogs/cogvault/internal/cryptox"
	"github.com/snakecogs/cogvault/internal/host"
	"github.com/snakecogs/cogvault/internal/vault"
)

// readPassword is a test seam for term.ReadPassword. Tests replace it to
// avoid touching the terminal.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// Checker implements host.PermissionChecker for the console host.
// Everyone-level commands always pass. Owner is whoever the directory
// says owns the tenant. Admin is the owner plus any principal that has
// elevated with the admin passphrase during this session.
type Checker struct {
	dir      *Directory
	salt     []byte
	verifier []byte
	elevated map[vault.PrincipalID]bool
}

// NewChecker builds a checker with an argon2id passphrase verifier. Pass
// nil salt/verifier to disable elevation entirely.
func NewChecker(dir *Directory, salt, verifier []byte) *Checker {
	return &Checker{
		dir:      dir,
		salt:     salt,
		verifier: verifier,
		elevated: make(map[vault.PrincipalID]bool),
	}
}

func (c *Checker) Allows(tenant vault.TenantID, principal vault.PrincipalID, level host.Permission) bool {
	switch level {
	case host.PermOwner:
		owner, ok := c.dir.Owner(tenant)
		return ok && owner == principal
	case host.PermAdmin:
		if c.elevated[principal] {
			return true
		}
		owner, ok := c.dir.Owner(tenant)
		return ok && owner == principal
	default:
		return true
	}
}

// Elevate prompts for the admin passphrase (no echo) and, on a match,
// grants the principal admin rights for the rest of the session.
func (c *Checker) Elevate(principal vault.PrincipalID) error {
	if len(c.verifier) == 0 {
		return fmt.Errorf("admin elevation is not configured")
	}

	fmt.Print("Admin passphrase: ")
	passphrase, err := readPassword()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read passphrase: %w", err)
	}

	if !cryptox.VerifyPassphrase(passphrase, c.salt, c.verifier) {
		return fmt.Errorf("wrong passphrase")
	}
	c.elevated[principal] = true
	return nil
}

// Drop revokes a principal's session elevation.
func (c *Checker) Drop(principal vault.PrincipalID) {
	delete(c.elevated, principal)
}
