// Package host defines the seam between the cogs and the chat runtime
// that drives them: identity resolution, permission checks, user-facing
// messaging, and command registration. The cogs never parse raw user
// text and never print; everything flows through these interfaces.
package host

import (
	"context"

	"github.com/snakecogs/cogvault/internal/vault"
)

// Permission is the level a command requires of its invoker.
type Permission int

const (
	PermEveryone Permission = iota
	PermAdmin
	PermOwner
)

func (p Permission) String() string {
	switch p {
	case PermAdmin:
		return "admin"
	case PermOwner:
		return "owner"
	default:
		return "everyone"
	}
}

// Member is a resolved chat member.
type Member struct {
	ID          vault.PrincipalID
	DisplayName string
}

// IdentityResolver looks up tenants and members. It extends the store's
// resolver with member lookup by name, which command handlers need for
// arguments like "transfer bob 30".
type IdentityResolver interface {
	vault.Resolver

	// LookupMember finds a member of a tenant by display name or id.
	LookupMember(tenant vault.TenantID, nameOrID string) (Member, bool)
}

// Messenger delivers user-facing output. Say posts to the shared channel,
// Whisper privately to the invoker.
type Messenger interface {
	Say(ctx context.Context, text string) error
	Whisper(ctx context.Context, text string) error
}

// PermissionChecker gates which operations a principal may invoke. The
// cogs expose operations but perform no authorization themselves.
type PermissionChecker interface {
	Allows(tenant vault.TenantID, principal vault.PrincipalID, level Permission) bool
}

// Invocation carries one resolved, pre-parsed command into a handler.
type Invocation struct {
	Tenant vault.TenantID
	Author Member
	Args   []string
	Prefix string
}

// HandlerFunc executes one command. Returned errors are host-side
// failures; user-visible rejections go through the Messenger instead.
type HandlerFunc func(ctx context.Context, inv *Invocation) error

// Spec declares one command a cog offers. Group is empty for top-level
// commands ("payday"); otherwise the command is invoked as "group name"
// ("bank register").
type Spec struct {
	Group      string
	Name       string
	Usage      string
	Help       string
	Permission Permission
	Handler    HandlerFunc
}

// Cog is a plugin that contributes commands to the host.
type Cog interface {
	Name() string
	Commands() []Spec
}
