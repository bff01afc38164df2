package host

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/snakecogs/cogvault/internal/vault"
)

// recordingMessenger captures everything said to the user.
type recordingMessenger struct {
	Said      []string
	Whispered []string
}

func (m *recordingMessenger) Say(_ context.Context, text string) error {
	m.Said = append(m.Said, text)
	return nil
}

func (m *recordingMessenger) Whisper(_ context.Context, text string) error {
	m.Whispered = append(m.Whispered, text)
	return nil
}

// levelChecker allows a fixed set of principals per level.
type levelChecker struct {
	admins map[vault.PrincipalID]bool
	owners map[vault.PrincipalID]bool
}

func (c *levelChecker) Allows(_ vault.TenantID, p vault.PrincipalID, level Permission) bool {
	switch level {
	case PermOwner:
		return c.owners[p]
	case PermAdmin:
		return c.admins[p] || c.owners[p]
	default:
		return true
	}
}

type stubCog struct {
	name  string
	specs []Spec
}

func (c *stubCog) Name() string     { return c.name }
func (c *stubCog) Commands() []Spec { return c.specs }

func inv(principal string) *Invocation {
	return &Invocation{
		Tenant: "t",
		Author: Member{ID: vault.PrincipalID(principal), DisplayName: principal},
		Prefix: "!",
	}
}

func TestDispatcher_RoutesGroupCommand(t *testing.T) {
	msg := &recordingMessenger{}
	d := NewDispatcher(&levelChecker{}, msg, nil)

	var gotArgs []string
	cog := &stubCog{name: "bank", specs: []Spec{{
		Group: "bank", Name: "transfer",
		Handler: func(_ context.Context, inv *Invocation) error {
			gotArgs = inv.Args
			return nil
		},
	}}}
	require.NoError(t, d.Register(cog))

	err := d.Dispatch(context.Background(), inv("alice"), []string{"bank", "transfer", "bob", "30"})
	require.NoError(t, err)
	require.Equal(t, []string{"bob", "30"}, gotArgs)
}

func TestDispatcher_RoutesTopLevelCommand(t *testing.T) {
	msg := &recordingMessenger{}
	d := NewDispatcher(&levelChecker{}, msg, nil)

	called := false
	cog := &stubCog{name: "bank", specs: []Spec{{
		Name:    "payday",
		Handler: func(context.Context, *Invocation) error { called = true; return nil },
	}}}
	require.NoError(t, d.Register(cog))

	require.NoError(t, d.Dispatch(context.Background(), inv("alice"), []string{"payday"}))
	require.True(t, called)
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	msg := &recordingMessenger{}
	d := NewDispatcher(&levelChecker{}, msg, nil)

	require.NoError(t, d.Dispatch(context.Background(), inv("alice"), []string{"frobnicate"}))
	require.Len(t, msg.Said, 1)
	require.Contains(t, msg.Said[0], "Unknown command")
}

func TestDispatcher_GroupWithoutSubcommandSendsHelp(t *testing.T) {
	msg := &recordingMessenger{}
	d := NewDispatcher(&levelChecker{}, msg, nil)

	cog := &stubCog{name: "bank", specs: []Spec{
		{Group: "bank", Name: "register", Usage: "bank register", Help: "open an account",
			Handler: func(context.Context, *Invocation) error { return nil }},
		{Group: "bank", Name: "balance", Usage: "bank balance [user]", Help: "show a balance",
			Handler: func(context.Context, *Invocation) error { return nil }},
	}}
	require.NoError(t, d.Register(cog))

	require.NoError(t, d.Dispatch(context.Background(), inv("alice"), []string{"bank"}))
	require.Len(t, msg.Whispered, 1)
	require.Contains(t, msg.Whispered[0], "bank register")
	require.Contains(t, msg.Whispered[0], "open an account")
	require.Contains(t, msg.Whispered[0], "bank balance [user]")
}

func TestDispatcher_PermissionDenied(t *testing.T) {
	msg := &recordingMessenger{}
	checker := &levelChecker{admins: map[vault.PrincipalID]bool{"root": true}}
	d := NewDispatcher(checker, msg, nil)

	called := false
	cog := &stubCog{name: "bank", specs: []Spec{{
		Group: "bank", Name: "set", Permission: PermAdmin,
		Handler: func(context.Context, *Invocation) error { called = true; return nil },
	}}}
	require.NoError(t, d.Register(cog))

	require.NoError(t, d.Dispatch(context.Background(), inv("alice"), []string{"bank", "set", "bob", "100"}))
	require.False(t, called)
	require.Len(t, msg.Said, 1)
	require.True(t, strings.Contains(msg.Said[0], "permission"))

	require.NoError(t, d.Dispatch(context.Background(), inv("root"), []string{"bank", "set", "bob", "100"}))
	require.True(t, called)
}

func TestDispatcher_RejectsDuplicateRegistration(t *testing.T) {
	d := NewDispatcher(&levelChecker{}, &recordingMessenger{}, nil)

	spec := Spec{Group: "bank", Name: "register",
		Handler: func(context.Context, *Invocation) error { return nil }}
	require.NoError(t, d.Register(&stubCog{name: "bank", specs: []Spec{spec}}))
	require.Error(t, d.Register(&stubCog{name: "bank2", specs: []Spec{spec}}))
}

func TestDispatcher_RejectsNilHandler(t *testing.T) {
	d := NewDispatcher(&levelChecker{}, &recordingMessenger{}, nil)
	err := d.Register(&stubCog{name: "bad", specs: []Spec{{Group: "x", Name: "y"}}})
	require.Error(t, err)
}

func TestDispatcher_HandlerErrorPropagates(t *testing.T) {
	msg := &recordingMessenger{}
	d := NewDispatcher(&levelChecker{}, msg, nil)

	boom := errors.New("boom")
	cog := &stubCog{name: "bank", specs: []Spec{{
		Name:    "explode",
		Handler: func(context.Context, *Invocation) error { return boom },
	}}}
	require.NoError(t, d.Register(cog))

	err := d.Dispatch(context.Background(), inv("alice"), []string{"explode"})
	require.ErrorIs(t, err, boom)
}
