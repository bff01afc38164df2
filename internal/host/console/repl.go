package console

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/snakecogs/cogvault/internal/host"
	"github.com/snakecogs/cogvault/internal/logging"
	"github.com/snakecogs/cogvault/internal/vault"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// REPL is a read–eval–print loop that simulates the chat runtime: it
// tracks which tenant and member is "speaking", manipulates the member
// directory, and forwards prefixed lines to the command dispatcher.
type REPL struct {
	dir        *Directory
	checker    *Checker
	dispatcher *host.Dispatcher
	log        logging.Logger

	prefix string
	tenant vault.TenantID
	user   host.Member
}

func NewREPL(dir *Directory, checker *Checker, dispatcher *host.Dispatcher, prefix string, log logging.Logger) *REPL {
	if log == nil {
		log = logging.Nop()
	}
	return &REPL{dir: dir, checker: checker, dispatcher: dispatcher, prefix: prefix, log: log}
}

func (r *REPL) status() string {
	s := ""
	if r.user.ID != "" {
		s = r.user.DisplayName
	}
	if r.tenant != "" {
		if name, ok := r.dir.TenantName(r.tenant); ok {
			s = s + "@" + name
		} else {
			s = s + "@" + string(r.tenant)
		}
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Run reads lines from scanner until EOF or an exit command. Meta
// commands (tenant, user, join, leave, sudo, …) drive the simulated
// host; lines starting with the command prefix go to the cogs. Handler
// errors are logged, not fatal: the loop stays up.
func (r *REPL) Run(ctx context.Context, scanner *bufio.Scanner) {
	printlnFn("cogvault console host (type 'help' for commands)")

	for {
		fmt.Printf("botd %s> ", r.status())
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd := fields[0]
		args := fields[1:]

		if strings.HasPrefix(cmd, r.prefix) {
			r.dispatch(ctx, cmd, args)
			continue
		}

		switch cmd {
		case "help":
			printlnFn("Host commands: tenants, tenant <id>, user <id> [name], join <id> <name>, leave <id>, addtenant <id> <name>, droptenant <id>, sudo, unsudo, exit")
			printlnFn(fmt.Sprintf("Cog commands start with %q, e.g. %sbank register", r.prefix, r.prefix))

		case "tenants":
			for _, id := range r.dir.Tenants() {
				name, _ := r.dir.TenantName(id)
				printlnFn(fmt.Sprintf("  %s (%s)", id, name))
			}

		case "addtenant":
			if len(args) < 2 {
				printlnFn("Usage: addtenant <id> <name>")
				continue
			}
			if r.user.ID == "" {
				printlnFn("Pick a user first: user <id> [name]")
				continue
			}
			r.dir.AddTenant(vault.TenantID(args[0]), args[1], r.user.ID, r.user.DisplayName)
			r.tenant = vault.TenantID(args[0])

		case "droptenant":
			if len(args) < 1 {
				printlnFn("Usage: droptenant <id>")
				continue
			}
			r.dir.RemoveTenant(vault.TenantID(args[0]))

		case "tenant":
			if len(args) < 1 {
				printlnFn("Usage: tenant <id>")
				continue
			}
			r.tenant = vault.TenantID(args[0])

		case "user":
			if len(args) < 1 {
				printlnFn("Usage: user <id> [name]")
				continue
			}
			id := vault.PrincipalID(args[0])
			name := args[0]
			if len(args) > 1 {
				name = args[1]
			}
			if r.tenant != "" {
				r.dir.Join(r.tenant, id, name)
			}
			r.user = host.Member{ID: id, DisplayName: name}

		case "join":
			if len(args) < 2 || r.tenant == "" {
				printlnFn("Usage (with a tenant selected): join <id> <name>")
				continue
			}
			r.dir.Join(r.tenant, vault.PrincipalID(args[0]), args[1])

		case "leave":
			if len(args) < 1 || r.tenant == "" {
				printlnFn("Usage (with a tenant selected): leave <id>")
				continue
			}
			r.dir.Leave(r.tenant, vault.PrincipalID(args[0]))

		case "sudo":
			if err := r.checker.Elevate(r.user.ID); err != nil {
				printlnFn("sudo failed:", err.Error())
			} else {
				printlnFn("You now have admin rights for this session.")
			}

		case "unsudo":
			r.checker.Drop(r.user.ID)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func (r *REPL) dispatch(ctx context.Context, cmd string, args []string) {
	if r.tenant == "" || r.user.ID == "" {
		printlnFn("Select a tenant and user first (tenant <id>, user <id>).")
		return
	}
	if _, ok := r.dir.MemberName(r.tenant, r.user.ID); !ok {
		printlnFn("Current user is not a member of this tenant (join first).")
		return
	}

	fields := append([]string{strings.TrimPrefix(cmd, r.prefix)}, args...)
	inv := &host.Invocation{Tenant: r.tenant, Author: r.user, Prefix: r.prefix}
	if err := r.dispatcher.Dispatch(ctx, inv, fields); err != nil {
		r.log.Error(ctx, "command error", "line", strings.Join(fields, " "), "err", err)
		printlnFn("Command failed:", err.Error())
	}
}
