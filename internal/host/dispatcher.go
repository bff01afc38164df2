package host

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/snakecogs/cogvault/internal/logging"
)

// Dispatcher routes pre-parsed command fields to registered handlers,
// enforcing each spec's permission level first. It is the only component
// that touches raw argument slices.
type Dispatcher struct {
	perms PermissionChecker
	msg   Messenger
	log   logging.Logger

	// group -> name -> spec; top-level commands live under group "".
	commands map[string]map[string]Spec
}

func NewDispatcher(perms PermissionChecker, msg Messenger, log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Dispatcher{
		perms:    perms,
		msg:      msg,
		log:      log,
		commands: make(map[string]map[string]Spec),
	}
}

// Register adds every command a cog offers. Duplicate registrations are
// a wiring bug and fail loudly.
func (d *Dispatcher) Register(cog Cog) error {
	for _, spec := range cog.Commands() {
		if spec.Handler == nil {
			return fmt.Errorf("cog %s: command %q has no handler", cog.Name(), specPath(spec))
		}
		group := d.commands[spec.Group]
		if group == nil {
			group = make(map[string]Spec)
			d.commands[spec.Group] = group
		}
		if _, ok := group[spec.Name]; ok {
			return fmt.Errorf("cog %s: command %q registered twice", cog.Name(), specPath(spec))
		}
		group[spec.Name] = spec
	}
	return nil
}

// Dispatch resolves fields into a command and runs it. fields[0] is the
// group or a top-level command name; the rest are the handler's args.
// Unknown commands and permission denials are reported to the user, not
// returned as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, inv *Invocation, fields []string) error {
	if len(fields) == 0 {
		return nil
	}

	head := strings.ToLower(fields[0])

	if group, ok := d.commands[head]; ok {
		if len(fields) == 1 {
			return d.msg.Whisper(ctx, d.GroupHelp(head))
		}
		sub := strings.ToLower(fields[1])
		spec, ok := group[sub]
		if !ok {
			return d.msg.Say(ctx, fmt.Sprintf("Unknown command: %s %s", head, sub))
		}
		return d.run(ctx, spec, inv, fields[2:])
	}

	if spec, ok := d.commands[""][head]; ok {
		return d.run(ctx, spec, inv, fields[1:])
	}

	return d.msg.Say(ctx, "Unknown command: "+head)
}

func (d *Dispatcher) run(ctx context.Context, spec Spec, inv *Invocation, args []string) error {
	if !d.perms.Allows(inv.Tenant, inv.Author.ID, spec.Permission) {
		d.log.Warn(ctx, "permission denied",
			"command", specPath(spec), "principal", string(inv.Author.ID), "needs", spec.Permission.String())
		return d.msg.Say(ctx, "You don't have permission to do that.")
	}

	inv.Args = args
	if err := spec.Handler(ctx, inv); err != nil {
		d.log.Error(ctx, "command failed",
			"command", specPath(spec), "principal", string(inv.Author.ID), "err", err)
		return err
	}
	return nil
}

// GroupHelp renders the command list for a group, or for the top-level
// commands when group is empty.
func (d *Dispatcher) GroupHelp(group string) string {
	specs := d.commands[group]
	if len(specs) == 0 {
		return "No such command group: " + group
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	if group == "" {
		b.WriteString("Commands:\n")
	} else {
		fmt.Fprintf(&b, "%s commands:\n", group)
	}
	for _, name := range names {
		spec := specs[name]
		usage := spec.Usage
		if usage == "" {
			usage = specPath(spec)
		}
		fmt.Fprintf(&b, "  %-28s %s\n", usage, spec.Help)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Groups returns the registered group names, sorted, with "" first when
// top-level commands exist.
func (d *Dispatcher) Groups() []string {
	groups := make([]string, 0, len(d.commands))
	for g := range d.commands {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

func specPath(spec Spec) string {
	if spec.Group == "" {
		return spec.Name
	}
	return spec.Group + " " + spec.Name
}
