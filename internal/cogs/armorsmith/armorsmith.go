package armorsmith

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/snakecogs/cogvault/internal/cogs/bank"
	"github.com/snakecogs/cogvault/internal/host"
	"github.com/snakecogs/cogvault/internal/logging"
	"github.com/snakecogs/cogvault/internal/vault"
)

// Cog wires the inventory and store commands into the host. Purchases
// settle money through the bank service; the armorsmith never touches
// wallets directly.
type Cog struct {
	svc      *Service
	catalog  *Catalog
	bank     *bank.Service
	resolver host.IdentityResolver
	msg      host.Messenger
	log      logging.Logger
}

func NewCog(svc *Service, catalog *Catalog, bankSvc *bank.Service, resolver host.IdentityResolver, msg host.Messenger, log logging.Logger) *Cog {
	if log == nil {
		log = logging.Nop()
	}
	return &Cog{
		svc:      svc,
		catalog:  catalog,
		bank:     bankSvc,
		resolver: resolver,
		msg:      msg,
		log:      log.With("cog", "armorsmith"),
	}
}

func (c *Cog) Name() string { return "armorsmith" }

func (c *Cog) Commands() []host.Spec {
	return []host.Spec{
		{Group: "inventory", Name: "register", Usage: "inventory register", Help: "open a stash with the armorsmith", Handler: c.register},
		{Group: "inventory", Name: "stash", Usage: "inventory stash [user]", Help: "show a stash (defaults to yours)", Handler: c.stash},
		{Group: "inventory", Name: "transfer", Usage: "inventory transfer <user> <item>", Help: "transfer an item to another user", Handler: c.transfer},
		{Group: "inventory", Name: "give", Usage: "inventory give <user> <item>", Help: "give a catalog item to a user", Permission: host.PermAdmin, Handler: c.give},
		{Group: "inventory", Name: "reset", Usage: "inventory reset [yes]", Help: "delete all stash accounts of this server", Permission: host.PermOwner, Handler: c.reset},

		{Group: "store", Name: "list", Usage: "store list", Help: "list items for purchase", Handler: c.storeList},
		{Group: "store", Name: "buy", Usage: "store buy <item>", Help: "buy an item for yourself", Handler: c.buy},
	}
}

func (c *Cog) register(ctx context.Context, inv *host.Invocation) error {
	_, err := c.svc.Open(inv.Tenant, inv.Author.ID)
	if errors.Is(err, vault.ErrAccountExists) {
		return c.msg.Say(ctx, fmt.Sprintf("%s You already have a stash with the armorsmith.", inv.Author.DisplayName))
	}
	if err != nil {
		return err
	}
	return c.msg.Say(ctx, fmt.Sprintf("%s Stash opened.", inv.Author.DisplayName))
}

func (c *Cog) stash(ctx context.Context, inv *host.Invocation) error {
	if len(inv.Args) == 0 {
		items, err := c.svc.Items(inv.Tenant, inv.Author.ID)
		if vault.IsNoAccount(err) {
			return c.msg.Say(ctx, fmt.Sprintf("%s You don't have a stash with the armorsmith. Type `%sinventory register` to open one.",
				inv.Author.DisplayName, inv.Prefix))
		}
		if err != nil {
			return err
		}
		return c.msg.Say(ctx, fmt.Sprintf("%s Your stash contains: %s", inv.Author.DisplayName, describeItems(items)))
	}

	member, ok := c.resolver.LookupMember(inv.Tenant, inv.Args[0])
	if !ok {
		return c.msg.Say(ctx, "No such member: "+inv.Args[0])
	}
	items, err := c.svc.Items(inv.Tenant, member.ID)
	if vault.IsNoAccount(err) {
		return c.msg.Say(ctx, "That user has no stash account.")
	}
	if err != nil {
		return err
	}
	return c.msg.Say(ctx, fmt.Sprintf("%s's stash contains: %s", member.DisplayName, describeItems(items)))
}

func (c *Cog) transfer(ctx context.Context, inv *host.Invocation) error {
	if len(inv.Args) < 2 {
		return c.msg.Say(ctx, fmt.Sprintf("Usage: %sinventory transfer <user> <item>", inv.Prefix))
	}
	member, ok := c.resolver.LookupMember(inv.Tenant, inv.Args[0])
	if !ok {
		return c.msg.Say(ctx, "No such member: "+inv.Args[0])
	}
	itemName := strings.Join(inv.Args[1:], " ")

	err := c.svc.TransferItem(ctx, inv.Tenant, inv.Author.ID, member.ID, itemName)
	switch {
	case errors.Is(err, vault.ErrSameSenderAndReceiver):
		return c.msg.Say(ctx, "You can't transfer to yourself.")
	case errors.Is(err, ErrItemNotFound):
		return c.msg.Say(ctx, "Item was not found in your stash.")
	case vault.IsNoAccount(err):
		return c.msg.Say(ctx, "That user has no stash account.")
	case err != nil:
		return err
	}

	c.log.Info(ctx, "item transferred",
		"from", string(inv.Author.ID), "to", string(member.ID), "item", itemName)
	return c.msg.Say(ctx, fmt.Sprintf("%s has been transferred to %s's stash.", itemName, member.DisplayName))
}

func (c *Cog) give(ctx context.Context, inv *host.Invocation) error {
	if len(inv.Args) < 2 {
		return c.msg.Say(ctx, fmt.Sprintf("Usage: %sinventory give <user> <item>", inv.Prefix))
	}
	member, ok := c.resolver.LookupMember(inv.Tenant, inv.Args[0])
	if !ok {
		return c.msg.Say(ctx, "No such member: "+inv.Args[0])
	}

	item, err := c.catalog.ItemByName(strings.Join(inv.Args[1:], " "))
	if errors.Is(err, ErrItemNotFound) {
		return c.msg.Say(ctx, "Item name does not exist.")
	}
	if err != nil {
		return err
	}

	if err := c.svc.GiveItem(ctx, inv.Tenant, member.ID, item); err != nil {
		if vault.IsNoAccount(err) {
			return c.msg.Say(ctx, "That user has no stash account.")
		}
		return err
	}
	c.log.Info(ctx, "item granted",
		"admin", string(inv.Author.ID), "user", string(member.ID), "item", item.Name)
	return c.msg.Say(ctx, fmt.Sprintf("%s has been given to %s.", item.Name, member.DisplayName))
}

func (c *Cog) reset(ctx context.Context, inv *host.Invocation) error {
	if len(inv.Args) == 0 || !strings.EqualFold(inv.Args[0], "yes") {
		return c.msg.Say(ctx, fmt.Sprintf("This will delete all stash accounts on this server.\nIf you're sure, type %sinventory reset yes", inv.Prefix))
	}
	if err := c.svc.WipeTenant(inv.Tenant); err != nil {
		return err
	}
	c.log.Info(ctx, "stashes wiped", "tenant", string(inv.Tenant), "by", string(inv.Author.ID))
	return c.msg.Say(ctx, "All stash accounts of this server have been deleted.")
}

func (c *Cog) storeList(ctx context.Context, _ *host.Invocation) error {
	return c.msg.Whisper(ctx, c.catalog.Render())
}

func (c *Cog) buy(ctx context.Context, inv *host.Invocation) error {
	if len(inv.Args) < 1 {
		return c.msg.Say(ctx, fmt.Sprintf("Usage: %sstore buy <item>", inv.Prefix))
	}

	item, err := c.catalog.ItemByName(strings.Join(inv.Args, " "))
	if errors.Is(err, ErrItemNotFound) {
		return c.msg.Say(ctx, "The item specified does not exist.")
	}
	if err != nil {
		return err
	}

	if !c.svc.HasAccount(inv.Tenant, inv.Author.ID) {
		return c.msg.Say(ctx, fmt.Sprintf("You do not have a stash. Type `%sinventory register` before buying.", inv.Prefix))
	}

	err = c.bank.Withdraw(ctx, inv.Tenant, inv.Author.ID, item.Cost)
	switch {
	case errors.Is(err, bank.ErrInsufficientBalance):
		return c.msg.Say(ctx, fmt.Sprintf("You can't afford %s. It costs %d credits.", item.Name, item.Cost))
	case vault.IsNoAccount(err):
		return c.msg.Say(ctx, "You need a bank account to buy items.")
	case err != nil:
		return err
	}

	if err := c.svc.GiveItem(ctx, inv.Tenant, inv.Author.ID, item); err != nil {
		// refund: the wallet was already debited
		if refundErr := c.bank.Deposit(ctx, inv.Tenant, inv.Author.ID, item.Cost); refundErr != nil {
			c.log.Error(ctx, "refund failed after purchase error",
				"user", string(inv.Author.ID), "item", item.Name, "err", refundErr)
		}
		return err
	}

	c.log.Info(ctx, "item purchased",
		"user", string(inv.Author.ID), "item", item.Name, "cost", item.Cost)
	return c.msg.Say(ctx, fmt.Sprintf("%s purchased for %d credits.", item.Name, item.Cost))
}

func describeItems(items []Item) string {
	if len(items) == 0 {
		return "nothing"
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return strings.Join(names, ", ")
}
