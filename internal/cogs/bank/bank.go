package bank

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/snakecogs/cogvault/internal/host"
	"github.com/snakecogs/cogvault/internal/logging"
	"github.com/snakecogs/cogvault/internal/vault"
)

// nowFn is a test seam for cooldown arithmetic.
var nowFn = time.Now

// Cog wires the bank commands into the host. Cooldown registers are
// in-memory only; restarting the host resets payday and slot timers,
// which matches the original behavior.
type Cog struct {
	svc      *Service
	settings *SettingsStore
	resolver host.IdentityResolver
	msg      host.Messenger
	log      logging.Logger

	paydayLast map[vault.TenantID]map[vault.PrincipalID]time.Time
	slotLast   map[vault.TenantID]map[vault.PrincipalID]time.Time
}

func NewCog(svc *Service, settings *SettingsStore, resolver host.IdentityResolver, msg host.Messenger, log logging.Logger) *Cog {
	if log == nil {
		log = logging.Nop()
	}
	return &Cog{
		svc:        svc,
		settings:   settings,
		resolver:   resolver,
		msg:        msg,
		log:        log.With("cog", "bank"),
		paydayLast: make(map[vault.TenantID]map[vault.PrincipalID]time.Time),
		slotLast:   make(map[vault.TenantID]map[vault.PrincipalID]time.Time),
	}
}

func (c *Cog) Name() string { return "bank" }

func (c *Cog) Commands() []host.Spec {
	return []host.Spec{
		{Group: "bank", Name: "register", Usage: "bank register", Help: "open a bank account", Handler: c.register},
		{Group: "bank", Name: "balance", Usage: "bank balance [user]", Help: "show a balance (defaults to yours)", Handler: c.balance},
		{Group: "bank", Name: "transfer", Usage: "bank transfer <user> <amount>", Help: "transfer credits to another user", Handler: c.transfer},
		{Group: "bank", Name: "set", Usage: "bank set <user> <N|+N|-N>", Help: "set, add or remove credits", Permission: host.PermAdmin, Handler: c.set},
		{Group: "bank", Name: "reset", Usage: "bank reset [yes]", Help: "delete all bank accounts of this server", Permission: host.PermOwner, Handler: c.reset},

		{Name: "payday", Usage: "payday", Help: "collect free credits", Handler: c.payday},
		{Name: "slot", Usage: "slot <bid>", Help: "play the slot machine", Handler: c.slot},
		{Name: "payouts", Usage: "payouts", Help: "show slot machine payouts", Handler: c.payouts},

		{Group: "leaderboard", Name: "server", Usage: "leaderboard server [top]", Help: "richest members of this server", Handler: c.serverLeaderboard},
		{Group: "leaderboard", Name: "global", Usage: "leaderboard global [top]", Help: "richest members across all servers", Handler: c.globalLeaderboard},

		{Group: "bankset", Name: "show", Usage: "bankset show", Help: "show economy settings", Permission: host.PermAdmin, Handler: c.settingsShow},
		{Group: "bankset", Name: "registercredits", Usage: "bankset registercredits <n>", Help: "credits given on register", Permission: host.PermAdmin, Handler: c.setRegisterCredits},
		{Group: "bankset", Name: "paydaycredits", Usage: "bankset paydaycredits <n>", Help: "credits per payday", Permission: host.PermAdmin, Handler: c.setPaydayCredits},
		{Group: "bankset", Name: "paydaytime", Usage: "bankset paydaytime <seconds>", Help: "seconds between paydays", Permission: host.PermAdmin, Handler: c.setPaydayTime},
		{Group: "bankset", Name: "slotmin", Usage: "bankset slotmin <bid>", Help: "minimum slot bid", Permission: host.PermAdmin, Handler: c.setSlotMin},
		{Group: "bankset", Name: "slotmax", Usage: "bankset slotmax <bid>", Help: "maximum slot bid", Permission: host.PermAdmin, Handler: c.setSlotMax},
		{Group: "bankset", Name: "slottime", Usage: "bankset slottime <seconds>", Help: "seconds between slot pulls", Permission: host.PermAdmin, Handler: c.setSlotTime},
	}
}

func (c *Cog) register(ctx context.Context, inv *host.Invocation) error {
	opening := c.settings.Get(inv.Tenant).RegisterCredits
	acct, err := c.svc.Open(inv.Tenant, inv.Author.ID, opening)
	if errors.Is(err, vault.ErrAccountExists) {
		return c.msg.Say(ctx, fmt.Sprintf("%s You already have an account at the bank.", inv.Author.DisplayName))
	}
	if err != nil {
		return err
	}
	return c.msg.Say(ctx, fmt.Sprintf("%s Account opened. Current balance: %d",
		inv.Author.DisplayName, acct.Storage.Balance))
}

func (c *Cog) balance(ctx context.Context, inv *host.Invocation) error {
	if len(inv.Args) == 0 {
		balance, err := c.svc.Balance(inv.Tenant, inv.Author.ID)
		if vault.IsNoAccount(err) {
			return c.msg.Say(ctx, fmt.Sprintf("%s You don't have an account at the bank. Type `%sbank register` to open one.",
				inv.Author.DisplayName, inv.Prefix))
		}
		if err != nil {
			return err
		}
		return c.msg.Say(ctx, fmt.Sprintf("%s Your balance is: %d", inv.Author.DisplayName, balance))
	}

	member, ok := c.resolver.LookupMember(inv.Tenant, inv.Args[0])
	if !ok {
		return c.msg.Say(ctx, "No such member: "+inv.Args[0])
	}
	balance, err := c.svc.Balance(inv.Tenant, member.ID)
	if vault.IsNoAccount(err) {
		return c.msg.Say(ctx, "That user has no bank account.")
	}
	if err != nil {
		return err
	}
	return c.msg.Say(ctx, fmt.Sprintf("%s's balance is %d", member.DisplayName, balance))
}

func (c *Cog) transfer(ctx context.Context, inv *host.Invocation) error {
	if len(inv.Args) < 2 {
		return c.msg.Say(ctx, fmt.Sprintf("Usage: %sbank transfer <user> <amount>", inv.Prefix))
	}
	member, ok := c.resolver.LookupMember(inv.Tenant, inv.Args[0])
	if !ok {
		return c.msg.Say(ctx, "No such member: "+inv.Args[0])
	}
	amount, err := strconv.ParseInt(inv.Args[1], 10, 64)
	if err != nil {
		return c.msg.Say(ctx, "The amount must be a number.")
	}

	receipt, err := c.svc.Transfer(ctx, inv.Tenant, inv.Author.ID, member.ID, amount)
	switch {
	case errors.Is(err, ErrNegativeValue):
		return c.msg.Say(ctx, "You need to transfer at least 1 credit.")
	case errors.Is(err, vault.ErrSameSenderAndReceiver):
		return c.msg.Say(ctx, "You can't transfer credits to yourself.")
	case errors.Is(err, ErrInsufficientBalance):
		return c.msg.Say(ctx, "You don't have that sum in your bank account.")
	case vault.IsNoAccount(err):
		return c.msg.Say(ctx, "That user has no bank account.")
	case err != nil:
		return err
	}

	c.log.Info(ctx, "credits transferred",
		"from", string(inv.Author.ID), "to", string(member.ID), "amount", amount, "receipt", receipt.ID)
	return c.msg.Say(ctx, fmt.Sprintf("%s have been transferred to %s's account.",
		describeAmount(amount), member.DisplayName))
}

func (c *Cog) set(ctx context.Context, inv *host.Invocation) error {
	if len(inv.Args) < 2 {
		return c.msg.Say(ctx, fmt.Sprintf("Usage: %sbank set <user> <N|+N|-N>", inv.Prefix))
	}
	member, ok := c.resolver.LookupMember(inv.Tenant, inv.Args[0])
	if !ok {
		return c.msg.Say(ctx, "No such member: "+inv.Args[0])
	}
	op, amount, err := ParseAmount(inv.Args[1])
	if err != nil {
		return c.msg.Say(ctx, err.Error())
	}

	switch op {
	case OpDeposit:
		err = c.svc.Deposit(ctx, inv.Tenant, member.ID, amount)
	case OpWithdraw:
		err = c.svc.Withdraw(ctx, inv.Tenant, member.ID, amount)
	default:
		err = c.svc.Set(inv.Tenant, member.ID, amount)
	}
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return c.msg.Say(ctx, "User doesn't have enough credits.")
	case vault.IsNoAccount(err):
		return c.msg.Say(ctx, "User has no bank account.")
	case err != nil:
		return err
	}

	c.log.Info(ctx, "balance adjusted by admin",
		"admin", string(inv.Author.ID), "user", string(member.ID), "arg", inv.Args[1])
	switch op {
	case OpDeposit:
		return c.msg.Say(ctx, fmt.Sprintf("%s have been added to %s.", describeAmount(amount), member.DisplayName))
	case OpWithdraw:
		return c.msg.Say(ctx, fmt.Sprintf("%s have been withdrawn from %s.", describeAmount(amount), member.DisplayName))
	default:
		return c.msg.Say(ctx, fmt.Sprintf("%s's credits have been set to %d.", member.DisplayName, amount))
	}
}

func (c *Cog) reset(ctx context.Context, inv *host.Invocation) error {
	if len(inv.Args) == 0 || !strings.EqualFold(inv.Args[0], "yes") {
		return c.msg.Say(ctx, fmt.Sprintf("This will delete all bank accounts on this server.\nIf you're sure, type %sbank reset yes", inv.Prefix))
	}
	if err := c.svc.WipeTenant(inv.Tenant); err != nil {
		return err
	}
	c.log.Info(ctx, "bank wiped", "tenant", string(inv.Tenant), "by", string(inv.Author.ID))
	return c.msg.Say(ctx, "All bank accounts of this server have been deleted.")
}

func (c *Cog) payday(ctx context.Context, inv *host.Invocation) error {
	if !c.svc.HasAccount(inv.Tenant, inv.Author.ID) {
		return c.msg.Say(ctx, fmt.Sprintf("%s You need an account to receive credits. Type `%sbank register` to open one.",
			inv.Author.DisplayName, inv.Prefix))
	}

	settings := c.settings.Get(inv.Tenant)
	if c.paydayLast[inv.Tenant] == nil {
		c.paydayLast[inv.Tenant] = make(map[vault.PrincipalID]time.Time)
	}

	if last, ok := c.paydayLast[inv.Tenant][inv.Author.ID]; ok {
		elapsed := nowFn().Sub(last)
		if elapsed < settings.PaydayCooldown.Duration {
			remaining := settings.PaydayCooldown.Duration - elapsed
			return c.msg.Say(ctx, fmt.Sprintf("%s Too soon. For your next payday you have to wait %s.",
				inv.Author.DisplayName, displayTime(remaining)))
		}
	}

	if err := c.svc.Deposit(ctx, inv.Tenant, inv.Author.ID, settings.PaydayCredits); err != nil {
		return err
	}
	c.paydayLast[inv.Tenant][inv.Author.ID] = nowFn()
	return c.msg.Say(ctx, fmt.Sprintf("%s Here, take some credits. Enjoy! (+%d credits!)",
		inv.Author.DisplayName, settings.PaydayCredits))
}

func (c *Cog) slot(ctx context.Context, inv *host.Invocation) error {
	if len(inv.Args) < 1 {
		return c.msg.Say(ctx, fmt.Sprintf("Usage: %sslot <bid>", inv.Prefix))
	}
	bid, err := strconv.ParseInt(inv.Args[0], 10, 64)
	if err != nil {
		return c.msg.Say(ctx, "The bid must be a number.")
	}

	err = c.playSlot(ctx, inv, bid)
	settings := c.settings.Get(inv.Tenant)
	switch {
	case vault.IsNoAccount(err):
		return c.msg.Say(ctx, fmt.Sprintf("%s You need an account to use the slot machine. Type `%sbank register` to open one.",
			inv.Author.DisplayName, inv.Prefix))
	case errors.Is(err, ErrInsufficientBalance):
		return c.msg.Say(ctx, fmt.Sprintf("%s You need an account with enough funds to play the slot machine.", inv.Author.DisplayName))
	case errors.Is(err, ErrOnCooldown):
		return c.msg.Say(ctx, fmt.Sprintf("Slot machine is still cooling off! Wait %s between each pull.",
			displayTime(settings.SlotCooldown.Duration)))
	case errors.Is(err, ErrInvalidBid):
		return c.msg.Say(ctx, fmt.Sprintf("Bid must be between %d and %d.", settings.SlotMin, settings.SlotMax))
	}
	return err
}

func (c *Cog) playSlot(ctx context.Context, inv *host.Invocation, bid int64) error {
	settings := c.settings.Get(inv.Tenant)

	if !c.svc.HasAccount(inv.Tenant, inv.Author.ID) {
		return fmt.Errorf("slot: %w", vault.ErrNoAccount)
	}
	if c.slotLast[inv.Tenant] == nil {
		c.slotLast[inv.Tenant] = make(map[vault.PrincipalID]time.Time)
	}
	if last, ok := c.slotLast[inv.Tenant][inv.Author.ID]; ok {
		if nowFn().Sub(last) < settings.SlotCooldown.Duration {
			return ErrOnCooldown
		}
	}
	if bid < settings.SlotMin || bid > settings.SlotMax {
		return ErrInvalidBid
	}
	if !c.svc.CanSpend(inv.Tenant, inv.Author.ID, bid) {
		return ErrInsufficientBalance
	}

	c.slotLast[inv.Tenant][inv.Author.ID] = nowFn()
	result := spin(bid)

	then, err := c.svc.Balance(inv.Tenant, inv.Author.ID)
	if err != nil {
		return err
	}

	if result.Payout > 0 {
		now := then - bid + result.Payout
		if err := c.svc.Set(inv.Tenant, inv.Author.ID, now); err != nil {
			return err
		}
		return c.msg.Say(ctx, fmt.Sprintf("%s\n%s %s\n\nYour bid: %d\n%d → %d!",
			result.Display, inv.Author.DisplayName, result.Phrase, bid, then, now))
	}

	if err := c.svc.Withdraw(ctx, inv.Tenant, inv.Author.ID, bid); err != nil {
		return err
	}
	return c.msg.Say(ctx, fmt.Sprintf("%s\n%s Nothing!\nYour bid: %d\n%d → %d!",
		result.Display, inv.Author.DisplayName, bid, then, then-bid))
}

func (c *Cog) payouts(ctx context.Context, _ *host.Invocation) error {
	return c.msg.Whisper(ctx, PayoutTable())
}

func (c *Cog) serverLeaderboard(ctx context.Context, inv *host.Invocation) error {
	top := parseTop(inv.Args)
	accounts, err := c.svc.TenantAccounts(inv.Tenant)
	if err != nil {
		return err
	}

	ranked := vault.Ranked(accounts, func(a vault.Resolved[Wallet]) int64 { return a.Storage.Balance }, true)
	present := make([]vault.Resolved[Wallet], 0, len(ranked))
	for _, acct := range ranked {
		if acct.Member != "" { // exclude users who left
			present = append(present, acct)
		}
	}
	return c.sendLeaderboard(ctx, present, top, false)
}

func (c *Cog) globalLeaderboard(ctx context.Context, inv *host.Invocation) error {
	top := parseTop(inv.Args)
	accounts, err := c.svc.AllAccounts()
	if err != nil {
		return err
	}

	ranked := vault.Ranked(accounts, func(a vault.Resolved[Wallet]) int64 { return a.Storage.Balance }, true)
	present := make([]vault.Resolved[Wallet], 0, len(ranked))
	for _, acct := range ranked {
		if acct.Member != "" {
			present = append(present, acct)
		}
	}
	return c.sendLeaderboard(ctx, vault.DedupByPrincipal(present), top, true)
}

func (c *Cog) sendLeaderboard(ctx context.Context, accounts []vault.Resolved[Wallet], top int, global bool) error {
	if len(accounts) == 0 {
		return c.msg.Say(ctx, "There are no accounts in the bank.")
	}
	if top > len(accounts) {
		top = len(accounts)
	}

	var b strings.Builder
	for place, acct := range accounts[:top] {
		name := acct.Member
		if global {
			name = fmt.Sprintf("%s |%s|", acct.Member, acct.Tenant)
		}
		fmt.Fprintf(&b, "%-3d %-24s %d\n", place+1, name, acct.Storage.Balance)
	}
	return c.msg.Say(ctx, strings.TrimRight(b.String(), "\n"))
}

func parseTop(args []string) int {
	top := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n >= 1 {
			top = n
		}
	}
	return top
}

func (c *Cog) settingsShow(ctx context.Context, inv *host.Invocation) error {
	s := c.settings.Get(inv.Tenant)
	text := fmt.Sprintf(
		"register_credits: %d\npayday_credits: %d\npayday_cooldown: %s\nslot_min: %d\nslot_max: %d\nslot_cooldown: %s",
		s.RegisterCredits, s.PaydayCredits, s.PaydayCooldown.Duration, s.SlotMin, s.SlotMax, s.SlotCooldown.Duration)
	return c.msg.Whisper(ctx, text)
}

func (c *Cog) updateSetting(ctx context.Context, inv *host.Invocation, usage string, apply func(*Settings, int64), done func(int64) string) error {
	if len(inv.Args) < 1 {
		return c.msg.Say(ctx, "Usage: "+inv.Prefix+usage)
	}
	n, err := strconv.ParseInt(inv.Args[0], 10, 64)
	if err != nil || n < 0 {
		return c.msg.Say(ctx, "The value must be a non-negative number.")
	}
	if err := c.settings.Update(inv.Tenant, func(s *Settings) { apply(s, n) }); err != nil {
		return err
	}
	return c.msg.Say(ctx, done(n))
}

func (c *Cog) setRegisterCredits(ctx context.Context, inv *host.Invocation) error {
	return c.updateSetting(ctx, inv, "bankset registercredits <n>",
		func(s *Settings, n int64) { s.RegisterCredits = n },
		func(n int64) string { return fmt.Sprintf("Registering an account will now give %d credits.", n) })
}

func (c *Cog) setPaydayCredits(ctx context.Context, inv *host.Invocation) error {
	return c.updateSetting(ctx, inv, "bankset paydaycredits <n>",
		func(s *Settings, n int64) { s.PaydayCredits = n },
		func(n int64) string { return fmt.Sprintf("Every payday will now give %d credits.", n) })
}

func (c *Cog) setPaydayTime(ctx context.Context, inv *host.Invocation) error {
	return c.updateSetting(ctx, inv, "bankset paydaytime <seconds>",
		func(s *Settings, n int64) { s.PaydayCooldown.Duration = time.Duration(n) * time.Second },
		func(n int64) string {
			return fmt.Sprintf("Value modified. At least %d seconds must pass between each payday.", n)
		})
}

func (c *Cog) setSlotMin(ctx context.Context, inv *host.Invocation) error {
	return c.updateSetting(ctx, inv, "bankset slotmin <bid>",
		func(s *Settings, n int64) { s.SlotMin = n },
		func(n int64) string { return fmt.Sprintf("Minimum bid is now %d credits.", n) })
}

func (c *Cog) setSlotMax(ctx context.Context, inv *host.Invocation) error {
	return c.updateSetting(ctx, inv, "bankset slotmax <bid>",
		func(s *Settings, n int64) { s.SlotMax = n },
		func(n int64) string { return fmt.Sprintf("Maximum bid is now %d credits.", n) })
}

func (c *Cog) setSlotTime(ctx context.Context, inv *host.Invocation) error {
	return c.updateSetting(ctx, inv, "bankset slottime <seconds>",
		func(s *Settings, n int64) { s.SlotCooldown.Duration = time.Duration(n) * time.Second },
		func(n int64) string { return fmt.Sprintf("Cooldown is now %d seconds.", n) })
}

// displayTime renders a duration like "5 minutes, 30 seconds", keeping
// the two most significant units.
func displayTime(d time.Duration) string {
	seconds := int64(d.Seconds())
	intervals := []struct {
		name  string
		count int64
	}{
		{"week", 604800},
		{"day", 86400},
		{"hour", 3600},
		{"minute", 60},
		{"second", 1},
	}

	var parts []string
	for _, iv := range intervals {
		value := seconds / iv.count
		if value == 0 {
			continue
		}
		seconds -= value * iv.count
		name := iv.name
		if value != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", value, name))
		if len(parts) == 2 {
			break
		}
	}
	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, ", ")
}
