// Package armorsmith is the inventory cog: one stash account per
// principal holding named items, an item shop backed by a hot-reloaded
// catalog file, and purchases settled through the bank.
package armorsmith

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Kind partitions catalog items. Each kind carries one extra stat.
type Kind string

const (
	KindWeapon Kind = "weapon"
	KindArmor  Kind = "armor"
	KindPotion Kind = "potion"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrBadDice      = errors.New(`dice must be "XdY"`)
)

// randIntn is a test seam for dice rolls.
var randIntn = rand.Intn

// Item is one catalog entry. Only the stat matching Kind is set.
type Item struct {
	Kind            Kind   `json:"kind"`
	Name            string `json:"name"`
	Cost            int64  `json:"cost"`
	HitDice         string `json:"hit_dice,omitempty"`
	DamageReduction int    `json:"damage_reduction,omitempty"`
	HealDice        string `json:"heal_dice,omitempty"`
}

// RollDice evaluates "XdY" notation: the sum of X rolls of a Y-sided
// die. "2d6" rolls two six-sided dice.
func RollDice(dice string) (int, error) {
	count, sides, ok := strings.Cut(dice, "d")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadDice, dice)
	}
	rolls, err := strconv.Atoi(count)
	if err != nil || rolls < 1 {
		return 0, fmt.Errorf("%w: %q", ErrBadDice, dice)
	}
	faces, err := strconv.Atoi(sides)
	if err != nil || faces < 1 {
		return 0, fmt.Errorf("%w: %q", ErrBadDice, dice)
	}

	total := 0
	for i := 0; i < rolls; i++ {
		total += randIntn(faces) + 1
	}
	return total, nil
}

// DamageRoll rolls the weapon's hit dice.
func (i Item) DamageRoll() (int, error) {
	if i.Kind != KindWeapon {
		return 0, fmt.Errorf("%s is not a weapon", i.Name)
	}
	return RollDice(i.HitDice)
}

// BlockDamage applies the armor's damage reduction, never below zero.
func (i Item) BlockDamage(damage int) int {
	blocked := damage - i.DamageReduction
	if blocked < 0 {
		return 0
	}
	return blocked
}

// HealingRoll rolls the potion's heal dice.
func (i Item) HealingRoll() (int, error) {
	if i.Kind != KindPotion {
		return 0, fmt.Errorf("%s is not a potion", i.Name)
	}
	return RollDice(i.HealDice)
}

// Describe renders the item with its cost and kind-specific stat.
func (i Item) Describe() string {
	switch i.Kind {
	case KindWeapon:
		return fmt.Sprintf("%s (%d credits, %s hit)", i.Name, i.Cost, i.HitDice)
	case KindArmor:
		return fmt.Sprintf("%s (%d credits, -%d damage)", i.Name, i.Cost, i.DamageReduction)
	case KindPotion:
		return fmt.Sprintf("%s (%d credits, heals %s)", i.Name, i.Cost, i.HealDice)
	default:
		return fmt.Sprintf("%s (%d credits)", i.Name, i.Cost)
	}
}
