package armorsmith

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// withRolls fixes the die rolls; values are zero-based as rand.Intn
// returns them.
func withRolls(t *testing.T, rolls ...int) {
	t.Helper()
	orig := randIntn
	i := 0
	randIntn = func(n int) int {
		require.Less(t, i, len(rolls))
		v := rolls[i] % n
		i++
		return v
	}
	t.Cleanup(func() { randIntn = orig })
}

func TestRollDice(t *testing.T) {
	withRolls(t, 3, 5) // 4 + 6

	total, err := RollDice("2d6")
	require.NoError(t, err)
	require.Equal(t, 10, total)
}

func TestRollDiceBounds(t *testing.T) {
	orig := randIntn
	t.Cleanup(func() { randIntn = orig })

	var sides []int
	randIntn = func(n int) int {
		sides = append(sides, n)
		return 0
	}

	total, err := RollDice("3d8")
	require.NoError(t, err)
	require.Equal(t, 3, total) // three minimum rolls of 1
	require.Equal(t, []int{8, 8, 8}, sides)
}

func TestRollDiceRejectsMalformedNotation(t *testing.T) {
	for _, dice := range []string{"", "d6", "2d", "2x6", "0d6", "2d0", "-1d6", "ad6"} {
		_, err := RollDice(dice)
		require.ErrorIs(t, err, ErrBadDice, "dice %q", dice)
	}
}

func TestDamageRoll(t *testing.T) {
	withRolls(t, 2)
	sword := Item{Kind: KindWeapon, Name: "Shortsword", Cost: 60, HitDice: "1d6"}

	damage, err := sword.DamageRoll()
	require.NoError(t, err)
	require.Equal(t, 3, damage)

	_, err = Item{Kind: KindArmor, Name: "Shield"}.DamageRoll()
	require.Error(t, err)
}

func TestBlockDamage(t *testing.T) {
	mail := Item{Kind: KindArmor, Name: "Chain Mail", DamageReduction: 4}
	require.Equal(t, 6, mail.BlockDamage(10))
	require.Equal(t, 0, mail.BlockDamage(3)) // never negative
}

func TestHealingRoll(t *testing.T) {
	withRolls(t, 1, 1)
	potion := Item{Kind: KindPotion, Name: "Salve", HealDice: "2d4"}

	healed, err := potion.HealingRoll()
	require.NoError(t, err)
	require.Equal(t, 4, healed)

	_, err = Item{Kind: KindWeapon, Name: "Axe"}.HealingRoll()
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		item Item
		want string
	}{
		{Item{Kind: KindWeapon, Name: "Shortsword", Cost: 60, HitDice: "1d6"}, "Shortsword (60 credits, 1d6 hit)"},
		{Item{Kind: KindArmor, Name: "Chain Mail", Cost: 75, DamageReduction: 4}, "Chain Mail (75 credits, -4 damage)"},
		{Item{Kind: KindPotion, Name: "Salve", Cost: 25, HealDice: "2d4"}, "Salve (25 credits, heals 2d4)"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.item.Describe())
	}
}
