package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func noop(*Context) Result { return Activated("noop") }

func TestRegistry_DuplicatePictoFails(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	require.NoError(t, reg.RegisterPictoEffect("Second Chance", HandlerFunc(noop)))

	err := reg.RegisterPictoEffect("second chance", HandlerFunc(noop))
	assert.ErrorIs(t, err, ErrDuplicateHandler)
}

func TestRegistry_DuplicateWeaponLevelFails(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	require.NoError(t, reg.RegisterWeaponPassive("Lanceram", 4, HandlerFunc(noop)))
	require.NoError(t, reg.RegisterWeaponPassive("Lanceram", 10, HandlerFunc(noop)))

	assert.ErrorIs(t, reg.RegisterWeaponPassive("LANCERAM", 10, HandlerFunc(noop)), ErrDuplicateHandler)
	assert.Equal(t, []int{4, 10}, reg.WeaponLevels("lanceram"))
}

func TestRegistry_SealedRejectsRegistration(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Seal()
	assert.True(t, reg.Sealed())
	assert.ErrorIs(t, reg.RegisterPictoEffect("Recovery", HandlerFunc(noop)), ErrRegistrySealed)
	assert.ErrorIs(t, reg.RegisterWeaponPassive("Noahram", 4, HandlerFunc(noop)), ErrRegistrySealed)
}

func TestRegistry_FirstDispatchSeals(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	d := NewDispatcher(reg, zap.NewNop())
	d.Dispatch(newRequest(TriggerTurnStart))
	assert.ErrorIs(t, reg.RegisterPictoEffect("Late", HandlerFunc(noop)), ErrRegistrySealed)
}

func TestRegistry_RejectsBadInput(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	assert.Error(t, reg.RegisterPictoEffect("x", nil))
	assert.Error(t, reg.RegisterWeaponPassive("x", 0, HandlerFunc(noop)))
}

func TestNormalizeKey(t *testing.T) {
	// Precomposed vs decomposed û.
	assert.Equal(t, NormalizeKey("Anti-Br\u00fblure"), NormalizeKey("anti-bru\u0302lure"))
	assert.Equal(t, "augmented attack", NormalizeKey("  Augmented Attack "))
}

func TestRegistry_Listing(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	require.NoError(t, reg.RegisterPictoEffect("Recovery", HandlerFunc(noop)))
	require.NoError(t, reg.RegisterPictoEffect("Augmented Attack", HandlerFunc(noop)))
	require.NoError(t, reg.RegisterWeaponPassive("Noahram", 20, HandlerFunc(noop)))
	require.NoError(t, reg.RegisterWeaponPassive("Noahram", 4, HandlerFunc(noop)))

	assert.Equal(t, []string{"Augmented Attack", "Recovery"}, reg.PictoNames())
	assert.Equal(t, []WeaponKey{{"noahram", 4}, {"noahram", 20}}, reg.WeaponKeys())
	w, p := reg.Count()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, p)
	assert.True(t, reg.HasWeapon("NOAHRAM"))
	assert.False(t, reg.HasWeapon("Lanceram"))
}
