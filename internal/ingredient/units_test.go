package ingredient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func toMetric(t *testing.T, name string, qty float64, unit string) (float64, string) {
	t.Helper()
	q, u := ToMetric(name, &qty, &unit)
	require.NotNil(t, q)
	require.NotNil(t, u)
	return *q, *u
}

func TestToMetric_KgAndLScaleUnconditionally(t *testing.T) {
	t.Parallel()

	q, u := toMetric(t, "beef mince", 1.5, "kg")
	require.Equal(t, 1500.0, q)
	require.Equal(t, "g", u)

	q, u = toMetric(t, "milk", 2, "l")
	require.Equal(t, 2000.0, q)
	require.Equal(t, "ml", u)
}

func TestToMetric_LiquidVolumesBecomeML(t *testing.T) {
	t.Parallel()

	q, u := toMetric(t, "milk", 1, "cup")
	require.Equal(t, 240.0, q)
	require.Equal(t, "ml", u)

	q, u = toMetric(t, "olive oil", 2, "tbsp")
	require.Equal(t, 30.0, q)
	require.Equal(t, "ml", u)

	q, u = toMetric(t, "vegetable stock", 1, "tsp")
	require.Equal(t, 5.0, q)
	require.Equal(t, "ml", u)
}

func TestToMetric_DryVolumesUseDensity(t *testing.T) {
	t.Parallel()

	q, u := toMetric(t, "flour", 1, "cup")
	require.InDelta(t, 240*0.53, q, 1e-9)
	require.Equal(t, "g", u)

	q, u = toMetric(t, "rolled oats", 2, "cup")
	require.InDelta(t, 480*0.36, q, 1e-9)
	require.Equal(t, "g", u)
}

func TestToMetric_AmbiguousVolumeLeftAlone(t *testing.T) {
	t.Parallel()

	q, u := toMetric(t, "chopped walnut", 1, "cup")
	require.Equal(t, 1.0, q)
	require.Equal(t, "cup", u)
}

func TestToMetric_PlainMLWithDensityBecomesGrams(t *testing.T) {
	t.Parallel()

	q, u := toMetric(t, "sugar", 100, "ml")
	require.InDelta(t, 85.0, q, 1e-9)
	require.Equal(t, "g", u)
}

func TestToMetric_NilQuantityPassesThrough(t *testing.T) {
	t.Parallel()

	unit := "cup"
	q, u := ToMetric("flour", nil, &unit)
	require.Nil(t, q)
	require.Equal(t, "cup", *u)
}

func TestUnitClass(t *testing.T) {
	t.Parallel()

	require.Equal(t, "mass", UnitClass("kg"))
	require.Equal(t, "mass", UnitClass("oz"))
	require.Equal(t, "volume", UnitClass("cup"))
	require.Equal(t, "volume", UnitClass("ml"))
	require.Equal(t, "count", UnitClass("pcs"))
	require.Equal(t, "none", UnitClass(""))
	require.Equal(t, "other", UnitClass("pinch"))
}
