package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vantetider/internal"
)

func TestCurrentSelection(t *testing.T) {
	dims := testDimensions(t)
	result := mustDoc(t, datasetForm("2017", "1", true))

	sel, err := CurrentSelection(result, dims)
	require.NoError(t, err)

	require.Equal(t, internal.DimensionValue{ID: "0", Label: "Alla landsting"}, sel["region"])
	require.Equal(t, internal.DimensionValue{ID: "2017", Label: "2017"}, sel["year"])
	require.Equal(t, "Januari", sel.Label("period"))
	require.Equal(t, internal.DimensionValue{ID: "1", Label: "Psykiatri"}, sel["type_of_overbelaggning"])
	require.Equal(t, "true", sel.Label("gender"))
	_, hasMeasure := sel["measure"]
	require.False(t, hasMeasure)
}

func TestCurrentSelectionUncheckedBox(t *testing.T) {
	sel, err := CurrentSelection(mustDoc(t, datasetForm("2016", "0", false)), testDimensions(t))
	require.NoError(t, err)
	require.Equal(t, "false", sel.Label("gender"))
	require.Equal(t, "Somatik", sel.Label("type_of_overbelaggning"))
}

func TestCurrentSelectionMissingElement(t *testing.T) {
	_, err := CurrentSelection(mustDoc(t, `<html><body><select name="select_region"></select></body></html>`), testDimensions(t))
	require.Error(t, err)
}
