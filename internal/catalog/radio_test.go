package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRadioInputs(t *testing.T) {
	markup := `<input type="radio" value="1" id="Somatik" checked="checked"/>`
	require.Equal(t, []RadioInput{{Value: "1", Label: "Somatik", Checked: true}}, ParseRadioInputs(markup))
}

func TestParseRadioInputsMalformed(t *testing.T) {
	markup := `<input type="radio" value="0" id="Somatik" checked>
<input type="radio" value="1" id="Psykiatri"><label>Psykiatri
<input type="radio" value="0" id="Somatik">
<input type="radio" id="NoValue">
<input type="radio" value="2">`

	require.Equal(t, []RadioInput{
		{Value: "0", Label: "Somatik", Checked: true},
		{Value: "1", Label: "Psykiatri", Checked: false},
	}, ParseRadioInputs(markup))
}

func TestParseRadioInputsEmpty(t *testing.T) {
	require.Empty(t, ParseRadioInputs(`<select><option>1</option></select>`))
}
