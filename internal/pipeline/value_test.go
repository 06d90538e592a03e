package pipeline

import (
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"vantetider/internal"
)

func TestParseValue(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  internal.Value
	}{
		{name: "percent with decimal comma", input: "12,5%", want: internal.Number(12.5)},
		{name: "dash sentinel with space", input: "- ", want: internal.Sentinel("-")},
		{name: "empty", input: "", want: internal.Null()},
		{name: "whitespace only", input: " \n ", want: internal.Null()},
		{name: "thousand separator", input: "1 234", want: internal.Number(1234)},
		{name: "nbsp thousand separator", input: "12\u00a0345", want: internal.Number(12345)},
		{name: "unit suffix", input: "17 st", want: internal.Number(17)},
		{name: "did not participate", input: "Ej deltagit", want: internal.Sentinel(internal.SentinelDidNotParticipate)},
		{name: "not applicable", input: "N/A", want: internal.Sentinel(internal.SentinelNotApplicable)},
		{name: "negative", input: "-3,0", want: internal.Number(-3)},
		{name: "integer", input: "42", want: internal.Number(42)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseValue(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseValueRejectsUnknownText(t *testing.T) {
	for _, input := range []string{"Blekinge", "NaN", "Inf", "0x10", "1.2.3"} {
		_, err := ParseValue(input)
		var parseErr *CellParseError
		require.True(t, errors.As(err, &parseErr), "input %q: %v", input, err)
		require.Equal(t, input, parseErr.Raw)
	}
}

func TestParseValueIdempotentOnNumbers(t *testing.T) {
	for _, input := range []string{"12,5%", "1 234", "0,001", "99 st", "-7"} {
		first, err := ParseValue(input)
		require.NoError(t, err)
		require.Equal(t, internal.ValueNumber, first.Kind)

		again, err := ParseValue(strconv.FormatFloat(first.Number, 'f', -1, 64))
		require.NoError(t, err)
		require.Equal(t, first, again)

		again, err = ParseValue(first.String())
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}
