package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	query, err := buildQuery(
		[]string{"Gotland", "Skåne"},
		[]string{"2024"},
		nil,
		[]string{"gender=Kvinnor", " age = 0-17"},
	)
	require.NoError(t, err)
	require.Equal(t, map[string][]string{
		"region": {"Gotland", "Skåne"},
		"year":   {"2024"},
		"gender": {"Kvinnor"},
		"age":    {"0-17"},
	}, query)
}

func TestBuildQueryRejectsMalformedSet(t *testing.T) {
	_, err := buildQuery(nil, nil, nil, []string{"Kvinnor"})
	require.Error(t, err)

	_, err = buildQuery(nil, nil, nil, []string{"=x"})
	require.Error(t, err)
}

func TestBuildQueryEmpty(t *testing.T) {
	query, err := buildQuery(nil, nil, nil, nil)
	require.NoError(t, err)
	require.Empty(t, query)
}
