package dataset

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"vantetider/internal"
	"vantetider/internal/catalog"
)

func TestFetchEnrichesAndSkipsServerErrors(t *testing.T) {
	svc, site, db := newTestService(t, func(r request) (string, int) {
		if r.form.Get("select_year") == "2016" {
			return "", http.StatusInternalServerError
		}
		return htmlPage(form("2017"), plainResult), http.StatusOK
	})

	res, err := svc.Fetch(context.Background(), "Overbelaggning", map[string][]string{
		"region": {"Blekinge"},
		"year":   {"2017", "2016"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Queries)
	require.Len(t, res.Skipped, 1)
	require.Equal(t, "2016", res.Skipped[0].Form.Get("select_year"))
	require.Equal(t, internal.RunStats{Queries: 2, Pages: 1, Skipped: 1, Observations: 4}, res.Stats)

	for _, r := range site.resultRequests() {
		require.Equal(t, http.MethodPost, r.method)
		require.Equal(t, testBase+"Blekinges/Overbelaggning", r.url)
	}

	require.Len(t, res.Observations, 4)
	region := res.Observations[0]
	require.Equal(t, "Blekinge", region.Region)
	require.Empty(t, region.Unit)
	require.Equal(t, "Andel", region.Measure)
	require.Equal(t, internal.Number(12.5), region.Value)
	require.Equal(t, map[string]string{
		"year":                   "2017",
		"period":                 "Januari",
		"gender":                 "false",
		"type_of_overbelaggning": "Somatik",
	}, region.Dimensions)
	require.Equal(t, internal.Number(40), res.Observations[1].Value)

	unit := res.Observations[2]
	require.Equal(t, "Blekinge", unit.Region)
	require.Equal(t, "Vårdcentral Norr", unit.Unit)
	require.Equal(t, "1201", unit.UnitID)
	require.Equal(t, internal.Sentinel(internal.SentinelDidNotParticipate), unit.Value)
	require.True(t, res.Observations[3].Value.IsNull())

	stored, err := svc.Stored("Overbelaggning")
	require.NoError(t, err)
	require.Len(t, stored, 4)
	runs, err := db.CountRuns("Overbelaggning")
	require.NoError(t, err)
	require.Equal(t, 1, runs)
}

func TestFetchOnlyRegionUsesGet(t *testing.T) {
	svc, site, _ := newTestService(t, func(r request) (string, int) {
		return htmlPage(form("2016"), plainResult), http.StatusOK
	})

	res, err := svc.Fetch(context.Background(), "Overbelaggning", map[string][]string{"region": {"Blekinge"}})
	require.NoError(t, err)
	require.Len(t, res.Observations, 4)

	requests := site.resultRequests()
	require.Len(t, requests, 1)
	require.Equal(t, http.MethodGet, requests[0].method)
	require.Equal(t, testBase+"Blekinges/Overbelaggning", requests[0].url)
}

func TestFetchRefetchReplacesStoredObservations(t *testing.T) {
	svc, _, _ := newTestService(t, func(r request) (string, int) {
		return htmlPage(form("2016"), plainResult), http.StatusOK
	})
	ctx := context.Background()

	_, err := svc.Fetch(ctx, "Overbelaggning", map[string][]string{"region": {"Blekinge"}})
	require.NoError(t, err)
	_, err = svc.Fetch(ctx, "Overbelaggning", map[string][]string{"region": {"Blekinge"}})
	require.NoError(t, err)

	stored, err := svc.Stored("Overbelaggning")
	require.NoError(t, err)
	require.Len(t, stored, 4)
}

func TestFetchFailsOnOtherStatus(t *testing.T) {
	svc, _, _ := newTestService(t, func(r request) (string, int) {
		return "", http.StatusForbidden
	})

	_, err := svc.Fetch(context.Background(), "Overbelaggning", map[string][]string{"region": {"Skåne"}})
	require.Error(t, err)
}

func TestFetchRejectsUnknownRegion(t *testing.T) {
	svc, _, _ := newTestService(t, func(r request) (string, int) {
		return "", http.StatusOK
	})

	_, err := svc.Fetch(context.Background(), "Overbelaggning", map[string][]string{"region": {"Atlantis"}})
	require.ErrorIs(t, err, catalog.ErrUnknownRegion)
}

func TestLatestTimepoint(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	tp, err := svc.LatestTimepoint(context.Background(), "Overbelaggning")
	require.NoError(t, err)
	require.Equal(t, Timepoint{Year: "2016", Period: "Januari"}, tp)
	require.Equal(t, map[string][]string{"year": {"2016"}, "period": {"Januari"}}, tp.Query())
}

func testParser(t *testing.T) pageParser {
	t.Helper()
	svc, _, _ := newTestService(t, nil)
	dims, err := svc.catalog.Dimensions(context.Background(), "Overbelaggning")
	require.NoError(t, err)
	regions, err := catalog.NewRegionIndex(dims)
	require.NoError(t, err)
	return pageParser{datasetID: "Overbelaggning", dims: dims, regions: regions}
}

func TestParseTabbedPage(t *testing.T) {
	parser := testParser(t)
	body := htmlPage(form("2017"), tabStrip,
		pane([]string{"Blekinge", "Skåne"}, []string{"Januari", "Februari"}, [][]string{{"1", "2"}, {"3", "4"}}),
		pane([]string{"Blekinge"}, []string{"Januari", "Februari"}, [][]string{{"5", "-"}}),
	)

	obs, err := parser.parse([]byte(body), catalog.Payload{Region: "Alla landsting"})
	require.NoError(t, err)
	require.Len(t, obs, 6)

	require.Equal(t, "Somatik", obs[0].Measure)
	require.Equal(t, "Januari", obs[0].Dimensions["period"])
	require.Equal(t, "Februari", obs[1].Dimensions["period"])
	require.Equal(t, "2017", obs[1].Dimensions["year"])
	require.Equal(t, "Skåne", obs[2].Region)

	require.Equal(t, "Psykiatri", obs[5].Measure)
	require.Equal(t, "Februari", obs[5].Dimensions["period"])
	require.Equal(t, internal.Sentinel("-"), obs[5].Value)
}

func TestParseUnitRowWithoutID(t *testing.T) {
	parser := testParser(t)
	body := htmlPage(form("2017"), tabStrip,
		pane([]string{"Blekinge", "Okänd enhet"}, []string{"Januari"}, [][]string{{"1"}, {"2"}}),
		pane([]string{"Blekinge"}, []string{"Januari"}, [][]string{{"3"}}),
	)

	_, err := parser.parse([]byte(body), catalog.Payload{})
	require.ErrorContains(t, err, "Okänd enhet")
}

func TestParseRejectsPageWithoutTable(t *testing.T) {
	parser := testParser(t)
	_, err := parser.parse([]byte(htmlPage(form("2017"))), catalog.Payload{})
	require.Error(t, err)
}
