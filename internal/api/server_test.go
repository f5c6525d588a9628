package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/compliance-tracker/internal/household"
	"github.com/sells-group/compliance-tracker/internal/model"
	"github.com/sells-group/compliance-tracker/internal/normalize"
	"github.com/sells-group/compliance-tracker/internal/threshold"
	"github.com/sells-group/compliance-tracker/internal/tracker"
)

const rosterCSV = "Unit,Resident,Income,HH Size\n" +
	"101,\"Smith, John\",\"$2,000\",\n" +
	"101,\"Smith, Jane\",$0,\n" +
	",\"Nobody, Here\",$500,\n" +
	"102,,,Vacant\n"

func newTestServer(t *testing.T, opts Options) http.Handler {
	t.Helper()
	if opts.Defaults.Columns == (tracker.Columns{}) {
		opts.Defaults = tracker.Options{
			Columns:      tracker.Columns{Unit: "Unit", Resident: "Resident", Income: "Income", HouseholdSize: "HH Size"},
			SizePolicy:   household.SizeFromNames,
			IncomePeriod: normalize.PeriodMonthly,
			Schema:       threshold.ThreeTierSchema(),
		}
	}
	if opts.RatePerSecond == 0 {
		opts.RatePerSecond = 1000
		opts.RateBurst = 1000
	}
	return NewServer(opts).Routes()
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSchemas(t *testing.T) {
	h := newTestServer(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/schemas", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []schemaInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, threshold.Legacy, got[0].Name)
	assert.Equal(t, threshold.ThreeTier, got[1].Name)
	assert.True(t, got[1].Vacancy)
	assert.Equal(t, "Vacant", got[1].Labels[4])
}

func TestProcess_JSON(t *testing.T) {
	h := newTestServer(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "roster.csv", rosterCSV, map[string]string{"size_policy": "column"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(runIDHeader))

	var res model.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, rec.Header().Get(runIDHeader), res.RunID)
	require.Len(t, res.Details, 2)
	assert.Equal(t, "John Smith, Jane Smith", res.Details[0].Residents)
	assert.InDelta(t, 24000.0, res.Details[0].TotalIncome, 0.0001)
	assert.Equal(t, "Vacant", res.Details[1].Bucket)
	assert.Equal(t, 1, res.Stats.RowsDropped)
	require.Len(t, res.Summary, 5)
}

func TestProcess_NamesPolicyScenario(t *testing.T) {
	h := newTestServer(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "roster.csv", rosterCSV, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res model.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Details[0].Size)
	assert.Equal(t, "30–60% AMI", res.Details[0].Bucket)
}

func TestProcess_CSVDownload(t *testing.T) {
	h := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "roster.csv", rosterCSV, map[string]string{"format": "csv", "sheet": "summary"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "-summary.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, "Income Bucket", records[0][0])
}

func TestProcess_XLSXDownload(t *testing.T) {
	h := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "roster.csv", rosterCSV, map[string]string{"format": "xlsx"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	f, err := xlsx.OpenBinary(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)
	assert.Equal(t, "Details", f.Sheets[0].Name)
	assert.Equal(t, "Summary", f.Sheets[1].Name)
}

func TestProcess_ClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
		status   int
		want     string
	}{
		{"missing file", "", "", nil, http.StatusBadRequest, "file is required"},
		{"unsupported type", "roster.pdf", "%PDF", nil, http.StatusBadRequest, "could not read file"},
		{"bad header row", "roster.csv", rosterCSV, map[string]string{"header_row": "x"}, http.StatusBadRequest, "header_row"},
		{"header beyond file", "roster.csv", rosterCSV, map[string]string{"header_row": "40"}, http.StatusBadRequest, "could not read file"},
		{"unknown schema", "roster.csv", rosterCSV, map[string]string{"schema": "nope"}, http.StatusUnprocessableEntity, "unknown schema"},
		{"unmapped column", "roster.csv", rosterCSV, map[string]string{"unit_col": "Apartment"}, http.StatusUnprocessableEntity, "Apartment"},
		{"bad policy", "roster.csv", rosterCSV, map[string]string{"size_policy": "guess"}, http.StatusBadRequest, "size policy"},
		{"bad period", "roster.csv", rosterCSV, map[string]string{"income_period": "weekly"}, http.StatusBadRequest, "income period"},
		{"bad format", "roster.csv", rosterCSV, map[string]string{"format": "pdf"}, http.StatusBadRequest, "unknown format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t, Options{})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, uploadRequest(t, tc.filename, tc.content, tc.fields))

			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tc.want)
		})
	}
}

func TestProcess_RateLimited(t *testing.T) {
	h := newTestServer(t, Options{RatePerSecond: 0.001, RateBurst: 1})

	first := httptest.NewRecorder()
	h.ServeHTTP(first, uploadRequest(t, "roster.csv", rosterCSV, nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, uploadRequest(t, "roster.csv", rosterCSV, nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestProcess_LegacySchemaOverride(t *testing.T) {
	h := newTestServer(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "roster.csv", rosterCSV, map[string]string{
		"schema":        threshold.Legacy,
		"income_period": "annual",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res model.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, threshold.Legacy, res.Schema)
	require.Len(t, res.Summary, 4)
	assert.InDelta(t, 2000.0, res.Details[0].TotalIncome, 0.0001)
}

func TestProcess_UnencodableTotalsReturnServerError(t *testing.T) {
	h := newTestServer(t, Options{})
	roster := "Unit,Resident,Income,HH Size\n101,\"Smith, John\",1e308,\n101,\"Smith, Jane\",1e308,\n"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "roster.csv", roster, map[string]string{"income_period": "annual"}))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "could not encode response")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}
