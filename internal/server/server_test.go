// SPDX-License-Identifier: Apache-2.0

package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getsproj/getscheck/internal/config"
	"github.com/getsproj/getscheck/internal/report"
	"github.com/getsproj/getscheck/internal/server"
	"github.com/getsproj/getscheck/internal/store"
)

const cleanCSV = `invoice.id,invoice.issue_date,invoice.currency,invoice.total_excl_vat,invoice.vat_amount,invoice.total_incl_vat,seller.name,seller.trn,seller.country,seller.city,buyer.name,buyer.trn,buyer.country,buyer.city,lines.sku,lines.description,lines.qty,lines.unit_price,lines.line_total
INV-1,2024-01-15,AED,100,5,105,Acme,100234567800003,AE,Dubai,Gulf Retail,200987654300001,AE,Abu Dhabi,SKU-1,Widget,2,50,100
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.RateLimitPerMin = 100000 // keep tests out of the limiter

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(server.New(st, logger, cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func uploadText(t *testing.T, ts *httptest.Server, text string) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/upload", map[string]string{
		"text":    text,
		"country": "AE",
		"erp":     "SAP",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UploadID string `json:"uploadId"`
	}
	decodeBody(t, resp, &body)
	require.True(t, strings.HasPrefix(body.UploadID, "u_"))
	return body.UploadID
}

func TestUploadAnalyzeRetrieve(t *testing.T) {
	ts := newTestServer(t)

	uploadID := uploadText(t, ts, cleanCSV)

	resp := postJSON(t, ts.URL+"/api/analyze", map[string]any{
		"uploadId": uploadID,
		"questionnaire": map[string]bool{
			"webhooks":    true,
			"sandbox_env": true,
			"retries":     true,
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rep report.Report
	decodeBody(t, resp, &rep)

	assert.True(t, strings.HasPrefix(rep.ReportID, "r_"))
	assert.Equal(t, 100, rep.Scores.Overall)
	assert.Len(t, rep.Coverage.Matched, 19)
	assert.Len(t, rep.RuleFindings, 5)
	assert.Empty(t, rep.Gaps)
	assert.Equal(t, 1, rep.Meta.RowsParsed)
	assert.Equal(t, 1, rep.Meta.LinesTotal)
	assert.Equal(t, "AE", rep.Meta.Country)
	assert.Equal(t, "SAP", rep.Meta.ERP)
	assert.Equal(t, "High", rep.Meta.ReadinessLabel)

	// Retrieve the stored report by id.
	getResp, err := http.Get(ts.URL + "/api/report/" + rep.ReportID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var stored report.Report
	decodeBody(t, getResp, &stored)
	assert.Equal(t, rep.ReportID, stored.ReportID)
	assert.Equal(t, rep.Scores, stored.Scores)

	// And it shows up in the recent listing.
	listResp, err := http.Get(ts.URL + "/api/reports")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var listing struct {
		Reports []store.ReportSummary `json:"reports"`
	}
	decodeBody(t, listResp, &listing)
	require.Len(t, listing.Reports, 1)
	assert.Equal(t, rep.ReportID, listing.Reports[0].ReportID)
	assert.Equal(t, rep.Scores.Overall, listing.Reports[0].OverallScore)
}

func TestUpload_MultipartFile(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "invoices.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(cleanCSV))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("country", "AE"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UploadID string `json:"uploadId"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, strings.HasPrefix(body.UploadID, "u_"))
}

func TestUpload_RejectsWrongExtension(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_EmptyBody(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/upload", map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyze_MissingUploadID(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/analyze", map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error struct {
			Message string `json:"message"`
			Status  int    `json:"status"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "uploadId is required", body.Error.Message)
	assert.Equal(t, http.StatusBadRequest, body.Error.Status)
}

func TestAnalyze_UnknownUpload(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/analyze", map[string]any{"uploadId": "u_missing123"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalyze_WithoutQuestionnaire(t *testing.T) {
	ts := newTestServer(t)
	uploadID := uploadText(t, ts, cleanCSV)

	resp := postJSON(t, ts.URL+"/api/analyze", map[string]any{"uploadId": uploadID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rep report.Report
	decodeBody(t, resp, &rep)
	assert.Zero(t, rep.Scores.Posture)
	// data=100, coverage=100, rules=100, posture=0 → round(25+35+30) = 90
	assert.Equal(t, 90, rep.Scores.Overall)
}

func TestGetReport_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/report/r_nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "sqlite", body["dbType"])
}
