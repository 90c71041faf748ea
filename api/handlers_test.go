package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shylock/servicing-engine/api"
	"github.com/shylock/servicing-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(store)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if resp.Header.Get("Content-Type") == "application/json" {
		json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

// createLoan posts a standard test loan and returns its id and share token.
func createLoan(t *testing.T, srv *httptest.Server) (string, string) {
	t.Helper()
	resp, body := doJSON(t, "POST", srv.URL+"/api/loans", `{
		"name": "House Loan",
		"lender_name": "Jo Lender",
		"borrower_name": "Ada Borrower",
		"terms": {
			"principal": "10000",
			"annual_rate": "5",
			"origination_date": "2025-01-01",
			"late_fee_type": "fixed",
			"late_fee_amount": "25",
			"grace_days": 20
		}
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	token, _ := body["share_token"].(string)
	require.NotEmpty(t, id)
	require.NotEmpty(t, token)
	return id, token
}

// =============================================================================
// LOAN CRUD
// =============================================================================

func TestCreateAndGetLoan(t *testing.T) {
	srv := newTestServer(t)
	id, _ := createLoan(t, srv)

	resp, body := doJSON(t, "GET", srv.URL+"/api/loans/"+id, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "House Loan", body["name"])
	assert.Equal(t, "Ada Borrower", body["borrower_name"])
	assert.Equal(t, "10000.00", body["principal"])
	assert.Equal(t, "2025-01-01", body["origination_date"])
	assert.NotEmpty(t, body["share_token"], "lender view includes the token")
}

func TestCreateLoan_RequiresBorrowerName(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/loans", `{
		"terms": {"principal": "100", "origination_date": "2025-01-01"}
	}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateLoan_RejectsBadTerms(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/loans", `{
		"borrower_name": "Ada",
		"terms": {"principal": "-100", "origination_date": "2025-01-01"}
	}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetLoan_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, "GET", srv.URL+"/api/loans/0b36a8fe-2e5f-4a43-9e2c-000000000000", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateLoan_ChangesTerms(t *testing.T) {
	srv := newTestServer(t)
	id, _ := createLoan(t, srv)

	resp, body := doJSON(t, "PUT", srv.URL+"/api/loans/"+id, `{
		"terms": {
			"principal": "10000",
			"annual_rate": "6",
			"origination_date": "2025-01-01"
		}
	}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "6", body["annual_rate"])
}

func TestDeleteLoan(t *testing.T) {
	srv := newTestServer(t)
	id, _ := createLoan(t, srv)

	resp, _ := doJSON(t, "DELETE", srv.URL+"/api/loans/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, "GET", srv.URL+"/api/loans/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// PAYMENTS AND LEDGER
// =============================================================================

func TestAddPayment_AndComputeLedger(t *testing.T) {
	srv := newTestServer(t)
	id, _ := createLoan(t, srv)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/loans/"+id+"/payments",
		`{"date": "2025-03-15", "amount": "500"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, "GET", srv.URL+"/api/loans/"+id+"/ledger", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "100.00", row["accrued_loan_interest"])
	assert.Equal(t, "400.00", row["allocated_to_principal"])
	assert.Equal(t, "9600.00", row["ending_principal"])

	balance := body["balance"].(map[string]any)
	assert.Equal(t, "9600.00", balance["principal_balance"])
	assert.Equal(t, "2025-03-15", balance["as_of"])
}

func TestGetLedger_AsOfProjection(t *testing.T) {
	srv := newTestServer(t)
	id, _ := createLoan(t, srv)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/loans/"+id+"/payments",
		`{"date": "2025-03-15", "amount": "500"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// 10 more days of accrual on 9600 at 5%: 13.15
	resp, body := doJSON(t, "GET", srv.URL+"/api/loans/"+id+"/ledger?as_of=2025-03-25", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	balance := body["balance"].(map[string]any)
	assert.Equal(t, "2025-03-25", balance["as_of"])
	assert.Equal(t, "13.15", balance["unpaid_loan_interest"])
	assert.Equal(t, "9600.00", balance["principal_balance"], "projection never touches principal")
}

func TestAddPayment_RejectsPreOrigination(t *testing.T) {
	srv := newTestServer(t)
	id, _ := createLoan(t, srv)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/loans/"+id+"/payments",
		`{"date": "2024-12-01", "amount": "500"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReplacePayments(t *testing.T) {
	srv := newTestServer(t)
	id, _ := createLoan(t, srv)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/loans/"+id+"/payments",
		`{"date": "2025-02-01", "amount": "999"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, "PUT", srv.URL+"/api/loans/"+id+"/payments", `{
		"payments": [
			{"date": "2025-02-01", "amount": "500"},
			{"date": "2025-03-01", "amount": "500"}
		]
	}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := doJSON(t, "GET", srv.URL+"/api/loans/"+id+"/ledger", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["rows"].([]any), 2)
}

func TestImportPayments_CSV(t *testing.T) {
	srv := newTestServer(t)
	id, _ := createLoan(t, srv)

	csv := "Payment Date,Amount\n2025-02-01,\"$500.00\"\n2025-03-01,500.00\nbad-date,100\n"
	req, err := http.NewRequest("POST", srv.URL+"/api/loans/"+id+"/payments/import",
		strings.NewReader(csv))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/csv")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, float64(2), result["imported"])
	assert.Len(t, result["skipped"].([]any), 1)
}

func TestGetLedgerCSV(t *testing.T) {
	srv := newTestServer(t)
	id, _ := createLoan(t, srv)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/loans/"+id+"/payments",
		`{"date": "2025-03-15", "amount": "500"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	httpResp, err := http.Get(srv.URL + "/api/loans/" + id + "/ledger.csv")
	require.NoError(t, err)
	defer httpResp.Body.Close()

	require.Equal(t, http.StatusOK, httpResp.StatusCode)
	assert.Equal(t, "text/csv", httpResp.Header.Get("Content-Type"))

	buf := new(bytes.Buffer)
	buf.ReadFrom(httpResp.Body)
	assert.Contains(t, buf.String(), "Due Date,Payment Date,Payment Amount")
	assert.Contains(t, buf.String(), "9600.00")
}

func TestGetSummaryAndStatement(t *testing.T) {
	srv := newTestServer(t)
	id, _ := createLoan(t, srv)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/loans/"+id+"/payments",
		`{"date": "2025-03-15", "amount": "500"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, "GET", srv.URL+"/api/loans/"+id+"/summary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "500.00", body["total_payments"])
	assert.Equal(t, "9600.00", body["ending_principal"])

	httpResp, err := http.Get(srv.URL + "/api/loans/" + id + "/statement")
	require.NoError(t, err)
	defer httpResp.Body.Close()
	require.Equal(t, http.StatusOK, httpResp.StatusCode)

	buf := new(bytes.Buffer)
	buf.ReadFrom(httpResp.Body)
	assert.Contains(t, buf.String(), "Loan Statement")
	assert.Contains(t, buf.String(), "Borrower: Ada Borrower")
}

// =============================================================================
// BORROWER SHARE VIEW
// =============================================================================

func TestShareView_ReadOnlyAccess(t *testing.T) {
	srv := newTestServer(t)
	id, token := createLoan(t, srv)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/loans/"+id+"/payments",
		`{"date": "2025-03-15", "amount": "500"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, "GET", srv.URL+"/api/share/"+token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ada Borrower", body["borrower_name"])
	_, hasToken := body["share_token"]
	assert.False(t, hasToken, "borrower view never echoes the token")

	resp, body = doJSON(t, "GET", srv.URL+"/api/share/"+token+"/ledger", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["rows"].([]any), 1)
}

func TestShareView_UnknownToken(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, "GET", srv.URL+"/api/share/not-a-real-token", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRotateShareToken_KillsOldLink(t *testing.T) {
	srv := newTestServer(t)
	id, oldToken := createLoan(t, srv)

	resp, body := doJSON(t, "POST", srv.URL+"/api/loans/"+id+"/token/rotate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	newToken := body["share_token"].(string)
	require.NotEqual(t, oldToken, newToken)

	resp, _ = doJSON(t, "GET", srv.URL+"/api/share/"+oldToken, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, "GET", srv.URL+"/api/share/"+newToken, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLedger_UnparseableAsOf(t *testing.T) {
	srv := newTestServer(t)
	id, _ := createLoan(t, srv)

	resp, _ := doJSON(t, "GET", fmt.Sprintf("%s/api/loans/%s/ledger?as_of=tomorrow", srv.URL, id), "")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
