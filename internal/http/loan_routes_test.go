package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var displayTimeRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}, \d{2}:\d{2}\.\d{2}$`)

// The seeded store holds Dune (book 1, one copy) and Alice Johnson
// (customer 1); the full loan-return round trip runs against them.
func TestLoanLifecycleOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	resp, m := doJSON(t, app, "POST", "/loans", map[string]any{"cust_id": 1, "book_id": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := envelopeData(t, m)
	assert.Equal(t, "Dune", data["book_name"])
	assert.Equal(t, float64(0), data["book_quantity"])
	assert.Equal(t, true, data["is_out_of_stock"])
	assert.Regexp(t, displayTimeRe, data["return_due_date"])

	// Last copy is gone; another customer is refused.
	resp, m = doJSON(t, app, "POST", "/loans", map[string]any{"cust_id": 2, "book_id": 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "book_out_of_stock", envelopeError(t, m)["code"])

	resp, m = doJSON(t, app, "GET", "/loans", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, envelopeList(t, m), 1)

	resp, m = doJSON(t, app, "POST", "/loans/return", map[string]any{"cust_id": 1, "book_id": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data = envelopeData(t, m)
	assert.Equal(t, false, data["late"])
	assert.Equal(t, float64(0), data["previous_quantity"])
	assert.Equal(t, float64(1), data["new_quantity"])
	assert.Regexp(t, displayTimeRe, data["actual_return_date"])

	resp, m = doJSON(t, app, "GET", "/returns?id=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := envelopeList(t, m)
	require.Len(t, history, 1)
	assert.Equal(t, "Dune", history[0].(map[string]any)["book_name"])

	// The open-loan table is empty again.
	resp, m = doJSON(t, app, "GET", "/loans", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no_loans_found", envelopeError(t, m)["code"])

	resp, m = doJSON(t, app, "POST", "/loans/return", map[string]any{"cust_id": 1, "book_id": 1})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no_active_loan", envelopeError(t, m)["code"])
}

func TestLoanBadRequests(t *testing.T) {
	app, _ := newTestApp(t)

	resp, m := doJSON(t, app, "POST", "/loans", map[string]any{"cust_id": 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "missing_fields", envelopeError(t, m)["code"])

	req := httptest.NewRequest("POST", "/loans", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rawResp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rawResp.StatusCode)

	resp, m = doJSON(t, app, "GET", "/loans?cust_id=abc", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_id", envelopeError(t, m)["code"])

	resp, m = doJSON(t, app, "GET", "/loans?start_date=01-02-2026", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_date", envelopeError(t, m)["code"])

	resp, m = doJSON(t, app, "GET", "/loans/late", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no_late_loans", envelopeError(t, m)["code"])
}

func TestLateLoansRoute(t *testing.T) {
	app, db := newTestApp(t)

	_, err := db.Exec(`INSERT INTO loans(cust_id, cust_name, cust_phone, book_id, book_name, loan_date, return_due_date)
		VALUES (1, 'Alice Johnson', '054-6300598', 1, 'Dune', '2026-01-01 10:00:00', '2026-01-11 10:00:00')`)
	require.NoError(t, err)

	resp, m := doJSON(t, app, "GET", "/loans/late", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	late := envelopeList(t, m)
	require.Len(t, late, 1)
	hit := late[0].(map[string]any)
	assert.Equal(t, "Dune", hit["book_name"])
	assert.Equal(t, "11/01/2026, 10:00.00", hit["return_due_date"])
}

func TestLoanSearchDateRangeIsInclusive(t *testing.T) {
	app, db := newTestApp(t)

	_, err := db.Exec(`INSERT INTO loans(cust_id, cust_name, cust_phone, book_id, book_name, loan_date, return_due_date)
		VALUES (1, 'Alice Johnson', '054-6300598', 1, 'Dune', '2026-03-10 23:30:00', '2026-03-20 23:30:00')`)
	require.NoError(t, err)

	// A loan late in the evening of the end date still counts.
	resp, m := doJSON(t, app, "GET", "/loans?start_date=2026-03-10&end_date=2026-03-10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, envelopeList(t, m), 1)

	resp, m = doJSON(t, app, "GET", "/loans?end_date=2026-03-09", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no_loans_found", envelopeError(t, m)["code"])
}

func TestReturnedHistoryFilters(t *testing.T) {
	app, _ := newTestApp(t)

	_, _ = doJSON(t, app, "POST", "/loans", map[string]any{"cust_id": 1, "book_id": 1})
	_, _ = doJSON(t, app, "POST", "/loans/return", map[string]any{"cust_id": 1, "book_id": 1})

	resp, m := doJSON(t, app, "GET", "/returns?name=alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, envelopeList(t, m), 1)

	resp, m = doJSON(t, app, "GET", "/returns?name=nobody", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	e := envelopeError(t, m)
	assert.Equal(t, "no_returned_books", e["code"])
	// Unset filters echo back as "?".
	ctx := e["context"].(map[string]any)
	assert.Equal(t, "?", ctx["id"])

	resp, m = doJSON(t, app, "GET", "/returns?id=abc", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_id", envelopeError(t, m)["code"])
}
