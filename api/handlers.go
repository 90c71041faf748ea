/*
handlers.go - HTTP API handlers for the loan servicing system

PURPOSE:
  Exposes loans, payments, and computed ledgers via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Loans (lender):
    GET    /api/loans                      List all loans
    POST   /api/loans                      Create loan
    GET    /api/loans/{id}                 Get loan details (with share token)
    PUT    /api/loans/{id}                 Update loan and terms
    DELETE /api/loans/{id}                 Delete loan and its payments
    POST   /api/loans/{id}/token/rotate    Rotate the borrower share token

  Payments:
    GET    /api/loans/{id}/payments        Raw payment events
    POST   /api/loans/{id}/payments        Record one payment
    PUT    /api/loans/{id}/payments        Replace the full history
    POST   /api/loans/{id}/payments/import Import a payments CSV

  Ledger:
    GET    /api/loans/{id}/ledger          Computed rows + balance (?as_of=)
    GET    /api/loans/{id}/ledger.csv      Ledger as CSV download
    GET    /api/loans/{id}/summary         Statement totals
    GET    /api/loans/{id}/statement       Plain-text statement

  Borrower share view (read-only, token is the capability):
    GET    /api/share/{token}              Loan terms (no share token echoed)
    GET    /api/share/{token}/ledger       Computed rows + balance
    GET    /api/share/{token}/statement    Plain-text statement

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Load inputs from the store, recompute the ledger
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Loan or token not found
  - 500: Internal errors (arithmetic inconsistency included; that is a bug)

SECURITY NOTE:
  Lender routes carry no authentication; deploy behind one. The share
  routes are deliberately capability-based: the token is the auth.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shylock/servicing-engine/engine"
	"github.com/shylock/servicing-engine/loan"
	"github.com/shylock/servicing-engine/statement"
	"github.com/shylock/servicing-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{Store: store}
}

// =============================================================================
// LOAN ENDPOINTS
// =============================================================================

// ListLoans returns all loans.
// GET /api/loans
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Store.ListLoans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list loans", err)
		return
	}
	dtos := make([]LoanDTO, 0, len(loans))
	for _, l := range loans {
		dtos = append(dtos, toLoanDTO(l, true))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLoan creates a loan from borrower info plus terms.
// POST /api/loans
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.BorrowerName == "" {
		writeError(w, http.StatusBadRequest, "borrower_name is required", nil)
		return
	}
	terms, err := req.Terms.ToTerms()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid terms", err)
		return
	}

	l, err := loan.New(req.BorrowerName, terms.Principal, terms.OriginationDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create loan", err)
		return
	}
	applyTerms(l, terms)
	if req.Name != "" {
		l.Name = req.Name
	}
	l.LenderName = req.LenderName
	l.BorrowerEmail = req.BorrowerEmail

	if err := h.Store.SaveLoan(r.Context(), l); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save loan", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanDTO(l, true))
}

// GetLoan returns one loan, share token included.
// GET /api/loans/{id}
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(l, true))
}

// UpdateLoan replaces a loan's editable fields and terms.
// PUT /api/loans/{id}
func (h *Handler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	var req UpdateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	terms, err := req.Terms.ToTerms()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid terms", err)
		return
	}

	applyTerms(l, terms)
	if req.Name != "" {
		l.Name = req.Name
	}
	if req.LenderName != "" {
		l.LenderName = req.LenderName
	}
	if req.BorrowerName != "" {
		l.BorrowerName = req.BorrowerName
	}
	if req.BorrowerEmail != "" {
		l.BorrowerEmail = req.BorrowerEmail
	}
	l.UpdatedAt = time.Now().UTC()

	if err := h.Store.SaveLoan(r.Context(), l); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save loan", err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(l, true))
}

// DeleteLoan removes a loan and its payment history.
// DELETE /api/loans/{id}
func (h *Handler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan id", err)
		return
	}
	if err := h.Store.DeleteLoan(r.Context(), id); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "loan not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete loan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RotateShareToken invalidates the borrower link and issues a new one.
// POST /api/loans/{id}/token/rotate
func (h *Handler) RotateShareToken(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	if err := l.RotateShareToken(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to rotate token", err)
		return
	}
	if err := h.Store.SaveLoan(r.Context(), l); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save loan", err)
		return
	}
	writeJSON(w, http.StatusOK, ShareTokenDTO{ShareToken: l.ShareToken})
}

// =============================================================================
// PAYMENT ENDPOINTS
// =============================================================================

// ListPayments returns the raw payment events.
// GET /api/loans/{id}/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	payments, err := h.Store.PaymentsForLoan(r.Context(), l.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load payments", err)
		return
	}
	dtos := make([]AddPaymentRequest, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, AddPaymentRequest{Date: p.Date.String(), Amount: p.Amount.StringFixed(2)})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddPayment records one payment.
// POST /api/loans/{id}/payments
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	var req AddPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	p, err := parsePayment(req, l)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payment", err)
		return
	}
	if err := h.Store.AddPayment(r.Context(), l.ID, p); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save payment", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ReplacePayments swaps the loan's full payment history.
// PUT /api/loans/{id}/payments
func (h *Handler) ReplacePayments(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	var req ReplacePaymentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	payments := make([]engine.Payment, 0, len(req.Payments))
	for i, pr := range req.Payments {
		p, err := parsePayment(pr, l)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid payment at index %d", i), err)
			return
		}
		payments = append(payments, p)
	}
	if err := h.Store.ReplacePayments(r.Context(), l.ID, payments); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to replace payments", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportPayments ingests a payments CSV and replaces the loan's history with
// its contents.
// POST /api/loans/{id}/payments/import
func (h *Handler) ImportPayments(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	payments, skipped, err := loan.ImportPaymentsCSV(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid csv", err)
		return
	}
	// Validate against the loan before anything is written: a CSV full of
	// pre-origination dates should fail loudly, not half-import.
	if _, _, err := engine.Compute(l.Terms(), payments, l.Schedule()); err != nil {
		writeError(w, httpStatusFor(err), "csv payments rejected", err)
		return
	}
	if err := h.Store.ReplacePayments(r.Context(), l.ID, payments); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save payments", err)
		return
	}

	result := ImportResultDTO{Imported: len(payments)}
	for _, s := range skipped {
		result.Skipped = append(result.Skipped, fmt.Sprintf("line %d: %s", s.Line, s.Reason))
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// LEDGER ENDPOINTS
// =============================================================================

// GetLedger computes and returns the full ledger plus the resulting balance.
// An optional as_of=YYYY-MM-DD query projects accrual past the last payment.
// GET /api/loans/{id}/ledger
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	h.writeLedger(w, r, l)
}

// GetLedgerCSV returns the ledger as a CSV download.
// GET /api/loans/{id}/ledger.csv
func (h *Handler) GetLedgerCSV(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	rows, _, ok := h.computeLedger(w, r, l)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "ledger-"+l.ID.String()+".csv"))
	if err := statement.WriteCSV(w, rows); err != nil {
		// Headers are out; all we can do is log via the middleware.
		return
	}
}

// GetSummary returns statement totals.
// GET /api/loans/{id}/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	rows, _, ok := h.computeLedger(w, r, l)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(statement.Summarize(l.Terms(), rows)))
}

// GetStatement returns the plain-text statement.
// GET /api/loans/{id}/statement
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	h.writeStatement(w, r, l)
}

// =============================================================================
// BORROWER SHARE ENDPOINTS (read-only)
// =============================================================================

// GetSharedLoan returns the loan behind a share token, token omitted.
// GET /api/share/{token}
func (h *Handler) GetSharedLoan(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadSharedLoan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(l, false))
}

// GetSharedLedger is the borrower's ledger view.
// GET /api/share/{token}/ledger
func (h *Handler) GetSharedLedger(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadSharedLoan(w, r)
	if !ok {
		return
	}
	h.writeLedger(w, r, l)
}

// GetSharedLedgerCSV is the borrower's CSV download.
// GET /api/share/{token}/ledger.csv
func (h *Handler) GetSharedLedgerCSV(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadSharedLoan(w, r)
	if !ok {
		return
	}
	rows, _, ok := h.computeLedger(w, r, l)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
	statement.WriteCSV(w, rows)
}

// GetSharedStatement is the borrower's statement view.
// GET /api/share/{token}/statement
func (h *Handler) GetSharedStatement(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadSharedLoan(w, r)
	if !ok {
		return
	}
	h.writeStatement(w, r, l)
}

// =============================================================================
// SHARED PLUMBING
// =============================================================================

// loadLoan resolves {id} and fetches the loan, writing the error response
// itself on failure.
func (h *Handler) loadLoan(w http.ResponseWriter, r *http.Request) (*loan.Loan, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan id", err)
		return nil, false
	}
	l, err := h.Store.GetLoan(r.Context(), id)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "loan not found", nil)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load loan", err)
		return nil, false
	}
	return l, true
}

// loadSharedLoan resolves {token}. Unknown tokens are a plain 404; the
// response must not reveal whether the token was close.
func (h *Handler) loadSharedLoan(w http.ResponseWriter, r *http.Request) (*loan.Loan, bool) {
	token := chi.URLParam(r, "token")
	l, err := h.Store.GetLoanByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", nil)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load loan", err)
		return nil, false
	}
	return l, true
}

// computeLedger loads payments and runs the engine, honoring ?as_of=.
func (h *Handler) computeLedger(w http.ResponseWriter, r *http.Request, l *loan.Loan) ([]engine.LedgerRow, engine.RunningState, bool) {
	payments, err := h.Store.PaymentsForLoan(r.Context(), l.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load payments", err)
		return nil, engine.RunningState{}, false
	}
	rows, state, err := engine.Compute(l.Terms(), payments, l.Schedule())
	if err != nil {
		writeError(w, httpStatusFor(err), "ledger computation failed", err)
		return nil, engine.RunningState{}, false
	}

	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		when, err := engine.ParseDate(asOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of date", err)
			return nil, engine.RunningState{}, false
		}
		state = engine.ProjectState(l.Terms(), state, when)
	}
	return rows, state, true
}

func (h *Handler) writeLedger(w http.ResponseWriter, r *http.Request, l *loan.Loan) {
	rows, state, ok := h.computeLedger(w, r, l)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, LedgerResponse{
		LoanID:  l.ID.String(),
		Rows:    toLedgerRowDTOs(rows),
		Balance: toBalanceDTO(state),
	})
}

func (h *Handler) writeStatement(w http.ResponseWriter, r *http.Request, l *loan.Loan) {
	rows, _, ok := h.computeLedger(w, r, l)
	if !ok {
		return
	}
	text := statement.RenderText(statement.Meta{
		LoanName:     l.Name,
		LenderName:   l.LenderName,
		BorrowerName: l.BorrowerName,
		Terms:        l.Terms(),
	}, rows)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

// applyTerms copies engine terms onto the aggregate.
func applyTerms(l *loan.Loan, terms engine.LoanTerms) {
	l.Principal = terms.Principal
	l.AnnualRate = terms.AnnualRate
	l.OriginationDate = terms.OriginationDate
	l.TermYears = terms.TermYears
	l.LateFeeType = terms.LateFeeType
	l.LateFeeAmount = terms.LateFeeAmount
	l.GraceDays = terms.GraceDays
	l.PenaltyRate = terms.PenaltyRate
}

func parsePayment(req AddPaymentRequest, l *loan.Loan) (engine.Payment, error) {
	when, err := engine.ParseDate(req.Date)
	if err != nil {
		return engine.Payment{}, fmt.Errorf("date %q: %w", req.Date, err)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return engine.Payment{}, fmt.Errorf("amount %q: %w", req.Amount, err)
	}
	if !amount.IsPositive() {
		return engine.Payment{}, fmt.Errorf("amount must be positive")
	}
	if when.Before(l.OriginationDate) {
		return engine.Payment{}, fmt.Errorf("date %s precedes origination %s", when, l.OriginationDate)
	}
	return engine.Payment{Date: when, Amount: amount}, nil
}

// httpStatusFor maps engine errors to status codes: bad input is the
// client's fault, a conservation failure is ours.
func httpStatusFor(err error) int {
	if engine.IsClientError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
