package http

import (
	"net/http"
	"net/url"
	"strings"

	"kakeibo/internal/core"
	"kakeibo/internal/middleware/authn"
	"kakeibo/internal/services"
)

type createTransactionRequest struct {
	Kind         core.Kind  `json:"kind"`
	Category     string     `json:"category"`
	Amount       string     `json:"amount"`
	Date         string     `json:"date"` // today when empty
	Description  string     `json:"description"`
	Scope        core.Scope `json:"scope"`
	IsSplit      bool       `json:"is_split"`
	PaidByUserID string     `json:"paid_by_user_id"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, "create_transaction", err)
		return
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		ServiceError(w, r, "create_transaction", err)
		return
	}
	date := core.DateOf(s.now().UTC())
	if strings.TrimSpace(req.Date) != "" {
		if date, err = core.ParseDate(req.Date); err != nil {
			ServiceError(w, r, "create_transaction", err)
			return
		}
	}

	t, err := s.svc.Transactions.Create(r.Context(), authn.UserID(r.Context()), services.CreateTransactionRequest{
		Kind:         req.Kind,
		Category:     sanitizeInput(req.Category),
		Amount:       amount,
		Date:         date,
		Description:  sanitizeInput(req.Description),
		Scope:        req.Scope,
		IsSplit:      req.IsSplit,
		PaidByUserID: strings.TrimSpace(req.PaidByUserID),
	})
	if err != nil {
		ServiceError(w, r, "create_transaction", err)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Body(toTransactionJSON(t)).Write(w)
}

// parseListRequest reads the filters shared by list and summary.
func parseListRequest(query url.Values) (services.ListTransactionsRequest, error) {
	req := services.ListTransactionsRequest{
		Scope:    core.Scope(strings.TrimSpace(query.Get("scope"))),
		Kind:     core.Kind(strings.TrimSpace(query.Get("kind"))),
		Category: strings.TrimSpace(query.Get("category")),
	}
	if req.Kind != "" {
		if err := req.Kind.Validate(); err != nil {
			return req, err
		}
	}
	var err error
	if req.From, err = ParseDateQuery(query, "from"); err != nil {
		return req, err
	}
	if req.To, err = ParseDateQuery(query, "to"); err != nil {
		return req, err
	}
	if req.Limit, err = ParseIntQuery(query, "limit"); err != nil {
		return req, err
	}
	if req.Offset, err = ParseIntQuery(query, "offset"); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r.URL.Query())
	if err != nil {
		ServiceError(w, r, "list_transactions", err)
		return
	}
	rows, err := s.svc.Transactions.List(r.Context(), authn.UserID(r.Context()), req)
	if err != nil {
		ServiceError(w, r, "list_transactions", err)
		return
	}
	NewJSONResponse().Body(toTransactionsJSON(rows)).Write(w)
}

func (s *Server) handleTransactionSummary(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r.URL.Query())
	if err != nil {
		ServiceError(w, r, "transaction_summary", err)
		return
	}
	sum, err := s.svc.Transactions.Summary(r.Context(), authn.UserID(r.Context()), req)
	if err != nil {
		ServiceError(w, r, "transaction_summary", err)
		return
	}
	NewJSONResponse().Body(toSummaryJSON(sum)).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Transactions.Get(r.Context(), authn.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		ServiceError(w, r, "get_transaction", err)
		return
	}
	NewJSONResponse().Body(toTransactionJSON(t)).Write(w)
}

type updateTransactionRequest struct {
	Category     *string `json:"category"`
	Amount       *string `json:"amount"`
	Date         *string `json:"date"`
	Description  *string `json:"description"`
	PaidByUserID *string `json:"paid_by_user_id"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, "update_transaction", err)
		return
	}
	amount, err := optionalAmount(req.Amount)
	if err != nil {
		ServiceError(w, r, "update_transaction", err)
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		ServiceError(w, r, "update_transaction", err)
		return
	}

	t, err := s.svc.Transactions.Update(r.Context(), authn.UserID(r.Context()), r.PathValue("id"), services.UpdateTransactionRequest{
		Category:     sanitizePtr(req.Category),
		Amount:       amount,
		Date:         date,
		Description:  sanitizePtr(req.Description),
		PaidByUserID: sanitizePtr(req.PaidByUserID),
	})
	if err != nil {
		ServiceError(w, r, "update_transaction", err)
		return
	}
	NewJSONResponse().Body(toTransactionJSON(t)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Transactions.Delete(r.Context(), authn.UserID(r.Context()), r.PathValue("id")); err != nil {
		ServiceError(w, r, "delete_transaction", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleSettlement settles the split expenses in the optional [from, to]
// range.
func (s *Server) handleSettlement(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := ParseDateQuery(query, "from")
	if err != nil {
		ServiceError(w, r, "settlement", err)
		return
	}
	to, err := ParseDateQuery(query, "to")
	if err != nil {
		ServiceError(w, r, "settlement", err)
		return
	}
	result, err := s.svc.Settlement.Settle(r.Context(), authn.UserID(r.Context()), from, to)
	if err != nil {
		ServiceError(w, r, "settlement", err)
		return
	}
	NewJSONResponse().Body(toSettlementJSON(result, s.currency)).Write(w)
}
