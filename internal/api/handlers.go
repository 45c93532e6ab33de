package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bankcore/ledger-engine/internal/ledger"
	"github.com/bankcore/ledger-engine/internal/models"
)

// Server is the HTTP facade over the ledger engine. It parses and validates
// requests, calls the engine, and maps domain errors to status codes; it
// performs no balance logic of its own.
type Server struct {
	ledger   *ledger.Ledger
	validate *validator.Validate
	log      *zap.Logger
}

func NewServer(l *ledger.Ledger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		ledger:   l,
		validate: validator.New(),
		log:      logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{id:[0-9]+}", s.handleGetBalance).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{id:[0-9]+}/deposit", s.handleDeposit).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{id:[0-9]+}/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{id:[0-9]+}/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/transfer", s.handleTransfer).Methods(http.MethodPost)
	r.HandleFunc("/policies", s.handlePolicies).Methods(http.MethodGet)
	return r
}

type createAccountRequest struct {
	Name           string          `json:"name" validate:"required,min=1,max=100"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	FromAccountID int64           `json:"from_account_id" validate:"required"`
	ToAccountID   int64           `json:"to_account_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !s.decode(w, r, &req) {
		return
	}

	acc, err := s.ledger.CreateAccount(r.Context(), req.Name, req.InitialDeposit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Account created successfully",
		"account_id": acc.ID,
	})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	acc, err := s.ledger.GetBalance(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account": acc.Name,
		"balance": acc.Balance,
	})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !s.decode(w, r, &req) {
		return
	}

	balance, err := s.ledger.Deposit(r.Context(), id, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Deposit successful",
		"balance": balance,
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !s.decode(w, r, &req) {
		return
	}

	balance, err := s.ledger.Withdraw(r.Context(), id, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Withdrawal successful",
		"balance": balance,
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.ledger.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transfer successful"})
}

type historyEntry struct {
	Type      models.RecordType `json:"type"`
	Amount    decimal.Decimal   `json:"amount"`
	Timestamp string            `json:"timestamp"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.ledger.History(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	history := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		history = append(history, historyEntry{
			Type:      rec.Type,
			Amount:    rec.Amount,
			Timestamp: rec.Timestamp.Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// decode parses the JSON body and runs struct validation. On failure it
// writes the error response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

// statusFor maps engine errors to transport status codes. The mapping
// lives here, not in the engine.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrSenderNotFound),
		errors.Is(err, ledger.ErrReceiverNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
