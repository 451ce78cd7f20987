package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/creditline/loanledger/pkg/models"
	"github.com/creditline/loanledger/pkg/store"
	"github.com/creditline/loanledger/pkg/timeline"
)

const dateLayout = "2006-01-02"

// Server holds the calculator and its collaborators.
type Server struct {
	calculator *timeline.Calculator
	loans      *timeline.LoanCache
	storage    store.Storage // Keep a reference to the storage to close it
}

func NewServer(s store.Storage) *Server {
	loans := timeline.NewLoanCache(s)
	return &Server{
		calculator: timeline.NewCalculator(s, loans),
		loans:      loans,
		storage:    s,
	}
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lender                 string `json:"lender"`
		Borrower               string `json:"borrower"`
		Description            string `json:"description"`
		BaseCurrency           string `json:"base_currency"`
		InterestRateBase       string `json:"interest_rate_base"`
		LendingDateExclusive   bool   `json:"lending_date_exclusive_counting"`
		RepaymentDateExclusive bool   `json:"repayment_date_exclusive_counting"`
		Capitalization         bool   `json:"capitalization"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.BaseCurrency == "" {
		http.Error(w, "base_currency is required", http.StatusBadRequest)
		return
	}

	rateBase := models.InterestRateBase(req.InterestRateBase)
	switch rateBase {
	case models.RateBase360, models.RateBase365, models.RateBaseCalendar:
	case "":
		rateBase = models.RateBase365
	default:
		http.Error(w, "interest_rate_base must be 360, 365 or calendar", http.StatusBadRequest)
		return
	}

	loan := &models.Loan{
		ID:                     uuid.New(),
		Lender:                 req.Lender,
		Borrower:               req.Borrower,
		Description:            req.Description,
		BaseCurrency:           req.BaseCurrency,
		InterestRateBase:       rateBase,
		LendingDateExclusive:   req.LendingDateExclusive,
		RepaymentDateExclusive: req.RepaymentDateExclusive,
		Capitalization:         req.Capitalization,
		CreatedAt:              time.Now(),
		UpdatedAt:              time.Now(),
	}

	if err := s.storage.CreateLoan(loan); err != nil {
		log.Printf("Error creating loan: %v\n", err)
		http.Error(w, fmt.Sprintf("Failed to create loan: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(loan)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := loanIDFromRequest(w, r)
	if !ok {
		return
	}

	loan, err := s.storage.GetLoan(loanID)
	if err != nil {
		if err.Error() == "loan not found" {
			http.Error(w, "Loan not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.storage.GetAllLoans()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loans)
}

func (s *Server) updateLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := loanIDFromRequest(w, r)
	if !ok {
		return
	}

	var loan models.Loan
	if err := json.NewDecoder(r.Body).Decode(&loan); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	loan.ID = loanID // Ensure ID from URL is used
	loan.UpdatedAt = time.Now()

	if err := s.storage.UpdateLoan(&loan); err != nil {
		if err.Error() == "loan not found" {
			http.Error(w, "Loan not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	s.loans.Invalidate(loanID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loan)
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := loanIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := s.storage.DeleteLoan(loanID); err != nil {
		if err.Error() == "loan not found" {
			http.Error(w, "Loan not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	s.loans.Invalidate(loanID)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createEventHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := loanIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		FactDate                   string           `json:"event_fact_date"`
		Currency                   *string          `json:"currency"`
		CurrencyToLoanRate         *decimal.Decimal `json:"currency_to_loan_rate"`
		PrincipalLending           *decimal.Decimal `json:"principal_lending_currency"`
		PrincipalRepayment         *decimal.Decimal `json:"principal_repayment_currency"`
		InterestRepayment          *decimal.Decimal `json:"interest_repayment_currency"`
		Capitalization             *decimal.Decimal `json:"capitalization"`
		InterestRate               *decimal.Decimal `json:"interest_rate"`
		PrincipalBalanceCorrection *decimal.Decimal `json:"principal_balance_correction"`
		InterestBalanceCorrection  *decimal.Decimal `json:"interest_balance_correction"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	factDate, err := time.Parse(dateLayout, req.FactDate)
	if err != nil {
		http.Error(w, "event_fact_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	// The loan must exist before an event can reference it.
	if _, err := s.storage.GetLoan(loanID); err != nil {
		if err.Error() == "loan not found" {
			http.Error(w, "Loan not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	event := &models.RawEvent{
		LoanID:                     loanID,
		FactDate:                   factDate,
		Currency:                   req.Currency,
		CurrencyToLoanRate:         req.CurrencyToLoanRate,
		PrincipalLending:           req.PrincipalLending,
		PrincipalRepayment:         req.PrincipalRepayment,
		InterestRepayment:          req.InterestRepayment,
		Capitalization:             req.Capitalization,
		InterestRate:               req.InterestRate,
		PrincipalBalanceCorrection: req.PrincipalBalanceCorrection,
		InterestBalanceCorrection:  req.InterestBalanceCorrection,
	}

	if err := s.storage.CreateEvent(event); err != nil {
		log.Printf("Error creating event: %v\n", err)
		http.Error(w, fmt.Sprintf("Failed to create event: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(event)
}

func (s *Server) listEventsHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := loanIDFromRequest(w, r)
	if !ok {
		return
	}

	events, err := s.storage.GetEventsForLoan(loanID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

func (s *Server) timelineHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := loanIDFromRequest(w, r)
	if !ok {
		return
	}

	ledger, err := s.calculator.Timeline(loanID)
	if err != nil {
		writeCalculationError(w, err)
		return
	}

	rows := make([]map[string]string, 0, len(ledger))
	for _, entry := range ledger {
		rows = append(rows, entry.Row())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

func (s *Server) balanceHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := loanIDFromRequest(w, r)
	if !ok {
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		http.Error(w, "date query parameter is required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	balance, err := s.calculator.BalanceAt(loanID, date)
	if err != nil {
		writeCalculationError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"loan_id":           loanID.String(),
		"date":              date.Format(dateLayout),
		"principal_balance": balance.StringFixed(2),
	})
}

func loanIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	loanID, err := uuid.Parse(vars["id"])
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return loanID, true
}

func writeCalculationError(w http.ResponseWriter, err error) {
	var rateErr *timeline.MissingRateError
	switch {
	case errors.As(err, &rateErr):
		http.Error(w, rateErr.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, timeline.ErrLoanNotFound) || err.Error() == "loan not found":
		http.Error(w, "Loan not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func main() {
	// Initialize SQLite Store
	sqliteStore, err := store.NewSQLiteStore("loanledger.db")
	if err != nil {
		log.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	server := NewServer(sqliteStore)
	router := mux.NewRouter()

	router.HandleFunc("/loans", server.listLoansHandler).Methods("GET")
	router.HandleFunc("/loans", server.createLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}", server.getLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}", server.updateLoanHandler).Methods("PUT")
	router.HandleFunc("/loans/{id}", server.deleteLoanHandler).Methods("DELETE")
	router.HandleFunc("/loans/{id}/events", server.listEventsHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/events", server.createEventHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/timeline", server.timelineHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/balance", server.balanceHandler).Methods("GET")

	log.Println("Server starting on :8080")
	log.Fatal(http.ListenAndServe(":8080", router))
}
