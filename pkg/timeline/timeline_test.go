package timeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/creditline/loanledger/pkg/models"
)

// MockStore is a simple in-memory implementation of the Storage interface for testing.
type MockStore struct {
	loans        map[uuid.UUID]*models.Loan
	events       []models.RawEvent
	nextEventID  int64
	getLoanCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{
		loans:       make(map[uuid.UUID]*models.Loan),
		nextEventID: 1,
	}
}

func (m *MockStore) CreateLoan(loan *models.Loan) error {
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	m.getLoanCalls++
	loan, ok := m.loans[id]
	if !ok {
		return nil, fmt.Errorf("loan not found")
	}
	return loan, nil
}

func (m *MockStore) UpdateLoan(loan *models.Loan) error {
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockStore) DeleteLoan(id uuid.UUID) error {
	delete(m.loans, id)
	return nil
}

func (m *MockStore) GetAllLoans() ([]*models.Loan, error) {
	loans := []*models.Loan{}
	for _, l := range m.loans {
		loans = append(loans, l)
	}
	return loans, nil
}

func (m *MockStore) CreateEvent(event *models.RawEvent) error {
	event.EventID = m.nextEventID
	m.nextEventID++
	m.events = append(m.events, *event)
	return nil
}

func (m *MockStore) GetEventsForLoan(loanID uuid.UUID) ([]models.RawEvent, error) {
	events := []models.RawEvent{}
	for _, e := range m.events {
		if e.LoanID == loanID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockStore) Close() error {
	return nil
}

func TestCalculator_Timeline(t *testing.T) {
	store := NewMockStore()
	loan := testLoan()
	store.CreateLoan(loan)

	for _, raw := range []models.RawEvent{
		{LoanID: loan.ID, FactDate: date(2023, time.February, 1), PrincipalLending: decPtr("3366")},
		{LoanID: loan.ID, FactDate: date(2023, time.February, 1), InterestRate: decPtr("0.06")},
		{LoanID: loan.ID, FactDate: date(2023, time.March, 1), PrincipalRepayment: decPtr("1000")},
	} {
		raw := raw
		if err := store.CreateEvent(&raw); err != nil {
			t.Fatalf("Failed to create event: %v", err)
		}
	}

	calculator := NewCalculator(store, NewLoanCache(store))
	ledger, err := calculator.Timeline(loan.ID)
	if err != nil {
		t.Fatalf("Failed to compute timeline: %v", err)
	}
	if len(ledger) == 0 {
		t.Fatal("Expected a non-empty ledger")
	}

	entry := findEntry(t, ledger, date(2023, time.March, 2))
	if !entry.PrincipalBalance.Equal(dec("2366")) {
		t.Errorf("Expected principal balance 2366, got %s", entry.PrincipalBalance)
	}

	balance, err := calculator.BalanceAt(loan.ID, date(2023, time.April, 1))
	if err != nil {
		t.Fatalf("Failed to compute balance: %v", err)
	}
	if !balance.Equal(dec("2366")) {
		t.Errorf("Expected balance 2366 at 2023-04-01, got %s", balance)
	}
}

func TestCalculator_UnknownLoan(t *testing.T) {
	store := NewMockStore()
	calculator := NewCalculator(store, NewLoanCache(store))

	_, err := calculator.Timeline(uuid.New())
	if err == nil {
		t.Fatal("Expected an error for an unknown loan")
	}
}

func TestLoanCache_ReadThroughAndInvalidate(t *testing.T) {
	store := NewMockStore()
	loan := testLoan()
	store.CreateLoan(loan)

	cache := NewLoanCache(store)

	if _, err := cache.Get(loan.ID); err != nil {
		t.Fatalf("Failed to get loan: %v", err)
	}
	if _, err := cache.Get(loan.ID); err != nil {
		t.Fatalf("Failed to get cached loan: %v", err)
	}
	if store.getLoanCalls != 1 {
		t.Errorf("Expected 1 store fetch for two cached gets, got %d", store.getLoanCalls)
	}

	cache.Invalidate(loan.ID)
	if _, err := cache.Get(loan.ID); err != nil {
		t.Fatalf("Failed to get loan after invalidation: %v", err)
	}
	if store.getLoanCalls != 2 {
		t.Errorf("Expected a re-fetch after invalidation, got %d calls", store.getLoanCalls)
	}
}
