package store

import (
	"github.com/google/uuid"

	"github.com/creditline/loanledger/pkg/models"
)

// Storage defines the interface for database operations related to loans and
// their financial events.
type Storage interface {
	CreateLoan(loan *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	UpdateLoan(loan *models.Loan) error
	DeleteLoan(id uuid.UUID) error
	GetAllLoans() ([]*models.Loan, error)

	CreateEvent(event *models.RawEvent) error
	GetEventsForLoan(loanID uuid.UUID) ([]models.RawEvent, error)

	Close() error
}
