package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creditline/loanledger/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	_, err = db.Exec("PRAGMA journal_mode = WAL;")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	log.Println("Database connection established and schema initialized.")
	return s, nil
}

// initSchema creates the database tables if they don't already exist and adds
// new columns if necessary. Decimal fields use TEXT so no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		lender TEXT NOT NULL DEFAULT '',
		borrower TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		base_currency TEXT NOT NULL,
		interest_rate_base TEXT NOT NULL DEFAULT '365',
		lending_date_exclusive_counting INTEGER NOT NULL DEFAULT 0,
		repayment_date_exclusive_counting INTEGER NOT NULL DEFAULT 1,
		capitalization INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		archived INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS events (
		event_id INTEGER PRIMARY KEY AUTOINCREMENT,
		loan_id TEXT NOT NULL,
		event_fact_date DATETIME NOT NULL,
		currency TEXT,
		currency_to_loan_rate TEXT,
		principal_lending_currency TEXT,
		principal_repayment_currency TEXT,
		interest_repayment_currency TEXT,
		capitalization TEXT,
		interest_rate TEXT,
		principal_balance_correction TEXT,
		interest_balance_correction TEXT,
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return err
	}

	// Columns added after the first release; existing databases pick them
	// up here.
	columns := []string{
		"description TEXT NOT NULL DEFAULT ''",
		"archived INTEGER NOT NULL DEFAULT 0",
	}

	for _, col := range columns {
		_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE loans ADD COLUMN %s", col))
		if err != nil && !isDuplicateColumnError(err) {
			return fmt.Errorf("failed to add column %s: %w", col, err)
		}
	}

	return nil
}

// isDuplicateColumnError checks if the error indicates a duplicate column.
func isDuplicateColumnError(err error) bool {
	if err == nil {
		return false
	}
	return err.Error() == "duplicate column name" || (len(err.Error()) > 21 && err.Error()[:21] == "duplicate column name")
}

// CreateLoan inserts a new loan into the database.
func (s *SQLiteStore) CreateLoan(loan *models.Loan) error {
	_, err := s.db.Exec(
		`INSERT INTO loans (id, lender, borrower, description, base_currency, interest_rate_base, lending_date_exclusive_counting, repayment_date_exclusive_counting, capitalization, created_at, updated_at, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.Lender, loan.Borrower, loan.Description, loan.BaseCurrency, string(loan.InterestRateBase), loan.LendingDateExclusive, loan.RepaymentDateExclusive, loan.Capitalization, loan.CreatedAt, loan.UpdatedAt, loan.Archived,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by its ID.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	var created, updated time.Time
	var loanIDStr, rateBase string

	row := s.db.QueryRow(`SELECT id, lender, borrower, description, base_currency, interest_rate_base, lending_date_exclusive_counting, repayment_date_exclusive_counting, capitalization, created_at, updated_at, archived FROM loans WHERE id = ?`, id.String())
	err := row.Scan(&loanIDStr, &loan.Lender, &loan.Borrower, &loan.Description, &loan.BaseCurrency, &rateBase, &loan.LendingDateExclusive, &loan.RepaymentDateExclusive, &loan.Capitalization, &created, &updated, &loan.Archived)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("loan not found")
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	loan.ID = uuid.MustParse(loanIDStr)
	loan.InterestRateBase = models.InterestRateBase(rateBase)
	loan.CreatedAt = created
	loan.UpdatedAt = updated
	return &loan, nil
}

// UpdateLoan updates an existing loan in the database.
func (s *SQLiteStore) UpdateLoan(loan *models.Loan) error {
	result, err := s.db.Exec(
		`UPDATE loans SET lender = ?, borrower = ?, description = ?, base_currency = ?, interest_rate_base = ?, lending_date_exclusive_counting = ?, repayment_date_exclusive_counting = ?, capitalization = ?, updated_at = ?, archived = ? WHERE id = ?`,
		loan.Lender, loan.Borrower, loan.Description, loan.BaseCurrency, string(loan.InterestRateBase), loan.LendingDateExclusive, loan.RepaymentDateExclusive, loan.Capitalization, loan.UpdatedAt, loan.Archived, loan.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("loan not found")
	}
	return nil
}

// DeleteLoan removes a loan and its events from the database within a transaction.
func (s *SQLiteStore) DeleteLoan(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM events WHERE loan_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete associated events: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM loans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("loan not found")
	}

	return tx.Commit()
}

// GetAllLoans retrieves all loans.
func (s *SQLiteStore) GetAllLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT id, lender, borrower, description, base_currency, interest_rate_base, lending_date_exclusive_counting, repayment_date_exclusive_counting, capitalization, created_at, updated_at, archived FROM loans`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		var loan models.Loan
		var created, updated time.Time
		var loanIDStr, rateBase string
		if err := rows.Scan(&loanIDStr, &loan.Lender, &loan.Borrower, &loan.Description, &loan.BaseCurrency, &rateBase, &loan.LendingDateExclusive, &loan.RepaymentDateExclusive, &loan.Capitalization, &created, &updated, &loan.Archived); err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loan.ID = uuid.MustParse(loanIDStr)
		loan.InterestRateBase = models.InterestRateBase(rateBase)
		loan.CreatedAt = created
		loan.UpdatedAt = updated
		loans = append(loans, &loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}

// decimalArg renders an optional decimal for a nullable TEXT column.
func decimalArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// scanDecimal parses a nullable TEXT column back into an optional decimal.
func scanDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateEvent inserts a new event and assigns its event id from the store.
func (s *SQLiteStore) CreateEvent(event *models.RawEvent) error {
	var currency interface{}
	if event.Currency != nil {
		currency = *event.Currency
	}
	result, err := s.db.Exec(
		`INSERT INTO events (loan_id, event_fact_date, currency, currency_to_loan_rate, principal_lending_currency, principal_repayment_currency, interest_repayment_currency, capitalization, interest_rate, principal_balance_correction, interest_balance_correction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.LoanID.String(), event.FactDate, currency, decimalArg(event.CurrencyToLoanRate),
		decimalArg(event.PrincipalLending), decimalArg(event.PrincipalRepayment), decimalArg(event.InterestRepayment),
		decimalArg(event.Capitalization), decimalArg(event.InterestRate),
		decimalArg(event.PrincipalBalanceCorrection), decimalArg(event.InterestBalanceCorrection),
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event id: %w", err)
	}
	event.EventID = id
	return nil
}

// GetEventsForLoan retrieves all events for a given loan ID.
func (s *SQLiteStore) GetEventsForLoan(loanID uuid.UUID) ([]models.RawEvent, error) {
	rows, err := s.db.Query(`SELECT event_id, loan_id, event_fact_date, currency, currency_to_loan_rate, principal_lending_currency, principal_repayment_currency, interest_repayment_currency, capitalization, interest_rate, principal_balance_correction, interest_balance_correction FROM events WHERE loan_id = ? ORDER BY event_id ASC`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get events for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var events []models.RawEvent
	for rows.Next() {
		var event models.RawEvent
		var loanIDStr string
		var factDate time.Time
		var currency, rate, lending, principalRepayment, interestRepayment, capitalization, interestRate, principalCorrection, interestCorrection sql.NullString
		if err := rows.Scan(&event.EventID, &loanIDStr, &factDate, &currency, &rate, &lending, &principalRepayment, &interestRepayment, &capitalization, &interestRate, &principalCorrection, &interestCorrection); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		event.LoanID = uuid.MustParse(loanIDStr)
		event.FactDate = factDate
		if currency.Valid {
			ticker := currency.String
			event.Currency = &ticker
		}
		for _, field := range []struct {
			src sql.NullString
			dst **decimal.Decimal
		}{
			{rate, &event.CurrencyToLoanRate},
			{lending, &event.PrincipalLending},
			{principalRepayment, &event.PrincipalRepayment},
			{interestRepayment, &event.InterestRepayment},
			{capitalization, &event.Capitalization},
			{interestRate, &event.InterestRate},
			{principalCorrection, &event.PrincipalBalanceCorrection},
			{interestCorrection, &event.InterestBalanceCorrection},
		} {
			d, err := scanDecimal(field.src)
			if err != nil {
				return nil, fmt.Errorf("failed to parse decimal for event %d: %w", event.EventID, err)
			}
			*field.dst = d
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for loan events: %w", err)
	}
	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
