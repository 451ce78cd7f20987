package timeline

import (
	"sync"

	"github.com/google/uuid"

	"github.com/creditline/loanledger/pkg/models"
	"github.com/creditline/loanledger/pkg/store"
)

// LoanCache is a read-through cache over the loan store. It is owned by the
// caller and passed into the Calculator, so test isolation and invalidation
// stay explicit.
type LoanCache struct {
	storage store.Storage
	mu      sync.Mutex
	loans   map[uuid.UUID]*models.Loan
}

func NewLoanCache(s store.Storage) *LoanCache {
	return &LoanCache{
		storage: s,
		loans:   make(map[uuid.UUID]*models.Loan),
	}
}

// Get returns the cached loan, fetching it from the store on first use.
func (c *LoanCache) Get(id uuid.UUID) (*models.Loan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if loan, ok := c.loans[id]; ok {
		return loan, nil
	}
	loan, err := c.storage.GetLoan(id)
	if err != nil {
		return nil, err
	}
	c.loans[id] = loan
	return loan, nil
}

// Invalidate drops one loan from the cache, forcing a re-fetch on next Get.
func (c *LoanCache) Invalidate(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.loans, id)
}
