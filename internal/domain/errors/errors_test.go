package errors

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	derived := ErrLedgerOutOfOrder.WithDetails(map[string]interface{}{
		"position": 3,
		"date":     "2025-01-15",
	})

	require.NotSame(t, ErrLedgerOutOfOrder, derived)
	assert.Nil(t, ErrLedgerOutOfOrder.Details, "sentinel must stay pristine")
	assert.Equal(t, 3, derived.Details["position"])
	assert.Equal(t, ErrLedgerOutOfOrder.Code, derived.Code)
	assert.Equal(t, ErrLedgerOutOfOrder.Type, derived.Type)
}

func TestWithDetails_DerivedErrorsAreIndependent(t *testing.T) {
	first := ErrInvalidLoanTerm.WithDetails(map[string]interface{}{"term_months": -1})
	second := ErrInvalidLoanTerm.WithDetails(map[string]interface{}{"term_months": 0})

	assert.Equal(t, -1, first.Details["term_months"])
	assert.Equal(t, 0, second.Details["term_months"])
	assert.Nil(t, ErrInvalidLoanTerm.Details)
}

func TestWithCause_DoesNotMutateSentinel(t *testing.T) {
	cause := fmt.Errorf("parse failure")
	derived := ErrInvalidInput.WithCause(cause)

	assert.Nil(t, ErrInvalidInput.Cause)
	assert.Same(t, cause, derived.Cause)
	assert.ErrorIs(t, derived, cause)
}

func TestWithDetails_ConcurrentDerivation(t *testing.T) {
	const workers = 16
	const rounds = 200

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				derived := ErrScoreInconsistency.WithDetails(map[string]interface{}{
					"worker": worker,
				})
				if got := derived.Details["worker"]; got != worker {
					t.Errorf("details crossed between derivations: got %v, want %d", got, worker)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Nil(t, ErrScoreInconsistency.Details)
}
