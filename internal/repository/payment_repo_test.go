package repository

import (
	"strings"
	"testing"
	"unicode/utf8"

	"landlords/internal/domain"
	"landlords/internal/models"
	"landlords/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentReferenceIsUnique(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPaymentRepository(db)
	p := func() *models.Payment {
		return &models.Payment{
			Kind: domain.PaymentKindLevy, Method: domain.PaymentMethodGateway,
			Reference: "levy-dup", AmountCents: 5000, Currency: "GHS", Status: domain.PaymentCompleted,
		}
	}
	require.NoError(t, repo.Create(p()))
	assert.ErrorIs(t, repo.Create(p()), ErrDuplicateReference)

	got, err := repo.GetByReference("levy-dup")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.AmountCents)

	_, err = repo.GetByReference("missing")
	assert.True(t, IsNotFound(err))
}

func TestPaymentListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPaymentRepository(db)
	for i, ref := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(&models.Payment{
			Kind: domain.PaymentKindLevy, Method: domain.PaymentMethodGateway, Reference: ref,
			AmountCents: 100, Currency: "GHS", Status: domain.PaymentPending, NeedsReconciliation: i == 0,
		}))
	}
	list, total, err := repo.List(PaymentFilter{Reconciliation: true}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "a", list[0].Reference)

	pending, err := repo.ListNeedingReconciliation(10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	// A flagged completed payment waits for an admin, not for the reconciler.
	require.NoError(t, repo.Create(&models.Payment{
		Kind: domain.PaymentKindLevy, Method: domain.PaymentMethodGateway, Reference: "d",
		AmountCents: 100, Currency: "GHS", Status: domain.PaymentCompleted, NeedsReconciliation: true,
	}))
	pending, err = repo.ListNeedingReconciliation(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a", pending[0].Reference)
}

func TestHoldInitiated(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPaymentRepository(db)
	require.NoError(t, repo.Create(&models.Payment{
		Kind: domain.PaymentKindLevy, Method: domain.PaymentMethodGateway, Reference: "levy-h",
		AmountCents: 5000, Currency: "GHS", Status: domain.PaymentInitiated,
	}))

	held, err := repo.HoldInitiated("levy-h", 5000, "room update failed: "+strings.Repeat("ü", 200))
	require.NoError(t, err)
	assert.True(t, held)

	got, err := repo.GetByReference("levy-h")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, got.Status)
	assert.True(t, got.NeedsReconciliation)
	assert.True(t, utf8.ValidString(got.ReconciliationNote))
	assert.LessOrEqual(t, len(got.ReconciliationNote), 255)

	held, err = repo.HoldInitiated("levy-h", 5000, "again")
	require.NoError(t, err)
	assert.False(t, held)
}
