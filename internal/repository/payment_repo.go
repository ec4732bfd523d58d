package repository

import (
	"errors"

	"landlords/internal/domain"
	"landlords/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateReference is returned when a payment reference was already recorded.
var ErrDuplicateReference = errors.New("payment reference already recorded")

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

// Create inserts the payment. A unique-reference violation becomes ErrDuplicateReference.
func (r *PaymentRepository) Create(p *models.Payment) error {
	err := r.db.Create(p).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateReference
	}
	return err
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByReference(ref string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("reference = ?", ref).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LockByReference selects the payment FOR UPDATE. Call inside a transaction.
func (r *PaymentRepository) LockByReference(ref string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("reference = ?", ref).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// HoldInitiated moves a still-initiated levy payment to pending and flags it for
// reconciliation. It reports false when the payment has already left initiated.
func (r *PaymentRepository) HoldInitiated(ref string, amountCents int64, note string) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("reference = ? AND status = ?", ref, domain.PaymentInitiated).
		Updates(map[string]interface{}{
			"status":               domain.PaymentPending,
			"amount_cents":         amountCents,
			"needs_reconciliation": true,
			"reconciliation_note":  ClipText(note, 255),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *PaymentRepository) Update(p *models.Payment) error {
	return r.db.Save(p).Error
}

func (r *PaymentRepository) ListByOwner(ownerID uint, limit, offset int) ([]models.Payment, error) {
	var list []models.Payment
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *PaymentRepository) ListByBooking(bookingID uint) ([]models.Payment, error) {
	var list []models.Payment
	err := r.db.Where("booking_id = ?", bookingID).Order("created_at ASC").Find(&list).Error
	return list, err
}

// PaymentFilter narrows the admin payment listing.
type PaymentFilter struct {
	Status         string
	Kind           string
	Reconciliation bool
}

// List returns payments with optional filters and pagination.
func (r *PaymentRepository) List(f PaymentFilter, page, limit int) ([]models.Payment, int64, error) {
	q := r.db.Model(&models.Payment{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Reconciliation {
		q = q.Where("needs_reconciliation = ?", true)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Payment
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListNeedingReconciliation returns held levy payments, oldest first. Completed
// payments that stay flagged await an admin decision and are not listed.
func (r *PaymentRepository) ListNeedingReconciliation(limit int) ([]models.Payment, error) {
	var list []models.Payment
	err := r.db.Where("needs_reconciliation = ? AND kind = ? AND status = ?", true, domain.PaymentKindLevy, domain.PaymentPending).
		Order("created_at ASC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *PaymentRepository) CountNeedingReconciliation() (int64, error) {
	var n int64
	err := r.db.Model(&models.Payment{}).Where("needs_reconciliation = ?", true).Count(&n).Error
	return n, err
}

// SumCompleted totals completed payments of a kind, for one owner when ownerID is non-zero.
func (r *PaymentRepository) SumCompleted(kind string, ownerID uint) (int64, error) {
	q := r.db.Model(&models.Payment{}).Where("status = ? AND kind = ?", domain.PaymentCompleted, kind)
	if ownerID != 0 {
		q = q.Where("owner_id = ?", ownerID)
	}
	var total struct{ Total int64 }
	err := q.Select("COALESCE(SUM(amount_cents), 0) AS total").Scan(&total).Error
	return total.Total, err
}
