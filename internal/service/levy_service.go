package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"landlords/config"
	"landlords/internal/apperr"
	"landlords/internal/domain"
	"landlords/internal/logger"
	"landlords/internal/models"
	"landlords/internal/repository"
	"landlords/pkg/levy"
	"landlords/pkg/payment"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const reconcileBatch = 100

type RoomLevy struct {
	RoomID        uint        `json:"room_id"`
	PropertyID    uint        `json:"property_id"`
	PropertyName  string      `json:"property_name"`
	RoomNumber    string      `json:"room_number"`
	Status        levy.Status `json:"status"`
	ExpiryDate    *string     `json:"expiry_date"`
	DaysRemaining *int        `json:"days_remaining"`
	RenewalCount  int         `json:"renewal_count"`
}

type LevySummary struct {
	levy.Quote
	Currency string     `json:"currency"`
	Rooms    []RoomLevy `json:"rooms"`
}

type Checkout struct {
	Reference   string     `json:"reference"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	CheckoutURL string     `json:"checkout_url,omitempty"`
	AccessCode  string     `json:"access_code,omitempty"`
	Quote       levy.Quote `json:"quote"`
}

// VerifyRequest carries what the client reports after checkout. Only Reference is
// trusted; the other figures are compared with the server's and logged on mismatch.
type VerifyRequest struct {
	Reference     string
	AmountCents   int64
	PendingRooms  int
	ExpiredRooms  int
	DiscountCents int64
}

type VerifyResult struct {
	Reference        string `json:"reference"`
	AlreadyProcessed bool   `json:"already_processed"`
	RoomsUpdated     int    `json:"rooms_updated"`
	AmountCents      int64  `json:"amount_cents"`
	Currency         string `json:"currency"`
}

type ReconcileReport struct {
	Checked int `json:"checked"`
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

type ApproveResult struct {
	Approved   []uint `json:"approved"`
	Skipped    []uint `json:"skipped"`
	ExpiryDate string `json:"expiry_date"`
}

var (
	errReconcileDeferred = errors.New("reconciliation deferred")
	errSettledElsewhere  = errors.New("payment settled by another request")
)

// LevyService runs the room levy lifecycle: quote, checkout, verification,
// reconciliation, approval and expiry reminders.
type LevyService struct {
	db       *gorm.DB
	cfg      config.LevyConfig
	provider payment.Provider
	rooms    *repository.RoomRepository
	payments *repository.PaymentRepository
	settings *repository.SettingRepository
	users    *repository.UserRepository
	notifs   *repository.NotificationRepository
	notif    *NotificationService
	now      Clock

	// CallbackURL is where the gateway sends the payer after checkout.
	CallbackURL string
}

func NewLevyService(db *gorm.DB, cfg config.LevyConfig, provider payment.Provider, rooms *repository.RoomRepository, payments *repository.PaymentRepository, settings *repository.SettingRepository, users *repository.UserRepository, notifs *repository.NotificationRepository, notif *NotificationService) *LevyService {
	return &LevyService{
		db:       db,
		cfg:      cfg,
		provider: provider,
		rooms:    rooms,
		payments: payments,
		settings: settings,
		users:    users,
		notifs:   notifs,
		notif:    notif,
		now:      utcNow,
	}
}

// SetClock replaces the service clock.
func (s *LevyService) SetClock(c Clock) { s.now = c }

func (s *LevyService) Pricing() levy.Pricing {
	return currentPricing(s.settings, s.cfg)
}

// Summary lists the owner's rooms with their effective levy status and the amount now due.
func (s *LevyService) Summary(ctx context.Context, ownerID uint) (*LevySummary, error) {
	rooms, err := s.rooms.ListByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := &LevySummary{Currency: s.cfg.Currency, Rooms: make([]RoomLevy, 0, len(rooms))}
	var pending, expired int
	for i := range rooms {
		r := &rooms[i]
		status := r.EffectiveLevyStatus(now)
		switch status {
		case levy.StatusPending:
			pending++
		case levy.StatusExpired:
			expired++
		}
		rl := RoomLevy{
			RoomID:        r.ID,
			PropertyID:    r.PropertyID,
			RoomNumber:    r.RoomNumber,
			Status:        status,
			DaysRemaining: levy.DaysRemaining(r.LevyExpiryDate, now),
			RenewalCount:  r.RenewalCount,
		}
		if r.Property != nil {
			rl.PropertyName = r.Property.Name
		}
		if r.LevyExpiryDate != nil {
			d := r.LevyExpiryDate.Format(levy.DateLayout)
			rl.ExpiryDate = &d
		}
		out.Rooms = append(out.Rooms, rl)
	}
	out.Quote = levy.CalculateFee(pending, expired, s.Pricing())
	return out, nil
}

// Initiate prices the owner's due rooms and opens a checkout with the gateway.
// The checkout reference is recorded against the owner before it is returned,
// and only recorded references can later be verified.
func (s *LevyService) Initiate(ctx context.Context, ownerID uint) (*Checkout, error) {
	pending, expired, err := s.rooms.LevyDueCounts(ownerID, s.now())
	if err != nil {
		return nil, err
	}
	q := levy.CalculateFee(pending, expired, s.Pricing())
	if !q.PaymentRequired {
		return nil, apperr.ErrNothingDue
	}
	owner, err := s.users.GetByID(ownerID)
	if err != nil {
		return nil, err
	}
	resp, err := s.provider.InitiatePayment(ctx, payment.PaymentRequest{
		OwnerID:     ownerID,
		Reference:   "levy-" + uuid.NewString(),
		AmountCents: q.AmountDueCents,
		Currency:    s.cfg.Currency,
		Email:       owner.Email,
		Name:        owner.Name,
		Description: fmt.Sprintf("Room levy for %d room(s)", q.Rooms),
		CallbackURL: s.CallbackURL,
		Metadata:    map[string]interface{}{"owner_id": ownerID, "rooms": q.Rooms},
	})
	if err != nil {
		logger.Logger.WithError(err).WithField("owner_id", ownerID).Error("levy checkout failed")
		return nil, fmt.Errorf("%w: %v", apperr.ErrGateway, err)
	}
	p := &models.Payment{
		Kind:          domain.PaymentKindLevy,
		Method:        domain.PaymentMethodGateway,
		OwnerID:       &ownerID,
		Provider:      s.provider.Name(),
		Reference:     resp.Reference,
		AmountCents:   q.AmountDueCents,
		Currency:      s.cfg.Currency,
		Status:        domain.PaymentInitiated,
		PendingRooms:  q.PendingRooms,
		ExpiredRooms:  q.ExpiredRooms,
		DiscountCents: q.DiscountCents,
	}
	if err := s.payments.Create(p); err != nil {
		logger.Logger.WithError(err).WithFields(logrus.Fields{"owner_id": ownerID, "reference": resp.Reference}).
			Error("could not record levy checkout")
		return nil, err
	}
	return &Checkout{
		Reference:   resp.Reference,
		AmountCents: q.AmountDueCents,
		Currency:    s.cfg.Currency,
		CheckoutURL: resp.CheckoutURL,
		AccessCode:  resp.AccessCode,
		Quote:       q,
	}, nil
}

// VerifyPayment confirms a levy payment with the gateway and moves the owner's
// due rooms to paid. The reference must come from the owner's own checkout and
// is applied at most once.
func (s *LevyService) VerifyPayment(ctx context.Context, ownerID uint, req VerifyRequest) (*VerifyResult, error) {
	ref := strings.TrimSpace(req.Reference)
	if ref == "" {
		return nil, apperr.Validation([]string{"reference is required"})
	}
	log := logger.Logger.WithFields(logrus.Fields{"owner_id": ownerID, "reference": ref})

	existing, err := s.payments.GetByReference(ref)
	if repository.IsNotFound(err) {
		log.Warn("reference was not issued by a levy checkout")
		return nil, apperr.ErrPaymentNotVerified
	}
	if err != nil {
		return nil, err
	}
	if !ownedLevy(existing, ownerID) {
		log.Warn("reference belongs to another owner")
		return nil, errForeignReference()
	}
	if existing.Status != domain.PaymentInitiated {
		return s.alreadyProcessed(existing)
	}

	v, err := s.provider.VerifyPayment(ctx, ref)
	if err != nil {
		if errors.Is(err, payment.ErrUnknownReference) {
			log.Warn("gateway does not know reference")
			return nil, apperr.ErrPaymentNotVerified
		}
		log.WithError(err).Error("gateway verify failed")
		return nil, fmt.Errorf("%w: %v", apperr.ErrGateway, err)
	}
	if !v.Succeeded() {
		log.WithField("gateway_status", v.Status).Info("payment not successful, rooms unchanged")
		return nil, apperr.ErrPaymentNotVerified
	}
	if v.OwnerID != 0 && v.OwnerID != ownerID {
		log.WithField("gateway_owner_id", v.OwnerID).Warn("gateway metadata names another owner")
		return nil, errForeignReference()
	}

	now := s.now()
	pricing := s.Pricing()
	var (
		p     *models.Payment
		quote levy.Quote
		held  error
	)
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := s.payments.WithTx(tx)
		locked, err := payments.LockByReference(ref)
		if err != nil {
			return err
		}
		p = locked
		if p.Status != domain.PaymentInitiated {
			return errSettledElsewhere
		}
		p.AmountCents = v.AmountCents
		if !sameCurrency(v.Currency, p.Currency) {
			held = apperr.ErrCurrencyMismatch
			p.Status = domain.PaymentPending
			p.NeedsReconciliation = true
			p.ReconciliationNote = fmt.Sprintf("paid %d %s, levy is charged in %s", v.AmountCents, v.Currency, p.Currency)
			return payments.Update(p)
		}
		ids, renewed, q, err := s.lockDue(tx, ownerID, now, pricing)
		if err != nil {
			return err
		}
		quote = q
		p.PendingRooms, p.ExpiredRooms, p.DiscountCents = q.PendingRooms, q.ExpiredRooms, q.DiscountCents
		if v.AmountCents < q.AmountDueCents {
			held = apperr.ErrAmountMismatch
			p.Status = domain.PaymentPending
			p.NeedsReconciliation = true
			p.ReconciliationNote = fmt.Sprintf("paid %d below amount due %d", v.AmountCents, q.AmountDueCents)
			return payments.Update(p)
		}
		if len(ids) == 0 {
			p.NeedsReconciliation = true
			p.ReconciliationNote = "no levy-due rooms at verification"
		}
		if err := s.rooms.WithTx(tx).MarkLevyPaid(ids, renewed); err != nil {
			return err
		}
		p.RoomsCovered = len(ids)
		p.Status = domain.PaymentCompleted
		return payments.Update(p)
	})

	switch {
	case errors.Is(txErr, errSettledElsewhere):
		return s.alreadyProcessed(p)
	case txErr != nil:
		s.recordForReconciliation(ownerID, ref, v, txErr)
		return nil, apperr.New(http.StatusInternalServerError, apperr.CodeInternal,
			"payment received; room update will be retried", txErr)
	case held != nil:
		log.WithFields(logrus.Fields{
			"paid_cents": v.AmountCents, "due_cents": quote.AmountDueCents, "paid_currency": v.Currency,
		}).Warn("levy payment held for reconciliation")
		return nil, held
	}

	if req.AmountCents != v.AmountCents || req.PendingRooms != quote.PendingRooms || req.ExpiredRooms != quote.ExpiredRooms || req.DiscountCents != quote.DiscountCents {
		log.WithFields(logrus.Fields{
			"client_amount_cents": req.AmountCents, "gateway_amount_cents": v.AmountCents,
			"client_pending": req.PendingRooms, "server_pending": quote.PendingRooms,
			"client_expired": req.ExpiredRooms, "server_expired": quote.ExpiredRooms,
		}).Warn("client-reported levy figures differ from server")
	}
	log.WithField("rooms", p.RoomsCovered).Info("levy payment verified")
	s.notif.NotifyLevyVerified(ownerID, ref, p.RoomsCovered, p.AmountCents, p.Currency)
	return &VerifyResult{
		Reference:    ref,
		RoomsUpdated: p.RoomsCovered,
		AmountCents:  p.AmountCents,
		Currency:     p.Currency,
	}, nil
}

// lockDue locks the owner's levy-due rooms and prices them. renewed holds the rooms that were expired.
func (s *LevyService) lockDue(tx *gorm.DB, ownerID uint, now time.Time, pricing levy.Pricing) (ids, renewed []uint, q levy.Quote, err error) {
	due, err := s.rooms.WithTx(tx).LockLevyDue(ownerID, now)
	if err != nil {
		return nil, nil, q, err
	}
	var pending int
	for i := range due {
		ids = append(ids, due[i].ID)
		if due[i].EffectiveLevyStatus(now) == levy.StatusExpired {
			renewed = append(renewed, due[i].ID)
		} else {
			pending++
		}
	}
	return ids, renewed, levy.CalculateFee(pending, len(renewed), pricing), nil
}

func ownedLevy(p *models.Payment, ownerID uint) bool {
	return p.Kind == domain.PaymentKindLevy && p.OwnerID != nil && *p.OwnerID == ownerID
}

func errForeignReference() error {
	return apperr.New(http.StatusConflict, apperr.CodeConflict, "reference belongs to another checkout", apperr.ErrConflict)
}

// sameCurrency treats a gateway that reports no currency as paying in the checkout currency.
func sameCurrency(paid, charged string) bool {
	return paid == "" || strings.EqualFold(paid, charged)
}

func (s *LevyService) alreadyProcessed(p *models.Payment) (*VerifyResult, error) {
	if p.Status != domain.PaymentCompleted {
		return nil, apperr.New(http.StatusAccepted, apperr.CodeReconciliationPending,
			"payment received and awaiting reconciliation", nil)
	}
	return &VerifyResult{
		Reference:        p.Reference,
		AlreadyProcessed: true,
		RoomsUpdated:     p.RoomsCovered,
		AmountCents:      p.AmountCents,
		Currency:         p.Currency,
	}, nil
}

// recordForReconciliation holds a gateway-confirmed payment whose room update failed.
func (s *LevyService) recordForReconciliation(ownerID uint, ref string, v *payment.Verification, cause error) {
	log := logger.Logger.WithFields(logrus.Fields{"owner_id": ownerID, "reference": ref})
	held, err := s.payments.HoldInitiated(ref, v.AmountCents, "room update failed: "+cause.Error())
	switch {
	case err != nil:
		log.WithError(err).Error("could not record confirmed payment for reconciliation")
	case !held:
		log.WithError(cause).Warn("levy room update failed after the payment was settled elsewhere")
	default:
		log.WithError(cause).Error("levy room update failed, payment queued for reconciliation")
	}
}

// Reconcile re-applies gateway-confirmed levy payments that could not be applied when verified.
func (s *LevyService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	list, err := s.payments.ListNeedingReconciliation(reconcileBatch)
	if err != nil {
		return nil, err
	}
	report := &ReconcileReport{}
	for i := range list {
		if ctx.Err() != nil {
			break
		}
		report.Checked++
		applied, err := s.reconcileOne(ctx, &list[i])
		if err != nil {
			logger.Logger.WithError(err).WithField("reference", list[i].Reference).Warn("reconciliation failed")
		}
		if applied {
			report.Applied++
		} else {
			report.Skipped++
		}
	}
	if report.Checked > 0 {
		logger.Logger.Infof("levy reconciliation: checked=%d applied=%d skipped=%d", report.Checked, report.Applied, report.Skipped)
	}
	return report, nil
}

// reconcileOne retries a held payment. Payments in another currency wait for an
// admin. When no rooms are due any more the payment is completed but stays
// flagged, so the funds remain visible for a refund decision.
func (s *LevyService) reconcileOne(ctx context.Context, p *models.Payment) (bool, error) {
	if p.OwnerID == nil || p.Status != domain.PaymentPending {
		return false, nil
	}
	v, err := s.provider.VerifyPayment(ctx, p.Reference)
	if err != nil {
		return false, err
	}
	if !v.Succeeded() || !sameCurrency(v.Currency, p.Currency) {
		return false, nil
	}
	ownerID := *p.OwnerID
	now := s.now()
	pricing := s.Pricing()
	var nothingDue bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, renewed, q, err := s.lockDue(tx, ownerID, now, pricing)
		if err != nil {
			return err
		}
		if len(ids) > 0 && v.AmountCents < q.AmountDueCents {
			return errReconcileDeferred
		}
		if err := s.rooms.WithTx(tx).MarkLevyPaid(ids, renewed); err != nil {
			return err
		}
		p.AmountCents = v.AmountCents
		p.PendingRooms, p.ExpiredRooms, p.DiscountCents = q.PendingRooms, q.ExpiredRooms, q.DiscountCents
		p.RoomsCovered = len(ids)
		p.Status = domain.PaymentCompleted
		p.ReconciledAt = &now
		if len(ids) == 0 {
			nothingDue = true
			p.ReconciliationNote = "no levy-due rooms at reconciliation"
		} else {
			p.NeedsReconciliation = false
		}
		return s.payments.WithTx(tx).Update(p)
	})
	if errors.Is(err, errReconcileDeferred) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if nothingDue {
		logger.Logger.WithField("reference", p.Reference).Warn("held levy payment found no due rooms, left for an admin")
		return false, nil
	}
	s.notif.NotifyLevyVerified(ownerID, p.Reference, p.RoomsCovered, p.AmountCents, p.Currency)
	return true, nil
}

// Approve moves paid rooms to approved with a fresh expiry date. With roomIDs
// empty, every paid room of ownerID is approved. Rooms that are not paid are skipped.
func (s *LevyService) Approve(ctx context.Context, roomIDs []uint, ownerID uint) (*ApproveResult, error) {
	if len(roomIDs) == 0 && ownerID == 0 {
		return nil, apperr.Validation([]string{"room_ids or owner_id is required"})
	}
	now := s.now()
	expiry := levy.ExpiryFrom(now, s.cfg.ValidityDays)
	res := &ApproveResult{Approved: []uint{}, Skipped: []uint{}, ExpiryDate: expiry.Format(levy.DateLayout)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rooms := s.rooms.WithTx(tx)
		paid, err := rooms.LockPaid(roomIDs, ownerID)
		if err != nil {
			return err
		}
		seen := make(map[uint]bool, len(paid))
		for _, r := range paid {
			res.Approved = append(res.Approved, r.ID)
			seen[r.ID] = true
		}
		for _, id := range roomIDs {
			if !seen[id] {
				res.Skipped = append(res.Skipped, id)
			}
		}
		return rooms.Approve(res.Approved, expiry)
	})
	if err != nil {
		return nil, err
	}
	owners, err := s.rooms.OwnersOf(res.Approved)
	if err != nil {
		logger.Logger.WithError(err).Warn("could not resolve owners of approved rooms")
	}
	for owner, n := range owners {
		s.notif.NotifyLevyApproved(owner, n, res.ExpiryDate)
	}
	logger.Logger.Infof("levy approval: approved=%d skipped=%d expiry=%s", len(res.Approved), len(res.Skipped), res.ExpiryDate)
	return res, nil
}

// ApproveOwner approves every paid room of one owner.
func (s *LevyService) ApproveOwner(ctx context.Context, ownerID uint) (*ApproveResult, error) {
	if ownerID == 0 {
		return nil, apperr.Validation([]string{"owner_id is required"})
	}
	return s.Approve(ctx, nil, ownerID)
}

// RemindExpiring notifies owners whose approved rooms expire within the reminder
// window, at most once per owner per day.
func (s *LevyService) RemindExpiring(ctx context.Context) (int, error) {
	now := s.now()
	days := int(math.Ceil(s.cfg.ReminderWindow.Hours() / 24))
	rooms, err := s.rooms.ListExpiringWithin(now, days)
	if err != nil {
		return 0, err
	}
	byOwner := map[uint][]models.Room{}
	for _, r := range rooms {
		if r.Property == nil || r.Property.Deleted {
			continue
		}
		byOwner[r.Property.OwnerID] = append(byOwner[r.Property.OwnerID], r)
	}
	owners := make([]uint, 0, len(byOwner))
	for id := range byOwner {
		owners = append(owners, id)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })

	sent := 0
	for _, ownerID := range owners {
		if ctx.Err() != nil {
			break
		}
		already, err := s.notifs.ExistsSince(ownerID, domain.NotifLevyExpiring, levy.Today(now))
		if err != nil {
			return sent, err
		}
		if already {
			continue
		}
		s.notif.NotifyLevyExpiring(ownerID, byOwner[ownerID], s.now)
		sent++
	}
	return sent, nil
}
