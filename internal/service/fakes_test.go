package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"landlords/config"
	"landlords/internal/models"
	"landlords/internal/repository"
	"landlords/internal/testutil"
	"landlords/pkg/mailer"
	"landlords/pkg/payment"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeGateway answers verification from a table of references. When arrive is
// set, each verification waits on it so concurrent callers reach the gateway together.
type fakeGateway struct {
	mu       sync.Mutex
	results  map[string]*payment.Verification
	err      error
	verifies int
	arrive   *sync.WaitGroup
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{results: map[string]*payment.Verification{}}
}

func (g *fakeGateway) paid(ref string, cents int64) {
	g.settle(payment.Verification{Reference: ref, Status: payment.StatusSuccess, AmountCents: cents, Currency: "GHS"})
}

func (g *fakeGateway) settle(v payment.Verification) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[v.Reference] = &v
}

func (g *fakeGateway) failed(ref string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[ref] = &payment.Verification{Reference: ref, Status: payment.StatusFailed}
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) InitiatePayment(ctx context.Context, req payment.PaymentRequest) (*payment.PaymentResponse, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &payment.PaymentResponse{Reference: req.Reference, Status: "pending", CheckoutURL: "https://pay.test/" + req.Reference}, nil
}

func (g *fakeGateway) VerifyPayment(ctx context.Context, ref string) (*payment.Verification, error) {
	if g.arrive != nil {
		g.arrive.Done()
		g.arrive.Wait()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifies++
	if g.err != nil {
		return nil, g.err
	}
	v, ok := g.results[ref]
	if !ok {
		return nil, payment.ErrUnknownReference
	}
	cp := *v
	return &cp, nil
}

// fakeMailer records messages and fails for addresses listed in fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail map[string]bool
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[msg.ToEmail] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

var testLevyConfig = config.LevyConfig{
	FeePerRoomCents:   5000,
	DiscountThreshold: 10,
	DiscountPercent:   10,
	ValidityDays:      365,
	Currency:          "GHS",
	ReminderWindow:    7 * 24 * time.Hour,
}

type levyFixture struct {
	db      *gorm.DB
	gateway *fakeGateway
	svc     *LevyService
	notifs  *repository.NotificationRepository
}

func newLevyFixture(t *testing.T) *levyFixture {
	t.Helper()
	db := testutil.NewDB(t)
	gw := newFakeGateway()
	notifs := repository.NewNotificationRepository(db)
	svc := NewLevyService(db, testLevyConfig, gw,
		repository.NewRoomRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewSettingRepository(db),
		repository.NewUserRepository(db),
		notifs,
		NewNotificationService(notifs),
	)
	return &levyFixture{db: db, gateway: gw, svc: svc, notifs: notifs}
}

// checkout opens a levy checkout for ownerID and returns its reference.
func (f *levyFixture) checkout(t *testing.T, ownerID uint) string {
	t.Helper()
	co, err := f.svc.Initiate(context.Background(), ownerID)
	require.NoError(t, err)
	return co.Reference
}

func paymentByReference(t *testing.T, db *gorm.DB, ref string) models.Payment {
	t.Helper()
	var p models.Payment
	require.NoError(t, db.Where("reference = ?", ref).First(&p).Error)
	return p
}

func reloadRooms(t *testing.T, db *gorm.DB, rooms []models.Room) []models.Room {
	t.Helper()
	out := make([]models.Room, len(rooms))
	for i, r := range rooms {
		require.NoError(t, db.First(&out[i], r.ID).Error)
	}
	return out
}

func countPayments(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&n).Error)
	return n
}
