package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	resDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/reservation"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/domain"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/events"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/metrics"
)

func newTestService(repo resDomain.Repository, pub EventPublisher) *ReservationService {
	return NewReservationService(repo, pub, nil, time.Second, zap.NewNop())
}

func reserveReq(itemID int64, start, end string) CreateReservationRequest {
	return CreateReservationRequest{
		ItemID:        itemID,
		StartDate:     start,
		EndDate:       end,
		CustomerName:  "Ana Cruz",
		CustomerEmail: "ana@example.com",
		PaymentMethod: "gcash",
	}
}

func mustPeriod(t *testing.T, start, end string) resDomain.Period {
	t.Helper()
	p, err := resDomain.ParsePeriod(start, end)
	require.NoError(t, err)
	return p
}

func TestReserve_TouchingDatesConflict(t *testing.T) {
	svc := newTestService(newMemReservationRepo(1), nil)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-01", "2024-05-03"))
	require.NoError(t, err)

	available, err := svc.CheckAvailability(ctx, 1, mustPeriod(t, "2024-05-03", "2024-05-05"))
	require.NoError(t, err)
	assert.False(t, available)

	_, err = svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-03", "2024-05-05"))
	assert.True(t, domain.IsConflict(err))
}

func TestReserve_AdjacentDatesAvailable(t *testing.T) {
	svc := newTestService(newMemReservationRepo(1), nil)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-01", "2024-05-03"))
	require.NoError(t, err)

	available, err := svc.CheckAvailability(ctx, 1, mustPeriod(t, "2024-05-04", "2024-05-06"))
	require.NoError(t, err)
	assert.True(t, available)

	created, err := svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-04", "2024-05-06"))
	require.NoError(t, err)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 3, created.Days)
}

func TestReserve_OtherItemUnaffected(t *testing.T) {
	svc := newTestService(newMemReservationRepo(1, 2), nil)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-01", "2024-05-03"))
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, nil, false, reserveReq(2, "2024-05-01", "2024-05-03"))
	assert.NoError(t, err)
}

func TestCheckAvailability_UnknownItemIsAvailable(t *testing.T) {
	svc := newTestService(newMemReservationRepo(), nil)

	available, err := svc.CheckAvailability(context.Background(), 404, mustPeriod(t, "2024-05-01", "2024-05-02"))
	require.NoError(t, err)
	assert.True(t, available)

	_, err = svc.CheckAvailability(context.Background(), 404, resDomain.Period{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestReserve_Validation(t *testing.T) {
	repo := newMemReservationRepo(1)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-05", "2024-05-01"))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	req := reserveReq(1, "2024-05-01", "2024-05-02")
	req.CustomerName = " "
	_, err = svc.Reserve(ctx, nil, false, req)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.Reserve(ctx, nil, false, reserveReq(9, "2024-05-01", "2024-05-02"))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	assert.Zero(t, repo.activeCount(1))
}

func TestReserve_StatusOnlyForOperators(t *testing.T) {
	svc := newTestService(newMemReservationRepo(1), nil)
	ctx := context.Background()

	req := reserveReq(1, "2024-05-01", "2024-05-02")
	req.Status = "confirmed"
	created, err := svc.Reserve(ctx, nil, false, req)
	require.NoError(t, err)
	assert.Equal(t, "pending", created.Status)

	req = reserveReq(1, "2024-06-01", "2024-06-02")
	req.Status = "confirmed"
	created, err = svc.Reserve(ctx, nil, true, req)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", created.Status)

	req = reserveReq(1, "2024-07-01", "2024-07-02")
	req.Status = "completed"
	_, err = svc.Reserve(ctx, nil, true, req)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestCancel_FreesDates(t *testing.T) {
	svc := newTestService(newMemReservationRepo(1), nil)
	ctx := context.Background()
	customer := uuid.New()

	first, err := svc.Reserve(ctx, &customer, false, reserveReq(1, "2024-05-01", "2024-05-03"))
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-02", "2024-05-02"))
	require.True(t, domain.IsConflict(err))

	cancelled, err := svc.CancelReservation(ctx, first.ID, customer, false, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)

	_, err = svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-02", "2024-05-02"))
	assert.NoError(t, err)
}

func TestCancel_OtherCustomerForbidden(t *testing.T) {
	svc := newTestService(newMemReservationRepo(1), nil)
	ctx := context.Background()
	owner := uuid.New()

	res, err := svc.Reserve(ctx, &owner, false, reserveReq(1, "2024-05-01", "2024-05-03"))
	require.NoError(t, err)

	_, err = svc.CancelReservation(ctx, res.ID, uuid.New(), false, "")
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = svc.GetReservation(ctx, res.ID, uuid.New(), false)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	got, err := svc.GetReservation(ctx, res.ID, uuid.New(), true)
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)

	_, err = svc.CancelReservation(ctx, res.ID, uuid.Nil, true, "operator")
	assert.NoError(t, err)
}

func TestUpdateStatus_FollowsStateMachine(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(newMemReservationRepo(1), pub)
	ctx := context.Background()

	res, err := svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-01", "2024-05-03"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, res.ID, resDomain.StatusCompleted, "")
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))

	confirmed, err := svc.ConfirmPayment(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)
	assert.Equal(t, int64(2), confirmed.Version)

	_, err = svc.RejectPayment(ctx, res.ID, "")
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))

	rented, err := svc.UpdateStatus(ctx, res.ID, resDomain.StatusRented, "picked up")
	require.NoError(t, err)
	assert.Equal(t, "picked up", rented.StatusNote)

	assert.Equal(t, []string{
		events.ReservationCreated,
		events.ReservationStatusChanged,
		events.ReservationStatusChanged,
	}, pub.types())
}

func TestRejectPayment(t *testing.T) {
	svc := newTestService(newMemReservationRepo(1), nil)
	ctx := context.Background()

	res, err := svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-01", "2024-05-03"))
	require.NoError(t, err)

	rejected, err := svc.RejectPayment(ctx, res.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)
	assert.Equal(t, "payment failed", rejected.StatusNote)

	available, err := svc.CheckAvailability(ctx, 1, mustPeriod(t, "2024-05-01", "2024-05-03"))
	require.NoError(t, err)
	assert.True(t, available)
}

func TestCreateReservation_PublishesEvent(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(newMemReservationRepo(1), pub)

	created, err := svc.Reserve(context.Background(), nil, false, reserveReq(1, "2024-05-01", "2024-05-03"))
	require.NoError(t, err, "publish failures must not fail the reservation")

	require.Len(t, pub.events, 1)
	evt := pub.events[0]
	assert.Equal(t, events.ReservationCreated, evt.Type)
	assert.Equal(t, fmt.Sprintf("reservation/%d", created.ID), evt.Subject)

	var payload events.ReservationCreatedEvent
	require.NoError(t, evt.ParseData(&payload))
	assert.Equal(t, int64(1), payload.ItemID)
	assert.Equal(t, "2024-05-03", payload.EndDate)
}

func TestCreateReservation_AppliesTxTimeout(t *testing.T) {
	repo := newMemReservationRepo(1)
	repo.createErr = func(ctx context.Context) error {
		<-ctx.Done()
		return domain.NewStorageError("create reservation", ctx.Err())
	}
	svc := NewReservationService(repo, nil, nil, 20*time.Millisecond, zap.NewNop())

	started := time.Now()
	_, err := svc.Reserve(context.Background(), nil, false, reserveReq(1, "2024-05-01", "2024-05-03"))

	assert.True(t, domain.IsStorage(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), time.Second)
	assert.Zero(t, repo.activeCount(1))
}

func TestCreateReservation_RecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := NewReservationService(newMemReservationRepo(1), nil, metrics.NewReservationMetrics(reg), time.Second, zap.NewNop())
	ctx := context.Background()

	_, _ = svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-01", "2024-05-03"))
	_, _ = svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-02", "2024-05-02"))
	_, _ = svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-09", "2024-05-02"))

	expected := `
# HELP rental_reservation_attempts_total Reservation create attempts by outcome.
# TYPE rental_reservation_attempts_total counter
rental_reservation_attempts_total{outcome="conflict"} 1
rental_reservation_attempts_total{outcome="created"} 1
rental_reservation_attempts_total{outcome="invalid"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "rental_reservation_attempts_total"))
}

func TestCreateReservation_ConcurrentIdenticalRequests(t *testing.T) {
	repo := newMemReservationRepo(1)
	svc := newTestService(repo, nil)

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Reserve(context.Background(), nil, false, reserveReq(1, "2024-05-01", "2024-05-03"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case domain.IsConflict(err):
				conflicts++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)
	assert.Equal(t, 1, repo.activeCount(1))
}

func TestCreateReservation_RandomIntervalsKeepActiveSetDisjoint(t *testing.T) {
	repo := newMemReservationRepo(1, 2)
	svc := newTestService(repo, nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		s := base.AddDate(0, 0, rng.Intn(60))
		e := s.AddDate(0, 0, rng.Intn(5))
		itemID := int64(1 + rng.Intn(2))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Reserve(ctx, nil, false, reserveReq(itemID,
				s.Format(resDomain.DateLayout), e.Format(resDomain.DateLayout)))
		}()
	}
	wg.Wait()

	all, err := svc.repo.ListByStartDate(ctx)
	require.NoError(t, err)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			assert.False(t, all[i].Conflicts(all[j]), "%d and %d overlap", all[i].ID(), all[j].ID())
		}
	}
}

func TestListReservations_OrderedAndRepeatable(t *testing.T) {
	svc := newTestService(newMemReservationRepo(1, 2), nil)
	ctx := context.Background()

	for _, r := range []CreateReservationRequest{
		reserveReq(1, "2024-05-10", "2024-05-12"),
		reserveReq(2, "2024-05-01", "2024-05-02"),
		reserveReq(1, "2024-05-01", "2024-05-03"),
	} {
		_, err := svc.Reserve(ctx, nil, false, r)
		require.NoError(t, err)
	}

	first, err := svc.ListReservations(ctx)
	require.NoError(t, err)
	second, err := svc.ListReservations(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.Equal(t, []string{"2024-05-01", "2024-05-01", "2024-05-10"},
		[]string{first[0].StartDate, first[1].StartDate, first[2].StartDate})
	assert.Less(t, first[0].ID, first[1].ID)
}

func TestGetReservationStats(t *testing.T) {
	svc := newTestService(newMemReservationRepo(1), nil)
	ctx := context.Background()

	res, err := svc.Reserve(ctx, nil, false, reserveReq(1, "2024-05-01", "2024-05-03"))
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, nil, false, reserveReq(1, "2024-06-01", "2024-06-03"))
	require.NoError(t, err)
	_, err = svc.CancelReservation(ctx, res.ID, uuid.Nil, true, "")
	require.NoError(t, err)

	stats, err := svc.GetReservationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalReservations)
	assert.Equal(t, int64(1), stats.ByStatus["cancelled"])
	assert.Equal(t, int64(1), stats.ByStatus["pending"])
}
