package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palestra/internal/amqp"
	"palestra/internal/core"
)

type fakeSyncer struct {
	synced  []int64
	err     error
	pending int
}

func (f *fakeSyncer) SyncPayment(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakeSyncer) ProcessPending(context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.pending, nil
}

type countingPurger struct{ purges int }

func (c *countingPurger) Purge(context.Context) { c.purges++ }

func TestEventWorker_PaymentRecorded(t *testing.T) {
	syncer := &fakeSyncer{}
	purger := &countingPurger{}
	w := NewEventWorker(syncer, purger)

	err := w.HandleEvent(context.Background(), amqp.NewEventMessage(amqp.EventPaymentRecorded, 12, 3))
	require.NoError(t, err)
	assert.Equal(t, []int64{12}, syncer.synced)
	assert.Equal(t, 1, purger.purges)
}

func TestEventWorker_PaymentErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"missing payment is acked", core.NewNotFound(core.KindPayment, 12), false},
		{"ledger failure requeues", errors.New("sheets unavailable"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewEventWorker(&fakeSyncer{err: tt.err}, nil)
			err := w.HandleEvent(context.Background(), amqp.NewEventMessage(amqp.EventPaymentRecorded, 12, 3))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEventWorker_OtherEventsAreAcked(t *testing.T) {
	syncer := &fakeSyncer{}
	w := NewEventWorker(syncer, nil)

	for _, typ := range []amqp.EventType{
		amqp.EventMemberCreated,
		amqp.EventMembershipExpired,
		amqp.EventAttendanceRecorded,
		amqp.EventType("something.else"),
	} {
		assert.NoError(t, w.HandleEvent(context.Background(), amqp.NewEventMessage(typ, 1, 1)), typ)
	}
	assert.Empty(t, syncer.synced)
}

func TestEventWorker_WithoutLedger(t *testing.T) {
	w := NewEventWorker(nil, nil)
	assert.NoError(t, w.HandleEvent(context.Background(), amqp.NewEventMessage(amqp.EventPaymentRecorded, 1, 1)))
	assert.NoError(t, w.StartupSyncCheck(context.Background()))
}

func TestEventWorker_StartupSyncCheck(t *testing.T) {
	w := NewEventWorker(&fakeSyncer{pending: 4}, nil)
	assert.NoError(t, w.StartupSyncCheck(context.Background()))

	w = NewEventWorker(&fakeSyncer{err: errors.New("db locked")}, nil)
	assert.ErrorContains(t, w.StartupSyncCheck(context.Background()), "db locked")
}
