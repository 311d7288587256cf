package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

type recordingSink struct {
	name       string
	deliverErr error
	events     []contextmodel.ContextEvent
	clipboards []contextmodel.ClipboardEvent
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Deliver(ctx context.Context, ev contextmodel.ContextEvent) error {
	r.events = append(r.events, ev)
	return r.deliverErr
}

func (r *recordingSink) DeliverClipboard(ctx context.Context, ev contextmodel.ClipboardEvent) error {
	r.clipboards = append(r.clipboards, ev)
	return r.deliverErr
}

func TestFanout_Deliver_ReachesEverySink(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	f := New(a, b)

	ev := contextmodel.ContextEvent{ID: "1", Kind: contextmodel.EventAppSwitch}
	require.NoError(t, f.Deliver(context.Background(), ev))

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, "1", a.events[0].ID)
}

func TestFanout_Deliver_OneFailingSinkDoesNotStopTheRest(t *testing.T) {
	failing := &recordingSink{name: "failing", deliverErr: errors.New("boom")}
	ok := &recordingSink{name: "ok"}
	f := New(failing, ok)

	err := f.Deliver(context.Background(), contextmodel.ContextEvent{ID: "1"})
	assert.Error(t, err)
	assert.Len(t, ok.events, 1)
}

func TestFanout_Register_AddsSinkAfterConstruction(t *testing.T) {
	f := New()
	s := &recordingSink{name: "late"}
	f.Register(s)

	require.NoError(t, f.DeliverClipboard(context.Background(), contextmodel.ClipboardEvent{ID: "c1"}))
	require.Len(t, s.clipboards, 1)
	assert.Equal(t, "c1", s.clipboards[0].ID)
}

func TestFanout_DeliverClipboard_PreservesRegistrationOrder(t *testing.T) {
	var order []string
	a := &orderSink{name: "a", order: &order}
	b := &orderSink{name: "b", order: &order}
	f := New(a, b)

	require.NoError(t, f.DeliverClipboard(context.Background(), contextmodel.ClipboardEvent{}))
	assert.Equal(t, []string{"a", "b"}, order)
}

type orderSink struct {
	name  string
	order *[]string
}

func (o *orderSink) Name() string { return o.name }
func (o *orderSink) Deliver(context.Context, contextmodel.ContextEvent) error {
	*o.order = append(*o.order, o.name)
	return nil
}
func (o *orderSink) DeliverClipboard(context.Context, contextmodel.ClipboardEvent) error {
	*o.order = append(*o.order, o.name)
	return nil
}
