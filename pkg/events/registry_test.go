package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects callback invocations for assertions
type recorder struct {
	calls []*Event
	names []string
}

func (r *recorder) callback(tag string) Callback {
	return func(ctx context.Context, eventName string, evt *Event) error {
		r.calls = append(r.calls, evt)
		r.names = append(r.names, tag)
		return nil
	}
}

func newTestRegistry() *Registry {
	return NewRegistry(nil, nil)
}

func TestCreateIsIdempotent(t *testing.T) {
	reg := newTestRegistry()

	reg.Create("deploy.finished")
	reg.Create("deploy.finished")

	assert.True(t, reg.HasEvent("deploy.finished"))
	assert.Equal(t, []string{"deploy.finished"}, reg.Names())
}

func TestCreateKeepsExistingCallbacks(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	reg.Create("deploy.finished")
	sub := reg.Observe("deploy.finished", rec.callback("cb"), false)
	require.NotNil(t, sub)

	// Create again must not reset the callback list
	reg.Create("deploy.finished")

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.Len(t, rec.calls, 1)
}

func TestObserveUnknownEventReturnsNil(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	sub := reg.Observe("deploy.finished", rec.callback("cb"), false)

	assert.Nil(t, sub)
	assert.False(t, reg.HasEvent("deploy.finished"))
}

func TestObserveNilCallbackReturnsNil(t *testing.T) {
	reg := newTestRegistry()
	reg.Create("deploy.finished")

	assert.Nil(t, reg.Observe("deploy.finished", nil, false))
	assert.Nil(t, reg.ObserveAll(nil))
}

func TestObserveAutoCreateRegistersAndDelivers(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	sub := reg.Observe("deploy.finished", rec.callback("cb"), true)
	require.NotNil(t, sub)
	require.True(t, reg.HasEvent("deploy.finished"))
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "deploy.finished", sub.EventName)

	payload := map[string]interface{}{"build": 42}
	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", payload))

	require.Len(t, rec.calls, 1)
	evt := rec.calls[0]
	assert.Equal(t, "deploy.finished", evt.Type)
	assert.Equal(t, payload, evt.Args)
	assert.NotEmpty(t, evt.ID)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestEmitPreservesRegistrationOrder(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	reg.Create("deploy.finished")
	require.NotNil(t, reg.Observe("deploy.finished", rec.callback("first"), false))
	require.NotNil(t, reg.Observe("deploy.finished", rec.callback("second"), false))

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))

	assert.Equal(t, []string{"first", "second"}, rec.names)
}

func TestUnobserveRemovesOnlyMatchingToken(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	reg.Create("deploy.finished")
	first := reg.Observe("deploy.finished", rec.callback("first"), false)
	second := reg.Observe("deploy.finished", rec.callback("second"), false)
	require.NotNil(t, first)
	require.NotNil(t, second)

	assert.True(t, reg.Unobserve("deploy.finished", first))

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.Equal(t, []string{"second"}, rec.names)
}

func TestUnobserveUnknownEventReturnsFalse(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	sub := reg.Observe("other.event", rec.callback("cb"), true)
	require.NotNil(t, sub)

	assert.False(t, reg.Unobserve("deploy.finished", sub))
}

func TestUnobserveForeignTokenMatchesNothing(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	reg.Create("deploy.finished")
	require.NotNil(t, reg.Observe("deploy.finished", rec.callback("cb"), false))
	foreign := reg.Observe("other.event", rec.callback("other"), true)
	require.NotNil(t, foreign)

	// Event exists, so the call reports true even though nothing matched
	assert.True(t, reg.Unobserve("deploy.finished", foreign))
	assert.True(t, reg.Unobserve("deploy.finished", nil))

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.Equal(t, []string{"cb"}, rec.names)
}

func TestSubscriptionUnsubscribe(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	sub := reg.Observe("deploy.finished", rec.callback("cb"), true)
	require.NotNil(t, sub)

	assert.True(t, sub.Unsubscribe())

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.Empty(t, rec.calls)

	var nilSub *Subscription
	assert.False(t, nilSub.Unsubscribe())
}

func TestEmitUnknownEventIsNoOp(t *testing.T) {
	reg := newTestRegistry()

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.False(t, reg.HasEvent("deploy.finished"))
}

func TestEmitNilDataDeliversEmptyContainer(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	require.NotNil(t, reg.Observe("deploy.finished", rec.callback("cb"), true))
	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))

	require.Len(t, rec.calls, 1)
	args, ok := rec.calls[0].Args.(map[string]interface{})
	require.True(t, ok, "nil payload should arrive as an empty map, not nil")
	assert.Empty(t, args)
}

func TestEmitEmptyTypeIsRejected(t *testing.T) {
	reg := newTestRegistry()

	require.NoError(t, reg.Emit(context.Background(), "", nil))
	require.NoError(t, reg.EmitEvent(context.Background(), nil))
}

func TestEmitContinuesPastCallbackErrors(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}
	boom := errors.New("boom")

	reg.Create("deploy.finished")
	reg.Observe("deploy.finished", func(ctx context.Context, eventName string, evt *Event) error {
		return boom
	}, false)
	require.NotNil(t, reg.Observe("deploy.finished", rec.callback("survivor"), false))

	err := reg.Emit(context.Background(), "deploy.finished", nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"survivor"}, rec.names, "later callbacks must still run")
}

func TestSilenceDropsEmissions(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	require.NotNil(t, reg.Observe("deploy.finished", rec.callback("cb"), true))

	assert.True(t, reg.Silence("deploy.finished"))
	assert.True(t, reg.IsSilenced("deploy.finished"))

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.Empty(t, rec.calls)

	reg.Unsilence("deploy.finished")
	assert.False(t, reg.IsSilenced("deploy.finished"))

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.Len(t, rec.calls, 1)
}

func TestSilenceIsIndependentOfRecordExistence(t *testing.T) {
	reg := newTestRegistry()

	reg.Silence("deploy.finished")
	assert.True(t, reg.IsSilenced("deploy.finished"))
	assert.False(t, reg.HasEvent("deploy.finished"))

	// Unsilencing a never-silenced name is a quiet no-op
	reg.Unsilence("never.silenced")
	assert.False(t, reg.IsSilenced("never.silenced"))
}

func TestSilenceDuring(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	require.NotNil(t, reg.Observe("deploy.finished", rec.callback("cb"), true))

	invocations := 0
	silenced, err := reg.SilenceDuring("deploy.finished", func() error {
		invocations++
		assert.True(t, reg.IsSilenced("deploy.finished"))
		return reg.Emit(context.Background(), "deploy.finished", nil)
	})

	require.NoError(t, err)
	assert.False(t, silenced)
	assert.Equal(t, 1, invocations)
	assert.Empty(t, rec.calls, "emission inside the scope must be dropped")
	assert.False(t, reg.IsSilenced("deploy.finished"))

	// Delivery resumes once the scope has closed
	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.Len(t, rec.calls, 1)
}

func TestSilenceDuringLiftsOnError(t *testing.T) {
	reg := newTestRegistry()
	boom := errors.New("boom")

	silenced, err := reg.SilenceDuring("deploy.finished", func() error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, silenced)
	assert.False(t, reg.IsSilenced("deploy.finished"))
}

func TestSilenceDuringLiftsOnPanic(t *testing.T) {
	reg := newTestRegistry()

	require.Panics(t, func() {
		_, _ = reg.SilenceDuring("deploy.finished", func() error {
			panic("callback exploded")
		})
	})

	assert.False(t, reg.IsSilenced("deploy.finished"))
}

func TestSilenceDuringNilFunc(t *testing.T) {
	reg := newTestRegistry()

	silenced, err := reg.SilenceDuring("deploy.finished", nil)

	require.NoError(t, err)
	assert.False(t, silenced)
	assert.False(t, reg.IsSilenced("deploy.finished"))
}

func TestRemoveDeletesRecordAndCallbacks(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	require.NotNil(t, reg.Observe("deploy.finished", rec.callback("cb"), true))
	reg.Silence("deploy.finished")

	reg.Remove("deploy.finished")

	assert.False(t, reg.HasEvent("deploy.finished"))
	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.Empty(t, rec.calls)

	// Removal leaves the silenced set untouched
	assert.True(t, reg.IsSilenced("deploy.finished"))

	// Removing an unknown name is a quiet no-op
	reg.Remove("never.created")
}

func TestObserveAllReceivesDeliveredEmissions(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	reg.Create("deploy.finished")
	reg.Create("deploy.failed")
	sub := reg.ObserveAll(rec.callback("global"))
	require.NotNil(t, sub)

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	require.NoError(t, reg.Emit(context.Background(), "deploy.failed", nil))
	// Unregistered names deliver nothing, including to global callbacks
	require.NoError(t, reg.Emit(context.Background(), "deploy.unknown", nil))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, "deploy.finished", rec.calls[0].Type)
	assert.Equal(t, "deploy.failed", rec.calls[1].Type)

	assert.True(t, reg.UnobserveAll(sub))
	assert.False(t, reg.UnobserveAll(sub))
	assert.False(t, reg.UnobserveAll(nil))

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.Len(t, rec.calls, 2)
}

func TestGlobalCallbacksRunAfterNamedCallbacks(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	require.NotNil(t, reg.Observe("deploy.finished", rec.callback("named"), true))
	require.NotNil(t, reg.ObserveAll(rec.callback("global")))

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))

	assert.Equal(t, []string{"named", "global"}, rec.names)
}

func TestMutationDuringEmitDoesNotAffectInFlightDispatch(t *testing.T) {
	reg := newTestRegistry()
	rec := &recorder{}

	reg.Create("deploy.finished")
	var selfSub *Subscription
	selfSub = reg.Observe("deploy.finished", func(ctx context.Context, eventName string, evt *Event) error {
		// Unsubscribing mid-dispatch must not skip the next callback
		reg.Unobserve("deploy.finished", selfSub)
		return nil
	}, false)
	require.NotNil(t, selfSub)
	require.NotNil(t, reg.Observe("deploy.finished", rec.callback("second"), false))

	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.Equal(t, []string{"second"}, rec.names)

	// The self-removing callback is gone for the next emission
	require.NoError(t, reg.Emit(context.Background(), "deploy.finished", nil))
	assert.Equal(t, []string{"second", "second"}, rec.names)
}

func TestEventWithMetadata(t *testing.T) {
	evt := NewEvent("deploy.finished", nil).WithMetadata("region", "us-east-1")

	assert.Equal(t, "us-east-1", evt.Metadata["region"])

	bare := &Event{Type: "deploy.finished"}
	bare.WithMetadata("region", "eu-west-1")
	assert.Equal(t, "eu-west-1", bare.Metadata["region"])
}
