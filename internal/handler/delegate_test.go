package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDelegate accepts the capabilities listed in supported and records
// every probe in order
type fakeDelegate struct {
	supported  map[string]bool
	persistent bool
	err        error
	calls      []string
}

func (d *fakeDelegate) Invoke(ctx context.Context, capability string, req TempbanRequest) error {
	d.calls = append(d.calls, capability)
	if !d.supported[capability] {
		return ErrUnsupportedCapability
	}
	return d.err
}

func (d *fakeDelegate) Persistent() bool { return d.persistent }

func TestDelegateRegistry(t *testing.T) {
	registry := NewDelegateRegistry()
	assert.Nil(t, registry.Lookup("moderation"))

	d := &fakeDelegate{}
	registry.Register("moderation", d)
	assert.Same(t, d, registry.Lookup("moderation").(*fakeDelegate))

	registry.Unregister("moderation")
	assert.Nil(t, registry.Lookup("moderation"))
}

func TestProbeTempbanStopsAtFirstSupported(t *testing.T) {
	d := &fakeDelegate{supported: map[string]bool{"tempban_user": true}}

	handled, err := ProbeTempban(context.Background(), d, TempbanRequest{})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"_tempban", "tempban_user"}, d.calls)
}

func TestProbeTempbanNoCapability(t *testing.T) {
	d := &fakeDelegate{supported: map[string]bool{}}

	handled, err := ProbeTempban(context.Background(), d, TempbanRequest{})
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, []string{"_tempban", "tempban_user", "tempban_member", "tempban"}, d.calls)
}

func TestProbeTempbanSupportedCapabilityFails(t *testing.T) {
	cause := errors.New("delegate exploded")
	d := &fakeDelegate{supported: map[string]bool{"tempban_member": true}, err: cause}

	handled, err := ProbeTempban(context.Background(), d, TempbanRequest{})
	assert.False(t, handled)
	assert.ErrorIs(t, err, cause)
	// The probe aborts instead of trying weaker capabilities
	assert.Equal(t, []string{"_tempban", "tempban_user", "tempban_member"}, d.calls)
}

func TestProbeTempbanNilDelegate(t *testing.T) {
	handled, err := ProbeTempban(context.Background(), nil, TempbanRequest{})
	require.NoError(t, err)
	assert.False(t, handled)
}
