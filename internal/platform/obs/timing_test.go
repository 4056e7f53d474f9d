package obs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTimeLogsOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	ctx := WithRequestID(context.Background(), "req-1")

	func() (err error) {
		defer Time(ctx, log, "offers.byOrigin")(&err)
		return nil
	}()
	func() (err error) {
		defer Time(ctx, log, "offers.count")(&err)
		return errors.New("boom")
	}()

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "operation done", entries[0].Message)
		assert.Equal(t, "req-1", entries[0].ContextMap()["req_id"])
		assert.Equal(t, "operation failed", entries[1].Message)
		assert.Equal(t, "offers.count", entries[1].ContextMap()["op"])
	}
}

func TestRequestIDMissing(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
}
