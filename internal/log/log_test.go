package log

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestFromContext_Fallback(t *testing.T) {
	e := FromContext(context.Background())
	assert.NotNil(t, e)
	assert.Empty(t, e.Data)
}

func TestToContext_RoundTrip(t *testing.T) {
	entry := logrus.WithField("correlation_id", "abc")
	ctx := ToContext(context.Background(), entry)
	ctx = ContextWithCorrelationID(ctx, "abc")

	assert.Equal(t, "abc", FromContext(ctx).Data["correlation_id"])
	assert.Equal(t, "abc", CorrelationIDFromContext(ctx))
	assert.Equal(t, "", CorrelationIDFromContext(context.Background()))
}

func TestInit_Level(t *testing.T) {
	prev := logrus.GetLevel()
	defer logrus.SetLevel(prev)

	Init("debug", "dev")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	Init("nonsense", "prod")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	_, isJSON := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}
