package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", 7, "password", "hunter2", "Authorization", "Bearer x", "dangling"})
	assert.Equal(t, []interface{}{"user_id", 7, "password", redacted, "Authorization", redacted, "dangling"}, out)
}

func TestLoggerRedactsSensitiveFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := &Logger{SugaredLogger: zap.New(core).Sugar()}

	log.With("jwt_token", "abc").Info("login", "email", "ana@vmp.test")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, redacted, fields["jwt_token"])
		assert.Equal(t, "ana@vmp.test", fields["email"])
	}
}
