package supply

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("dial tcp: timeout")

	cases := []struct {
		err  error
		want ErrorKind
	}{
		{ConfigurationError("init", base), KindConfiguration},
		{TransientFetchError("fetch total supply", base), KindTransientFetch},
		{PersistenceError("insert snapshot", base), KindPersistence},
		{LoggingError("append run log", base), KindLogging},
		{fmt.Errorf("job: %w", PersistenceError("upsert", base)), KindPersistence},
		{base, KindUnknown},
		{nil, KindUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, KindOf(c.err), "%v", c.err)
	}
}

func TestError_UnwrapAndMessage(t *testing.T) {
	base := errors.New("connection refused")
	err := PersistenceError("insert snapshot", base)

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "persistence: insert snapshot: connection refused", err.Error())

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "insert snapshot", e.Op)
	assert.Equal(t, "unknown", ErrorKind(99).String())
}
