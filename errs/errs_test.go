package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/b-clawson/pms-finder/errs"
	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err    error
		target error
		want   bool
	}{
		"same kind": {
			err:    errs.New(errs.PartitionNotFound, "catalog.Load", "no local data for \"X\"", nil),
			target: errs.PartitionNotFound,
			want:   true,
		},
		"wrapped": {
			err:    fmt.Errorf("find closest: %w", errs.New(errs.PartitionNotFound, "", "", nil)),
			target: errs.PartitionNotFound,
			want:   true,
		},
		"timeout is unavailable": {
			err:    errs.New(errs.UpstreamTimeout, "matsui", "timed out", nil),
			target: errs.UpstreamUnavailable,
			want:   true,
		},
		"unavailable is not timeout": {
			err:    errs.New(errs.UpstreamUnavailable, "matsui", "bad json", nil),
			target: errs.UpstreamTimeout,
			want:   false,
		},
		"different kind": {
			err:    errs.New(errs.SchemaViolation, "", "", nil),
			target: errs.PartitionNotFound,
			want:   false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := errs.New(errs.UpstreamUnavailable, "greengalaxy GET colors/UD", "vendor unreachable", cause)

	assert.Equal(t, "greengalaxy GET colors/UD: vendor unreachable: connection refused", err.Error())
	assert.Equal(t, "vendor unreachable", errs.Message(fmt.Errorf("wrap: %w", err)))
	assert.ErrorIs(t, err, cause)

	kind, ok := errs.KindOf(fmt.Errorf("wrap: %w", err))
	assert.True(t, ok)
	assert.Equal(t, errs.UpstreamUnavailable, kind)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, errs.IsRetryable(errs.New(errs.UpstreamTimeout, "", "", nil)))
	assert.False(t, errs.IsRetryable(errs.New(errs.UpstreamUnavailable, "", "", nil)))
	assert.False(t, errs.IsRetryable(nil))
}
