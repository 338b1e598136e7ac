package util

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelAttemptsEveryInput(t *testing.T) {
	var seen atomic.Int32
	err := Parallel(context.Background(), []int{1, 2, 3, 4, 5}, 2, func(_ context.Context, n int) error {
		seen.Add(1)
		switch n {
		case 2:
			return errors.New("two")
		case 4:
			panic("four")
		}
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, int32(5), seen.Load())
	assert.Contains(t, err.Error(), "two")
	assert.Contains(t, err.Error(), "panic on 4")
}

func TestParallelEmpty(t *testing.T) {
	assert.NoError(t, Parallel(context.Background(), nil, 4, func(context.Context, string) error {
		return errors.New("never")
	}))
}

func TestFormatDateTpl(t *testing.T) {
	ts := time.Date(2023, 11, 10, 7, 5, 0, 0, time.UTC)
	assert.Equal(t, "2023.11.10", FormatDateTpl(ts, "YYYY.MM.DD"))
	assert.Equal(t, "10/11/23 07:05", FormatDateTpl(ts, "DD/MM/YY hh:mm"))
	assert.Equal(t, "", FormatDateTpl(time.Time{}, "YYYY"))
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "45s", HumanDuration(45*time.Second))
	assert.Equal(t, "2h 5m", HumanDuration(2*time.Hour+5*time.Minute))
	assert.Equal(t, "3d 4h", HumanDuration(76*time.Hour+10*time.Minute))
}
