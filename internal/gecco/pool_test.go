package gecco

import (
	"errors"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_mapOrdered(t *testing.T) {
	in := []int{5, 3, 8, 1, 9, 2}

	for _, jobs := range []int{0, 1, 3, 100} {
		t.Run("jobs "+strconv.Itoa(jobs), func(t *testing.T) {
			out, err := mapOrdered(jobs, in, func(v int) (int, error) {
				return v * 2, nil
			})
			require.NoError(t, err)
			assert.Equal(t, []int{10, 6, 16, 2, 18, 4}, out)
		})
	}
}

func Test_mapOrdered_firstErrorByInputOrder(t *testing.T) {
	in := []int{0, 1, 2, 3}
	_, err := mapOrdered(4, in, func(v int) (int, error) {
		if v >= 1 {
			return 0, errors.New("failed on " + strconv.Itoa(v))
		}
		return v, nil
	})
	require.Error(t, err)
	assert.Equal(t, "failed on 1", err.Error())
}

func Test_mapOrdered_empty(t *testing.T) {
	out, err := mapOrdered(4, nil, func(v int) (int, error) { return v, nil })
	require.NoError(t, err)
	assert.Empty(t, out)
}

func Test_mapOrdered_boundsConcurrency(t *testing.T) {
	var active, peak int64
	in := make([]int, 32)

	_, err := mapOrdered(2, in, func(v int) (int, error) {
		n := atomic.AddInt64(&active, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		atomic.AddInt64(&active, -1)
		return v, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, int64(2))
}
