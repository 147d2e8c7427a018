package stopflag

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlag(t *testing.T) {
	f := New()
	assert.False(t, f.Stopped())

	f.Stop()
	assert.True(t, f.Stopped())

	// Terminal: stays set.
	f.Stop()
	assert.True(t, f.Stopped())
}

func TestFlag_NilReceiver(t *testing.T) {
	var f *Flag
	assert.False(t, f.Stopped())
}

func TestFlag_Concurrent(t *testing.T) {
	f := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Stop()
			_ = f.Stopped()
		}()
	}
	wg.Wait()
	assert.True(t, f.Stopped())
}
