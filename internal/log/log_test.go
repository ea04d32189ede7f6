// ABOUTME: Tests for the leveled logger: level gating and concurrent SetLevel
// ABOUTME: Captures stderr indirectly by checking level state, not output text

package log

import (
	"sync"
	"testing"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })

	SetLevel(LevelDebug)
	if GetLevel() != LevelDebug {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelDebug)
	}

	SetLevel(LevelError)
	if GetLevel() != LevelError {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelError)
	}
}

func TestSetLevel_Concurrent(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetLevel(LevelWarn)
			_ = GetLevel()
		}()
	}
	wg.Wait()

	if GetLevel() != LevelWarn {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelWarn)
	}
}
