package audit

import (
	"context"
	"time"
)

// Chunks splits s into pieces of at most size runes. Concatenating the
// result yields s. A size below 1 returns s as a single chunk.
func Chunks(s string, size int) []string {
	if s == "" {
		return nil
	}
	if size < 1 {
		return []string{s}
	}
	var out []string
	start, n := 0, 0
	for i := range s {
		if n == size {
			out = append(out, s[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(out, s[start:])
}

// Replay delivers the chunks of s to emit, pausing interval between them.
// It stops early when ctx is done.
func Replay(ctx context.Context, s string, size int, interval time.Duration, emit func(string)) error {
	for i, c := range Chunks(s, size) {
		if i > 0 && interval > 0 {
			t := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		emit(c)
	}
	return nil
}
