package download

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestTimeoutReaderPassesDataThrough(t *testing.T) {
	src := io.NopCloser(strings.NewReader("hello world"))
	tr := newTimeoutReader(src, time.Second)

	data, err := io.ReadAll(tr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("data = %q, want %q", data, "hello world")
	}
}

func TestTimeoutReaderFailsStalledRead(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	tr := newTimeoutReader(pr, 20*time.Millisecond)

	buf := make([]byte, 32)
	_, err := tr.Read(buf)
	if !errors.Is(err, errChunkTimeout) {
		t.Fatalf("error = %v, want errChunkTimeout", err)
	}
	// The message is what the retry layer matches on.
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error message %q should mention the timeout", err)
	}
}

func TestTimeoutReaderRecoversLateResult(t *testing.T) {
	pr, pw := io.Pipe()

	tr := newTimeoutReader(pr, 20*time.Millisecond)

	buf := make([]byte, 32)
	if _, err := tr.Read(buf); !errors.Is(err, errChunkTimeout) {
		t.Fatalf("first read should time out, got %v", err)
	}

	// Data arriving after the timeout is delivered by the next read instead
	// of being lost.
	go pw.Write([]byte("late"))
	n, err := tr.Read(buf)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if string(buf[:n]) != "late" {
		t.Errorf("second read = %q, want %q", buf[:n], "late")
	}
	pw.Close()
}
