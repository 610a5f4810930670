package download

import "testing"

func TestSinkDropsWhenFull(t *testing.T) {
	sink := NewSink(2)

	for i := 0; i < 5; i++ {
		sink.Push(ProgressInfo{Downloaded: int64(i)})
	}
	sink.Close()

	var got []ProgressInfo
	for p := range sink.Samples() {
		got = append(got, p)
	}
	if len(got) != 2 {
		t.Fatalf("samples = %d, want 2 (rest dropped)", len(got))
	}
	// The oldest samples win; newer ones are shed under backpressure.
	if got[0].Downloaded != 0 || got[1].Downloaded != 1 {
		t.Errorf("kept samples = %d, %d, want 0, 1", got[0].Downloaded, got[1].Downloaded)
	}
}

func TestSinkCallbackFeedsChannel(t *testing.T) {
	sink := NewSink(4)
	cb := sink.Callback()

	cb(ProgressInfo{Percentage: 50})
	cb(ProgressInfo{Percentage: 100})
	sink.Close()

	var last ProgressInfo
	count := 0
	for p := range sink.Samples() {
		last = p
		count++
	}
	if count != 2 || last.Percentage != 100 {
		t.Errorf("drained %d samples ending at %v%%, want 2 ending at 100%%", count, last.Percentage)
	}
}

func TestSinkDefaultBuffer(t *testing.T) {
	sink := NewSink(0)
	for i := 0; i < 64; i++ {
		sink.Push(ProgressInfo{Downloaded: int64(i)})
	}
	sink.Close()

	count := 0
	for range sink.Samples() {
		count++
	}
	if count != 64 {
		t.Errorf("samples = %d, want 64", count)
	}
}
