package grid

import "testing"

func TestTickAdvancesClock(t *testing.T) {
	g := New()
	if g.Clock() != 0 {
		t.Fatalf("fresh grid clock = %d, want 0", g.Clock())
	}
	g.Tick()
	g.Tick()
	if g.Clock() != 2 {
		t.Fatalf("clock after 2 ticks = %d, want 2", g.Clock())
	}
}

func TestWriteThenRead(t *testing.T) {
	g := New()
	done := make(chan error, 1)
	g.Write(1, []byte("hello"), func(err error) { done <- err })
	if err := <-done; err != nil {
		t.Fatalf("write: %v", err)
	}
	got := make(chan []byte, 1)
	g.Read(1, func(data []byte, err error) {
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		got <- data
	})
	if string(<-got) != "hello" {
		t.Fatalf("read back unexpected data")
	}
}

func TestReadMissingBlock(t *testing.T) {
	g := New()
	got := make(chan []byte, 1)
	g.Read(99, func(data []byte, err error) { got <- data })
	if data := <-got; data != nil {
		t.Fatalf("expected nil for missing block, got %v", data)
	}
}
