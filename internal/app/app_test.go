package app

import "testing"

func TestCloseRunsCleanupsInReverse(t *testing.T) {
	a := &App{}

	var order []int
	a.cleanups = append(a.cleanups,
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
		func() { order = append(order, 3) },
	)

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := []int{3, 2, 1}
	for i, v := range want {
		if order[i] != v {
			t.Fatalf("cleanup order = %v, want %v", order, want)
		}
	}

	// Close is idempotent.
	if err := a.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("cleanups ran again: %v", order)
	}
}
