package orders

import (
	"errors"
	"testing"
)

func TestNext(t *testing.T) {
	cases := []struct {
		cur  Status
		want Status
		err  bool
	}{
		{StatusPending, StatusProcessing, false},
		{StatusProcessing, StatusShipped, false},
		{StatusShipped, StatusDelivered, false},
		{StatusDelivered, "", true},
		{StatusCancelled, "", true},
		{"bogus", "", true},
	}
	for _, c := range cases {
		got, err := Next(c.cur)
		if c.err {
			if !errors.Is(err, ErrInvalidOrFinalStatus) {
				t.Errorf("Next(%s): err = %v, want ErrInvalidOrFinalStatus", c.cur, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Next(%s): %v", c.cur, err)
			continue
		}
		if got != c.want {
			t.Errorf("Next(%s) = %s, want %s", c.cur, got, c.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for s, want := range map[Status]bool{
		StatusPending:    false,
		StatusProcessing: false,
		StatusShipped:    false,
		StatusDelivered:  true,
		StatusCancelled:  true,
	} {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestNewOrderID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewOrderID()
		if len(id) != len("ORD-xxxxxxxx") || id[:4] != "ORD-" {
			t.Fatalf("order id = %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate order id %q", id)
		}
		seen[id] = true
	}
}
