package discovery_test

import (
	"reflect"
	"strconv"
	"testing"

	"sweepstakes/internal/discovery"
	"sweepstakes/internal/domain"
)

func TestFeatured_Empty(t *testing.T) {
	got := discovery.Featured(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestFeatured_TopThreeDescending(t *testing.T) {
	in := []domain.Listing{
		{ID: "1", Reward: "$10,000 Cash"},
		{ID: "2", Reward: "Latest iPhone"},
		{ID: "4", Reward: "$5,000 Gift Card"},
		{ID: "7", Reward: "$25,000 Cash"},
		{ID: "8", Reward: "7-Day Luxury Cruise"},
	}
	before := append([]domain.Listing(nil), in...)

	got := discovery.Featured(in)
	if !reflect.DeepEqual(ids(got), []string{"7", "1", "4"}) {
		t.Fatalf("got %v", ids(got))
	}
	if !reflect.DeepEqual(in, before) {
		t.Fatalf("input mutated")
	}
}

func TestFeatured_NeverMoreThanThree(t *testing.T) {
	for n := 0; n < 10; n++ {
		in := make([]domain.Listing, n)
		for i := range in {
			in[i] = domain.Listing{ID: strconv.Itoa(i), Reward: "$" + strconv.Itoa(i*100)}
		}
		got := discovery.Featured(in)
		if len(got) > 3 {
			t.Fatalf("n=%d: got %d featured", n, len(got))
		}
		for i := 1; i < len(got); i++ {
			if discovery.ParseRewardValue(got[i-1].Reward) < discovery.ParseRewardValue(got[i].Reward) {
				t.Fatalf("n=%d: not descending: %v", n, ids(got))
			}
		}
	}
}

func TestFeatured_TiesKeepInputOrder(t *testing.T) {
	in := []domain.Listing{{ID: "x", Reward: "Trip"}, {ID: "y", Reward: "Car"}, {ID: "z", Reward: "TV"}, {ID: "w", Reward: "Phone"}}
	if got := discovery.Featured(in); !reflect.DeepEqual(ids(got), []string{"x", "y", "z"}) {
		t.Fatalf("got %v", ids(got))
	}
}
