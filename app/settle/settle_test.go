package settle

import (
	"context"
	"testing"
	"time"

	"github.com/onecart/onecart/app/cart"
)

func TestGoodEnough(t *testing.T) {
	tests := []struct {
		name string
		rec  cart.ProductRecord
		want bool
	}{
		{"price only", cart.ProductRecord{Price: "$9.99"}, true},
		{"image only", cart.ProductRecord{Img: "https://cdn.example.com/a.jpg"}, true},
		{"title only", cart.ProductRecord{Title: "Shoes"}, false},
		{"empty", cart.ProductRecord{}, false},
	}

	for _, tt := range tests {
		if got := GoodEnough(tt.rec); got != tt.want {
			t.Errorf("%s: GoodEnough = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWaitResolvesImmediatelyWhenSatisfied(t *testing.T) {
	want := cart.ProductRecord{Title: "Shoes", Price: "$9.99"}

	attempts := 0
	got := Wait(context.Background(), time.Minute, make(chan struct{}), func() (cart.ProductRecord, bool) {
		attempts++
		return want, true
	})

	if attempts != 1 {
		t.Errorf("Expected single attempt, got %d", attempts)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestWaitResolvesOnUpdate(t *testing.T) {
	updates := make(chan struct{}, 1)

	attempts := 0
	done := make(chan cart.ProductRecord, 1)
	go func() {
		done <- Wait(context.Background(), time.Minute, updates, func() (cart.ProductRecord, bool) {
			attempts++
			if attempts < 2 {
				return cart.ProductRecord{Title: "Shoes"}, false
			}
			return cart.ProductRecord{Title: "Shoes", Price: "$9.99"}, true
		})
	}()

	updates <- struct{}{}

	select {
	case got := <-done:
		if got.Price != "$9.99" {
			t.Errorf("Expected settled price, got %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not resolve on update")
	}
}

func TestWaitResolvesWithLastAttemptOnTimeout(t *testing.T) {
	got := Wait(context.Background(), 20*time.Millisecond, make(chan struct{}), func() (cart.ProductRecord, bool) {
		return cart.ProductRecord{Title: "Shoes"}, false
	})

	if got.Title != "Shoes" {
		t.Errorf("Expected last partial record on timeout, got %+v", got)
	}
}

func TestWaitKeepsLastNonEmptyAcrossUpdates(t *testing.T) {
	updates := make(chan struct{}, 2)

	attempts := 0
	done := make(chan cart.ProductRecord, 1)
	go func() {
		done <- Wait(context.Background(), 100*time.Millisecond, updates, func() (cart.ProductRecord, bool) {
			attempts++
			if attempts == 2 {
				return cart.ProductRecord{Title: "Shoes"}, false
			}
			// Later re-render yields nothing; the earlier partial must survive.
			return cart.ProductRecord{}, false
		})
	}()

	updates <- struct{}{}
	updates <- struct{}{}

	select {
	case got := <-done:
		if got.Title != "Shoes" {
			t.Errorf("Expected earlier partial kept, got %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not resolve")
	}
}

func TestWaitResolvesOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan cart.ProductRecord, 1)
	go func() {
		done <- Wait(ctx, time.Minute, make(chan struct{}), func() (cart.ProductRecord, bool) {
			return cart.ProductRecord{Title: "Shoes"}, false
		})
	}()

	cancel()

	select {
	case got := <-done:
		if got.Title != "Shoes" {
			t.Errorf("Expected last record on cancel, got %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not resolve on cancel")
	}
}

func TestWaitResolvesWhenUpdatesClose(t *testing.T) {
	updates := make(chan struct{})
	close(updates)

	got := Wait(context.Background(), time.Minute, updates, func() (cart.ProductRecord, bool) {
		return cart.ProductRecord{Title: "Shoes"}, false
	})

	if got.Title != "Shoes" {
		t.Errorf("Expected last record when updates close, got %+v", got)
	}
}
