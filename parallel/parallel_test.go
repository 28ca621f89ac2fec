package parallel

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunAssociatesResultsPositionally(t *testing.T) {
	slow := func(ctx context.Context) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "slow", nil
	}
	fast := func(ctx context.Context) (string, error) {
		return "fast", nil
	}
	results := Run(context.Background(), slow, fast)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Value != "slow" || results[1].Value != "fast" {
		t.Fatalf("results out of order: %+v", results)
	}
}

func TestRunReportsErrorsInPlace(t *testing.T) {
	boom := errors.New("boom")
	results := Run(context.Background(),
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) { return 3, nil },
	)
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("unexpected errors: %+v", results)
	}
	if !errors.Is(results[1].Err, boom) {
		t.Fatalf("results[1].Err = %v, want boom", results[1].Err)
	}
	if results[0].Value != 1 || results[2].Value != 3 {
		t.Fatalf("values lost: %+v", results)
	}
}

func TestRunEmptyAndSingle(t *testing.T) {
	if got := Run[int](context.Background()); len(got) != 0 {
		t.Fatalf("expected empty result set, got %d", len(got))
	}
	results := Run(context.Background(), func(ctx context.Context) (int, error) { return 7, nil })
	if len(results) != 1 || results[0].Value != 7 {
		t.Fatalf("unexpected single-task result: %+v", results)
	}
}
