package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func add(n int) StageFunc[int, int] {
	return func(ctx context.Context, v int) (int, error) {
		return v + n, nil
	}
}

func TestChain_RunsInOrder(t *testing.T) {
	double := StageFunc[int, int](func(ctx context.Context, v int) (int, error) {
		return v * 2, nil
	})
	c := NewChain[int]().Then("add", add(3)).Then("double", double)

	got, err := c.Execute(context.Background(), 1)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != 8 {
		t.Errorf("got %d, want 8", got)
	}
	if !reflect.DeepEqual(c.Names(), []string{"add", "double"}) {
		t.Errorf("Names = %v", c.Names())
	}
}

func TestChain_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	c := NewChain[int]().
		Then("fail", StageFunc[int, int](func(ctx context.Context, v int) (int, error) {
			return 0, boom
		})).
		Then("after", StageFunc[int, int](func(ctx context.Context, v int) (int, error) {
			called = true
			return v, nil
		}))

	_, err := c.Execute(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("Execute error = %v, want boom", err)
	}
	if err.Error() != "fail stage: boom" {
		t.Errorf("error text = %q", err.Error())
	}
	if called {
		t.Error("stage after the failure ran")
	}
}

func TestChain_EmptyAndCancelled(t *testing.T) {
	c := NewChain[int]()
	if got, err := c.Execute(context.Background(), 5); err != nil || got != 5 {
		t.Errorf("empty chain = %d, %v; want 5, nil", got, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Then("add", add(1))
	if _, err := c.Execute(ctx, 5); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled chain = %v, want context.Canceled", err)
	}
}
