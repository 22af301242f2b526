package queue_test

import (
	"testing"

	"github.com/navigatorsguild/text-file-sort/queue"
)

func intLess(a, b int) bool {
	return a < b
}

func TestAllEqual(t *testing.T) {
	q := queue.New(intLess)
	for i := 20; i > 0; i-- {
		q.Push(0) // all elements are the same
	}

	if l := q.Len(); l != 20 {
		t.Fatalf("queue len is %d, expected %d", l, 20)
	}

	for i := 1; q.Len() > 0; i++ {
		x := q.Peek()
		y := q.Pop()
		if x != y {
			t.Fatalf("q.Peek() and q.Pop() returned different values %d %d", x, y)
		}
		if x != 0 {
			t.Errorf("%d.th pop got %d; want %d", i, x, 0)
		}
	}
}

func TestOrdering(t *testing.T) {
	q := queue.New(intLess)
	if l := q.Len(); l != 0 {
		t.Fatalf("queue len is %d, expected %d", l, 0)
	}

	for i := 20; i > 10; i-- {
		q.Push(i)
	}
	for i := 10; i > 0; i-- {
		q.Push(i)
	}
	if l := q.Len(); l != 20 {
		t.Fatalf("queue len is %d, expected %d", l, 20)
	}

	for i := 1; q.Len() > 0; i++ {
		x := q.Peek()
		y := q.Pop()
		if x != y {
			t.Fatalf("q.Peek() and q.Pop() returned different values %d %d", x, y)
		}
		if i < 20 {
			q.Push(20 + i)
		}
		if x != i {
			t.Errorf("%d.th pop got %d; want %d", i, x, i)
		}
	}
}

func TestPeekUpdate(t *testing.T) {
	type box struct{ v int }
	q := queue.New(func(a, b *box) bool { return a.v < b.v })
	boxes := []*box{{3}, {1}, {2}}
	for _, b := range boxes {
		q.Push(b)
	}

	if got := q.Peek().v; got != 1 {
		t.Fatalf("peek got %d; want 1", got)
	}
	q.Peek().v = 10
	q.PeekUpdate()
	if got := q.Peek().v; got != 2 {
		t.Fatalf("peek after update got %d; want 2", got)
	}

	want := []int{2, 3, 10}
	for _, w := range want {
		if got := q.Pop().v; got != w {
			t.Fatalf("pop got %d; want %d", got, w)
		}
	}
}
