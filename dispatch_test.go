// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio_test

import (
	"reflect"
	"testing"

	"code.hybscloud.com/exio"
)

func TestDispatchRunsInlineWhenIdle(t *testing.T) {
	ctx := exio.NewContext()
	d := ctx.Dispatcher()

	ran := false
	err := d.Dispatch(exio.NewContinuation(d, func() {
		ran = true
		if n := ctx.Queued(); n != 0 {
			t.Errorf("inline dispatch queued %d entries, want 0", n)
		}
	}))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !ran {
		t.Fatal("handler did not run inline on an idle context")
	}
}

func TestDispatchQueuesWhileHandlerRuns(t *testing.T) {
	ctx := exio.NewContext()
	d := ctx.Dispatcher()

	var order []int
	err := d.Dispatch(exio.NewContinuation(d, func() {
		order = append(order, 1)
		inner := exio.NewContinuation(d, func() { order = append(order, 2) })
		if err := d.Dispatch(inner); err != nil {
			t.Errorf("nested dispatch failed: %v", err)
		}
		if n := ctx.Queued(); n != 1 {
			t.Errorf("nested dispatch queued %d entries, want 1", n)
		}
		order = append(order, 3)
	}))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !reflect.DeepEqual(order, []int{1, 3}) {
		t.Fatalf("order after outer handler = %v, want [1 3]", order)
	}
	ctx.Poll()
	if !reflect.DeepEqual(order, []int{1, 3, 2}) {
		t.Fatalf("order after poll = %v, want [1 3 2]", order)
	}
}

func TestPostNeverRunsInline(t *testing.T) {
	ctx := exio.NewContext()
	d := ctx.Dispatcher()

	ran := false
	if err := d.Post(exio.NewContinuation(d, func() { ran = true })); err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if ran {
		t.Fatal("posted handler ran before Post returned")
	}
	if !ctx.PollOne() {
		t.Fatal("poll found no ready handler")
	}
	if !ran {
		t.Fatal("posted handler did not run")
	}
}

func TestPostPreservesOrder(t *testing.T) {
	ctx := exio.NewContext()
	d := ctx.Dispatcher()

	var got []int
	for i := 0; i < 8; i++ {
		i := i
		if err := d.Post(exio.NewContinuation(d, func() { got = append(got, i) })); err != nil {
			t.Fatalf("post %d failed: %v", i, err)
		}
	}
	if n := ctx.Run(); n != 8 {
		t.Fatalf("run executed %d entries, want 8", n)
	}
	if !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4, 5, 6, 7}) {
		t.Fatalf("execution order = %v", got)
	}
}

func TestDispatcherCopiesCompareEqual(t *testing.T) {
	ctx := exio.NewContext()
	other := exio.NewContext()

	if ctx.Dispatcher() != ctx.Dispatcher() {
		t.Fatal("copies of the same context's dispatcher compare unequal")
	}
	if ctx.Dispatcher() == other.Dispatcher() {
		t.Fatal("dispatchers of distinct contexts compare equal")
	}
	if ctx.Dispatcher().Context() != ctx {
		t.Fatal("dispatcher does not report its own context")
	}
}

func TestContinuationResumeTwicePanics(t *testing.T) {
	ctx := exio.NewContext()
	d := ctx.Dispatcher()

	c := exio.NewContinuation(d, func() {})
	if err := d.Dispatch(c); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("second resume did not panic")
		}
	}()
	c.Resume()
}
