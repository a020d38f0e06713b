// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio_test

import (
	"testing"

	"code.hybscloud.com/exio"
	"code.hybscloud.com/kont"
)

func TestStopRefusesWork(t *testing.T) {
	ctx := exio.NewContext()
	d := ctx.Dispatcher()

	ctx.Stop()
	if !ctx.Stopped() {
		t.Fatal("context does not report stopped")
	}
	err := d.Post(exio.NewContinuation(d, func() { t.Error("handler ran on a stopped context") }))
	if !exio.IsUnavailable(err) {
		t.Fatalf("post on stopped context returned %v, want ErrUnavailable", err)
	}
	if n := ctx.Run(); n != 0 {
		t.Fatalf("stopped run executed %d entries, want 0", n)
	}

	ctx.Restart()
	if ctx.Stopped() {
		t.Fatal("context still stopped after restart")
	}
	ran := false
	if err := d.Post(exio.NewContinuation(d, func() { ran = true })); err != nil {
		t.Fatalf("post after restart failed: %v", err)
	}
	ctx.Run()
	if !ran {
		t.Fatal("handler did not run after restart")
	}
}

func TestQueueCapacityBound(t *testing.T) {
	ctx := exio.NewContext(exio.WithQueueCapacity(2))
	d := ctx.Dispatcher()

	for i := 0; i < 2; i++ {
		if err := d.Post(exio.NewContinuation(d, func() {})); err != nil {
			t.Fatalf("post %d failed: %v", i, err)
		}
	}
	if err := d.Post(exio.NewContinuation(d, func() {})); !exio.IsUnavailable(err) {
		t.Fatalf("post over capacity returned %v, want ErrUnavailable", err)
	}
	if !ctx.PollOne() {
		t.Fatal("poll found no ready handler")
	}
	if err := d.Post(exio.NewContinuation(d, func() {})); err != nil {
		t.Fatalf("post after drain failed: %v", err)
	}
}

func TestRunReturnsWhenIdle(t *testing.T) {
	ctx := exio.NewContext()
	d := ctx.Dispatcher()

	if n := ctx.Run(); n != 0 {
		t.Fatalf("idle run executed %d entries, want 0", n)
	}
	for i := 0; i < 3; i++ {
		if err := d.Post(exio.NewContinuation(d, func() {})); err != nil {
			t.Fatalf("post failed: %v", err)
		}
	}
	if n := ctx.Run(); n != 3 {
		t.Fatalf("run executed %d entries, want 3", n)
	}
}

func TestRunOneIdle(t *testing.T) {
	ctx := exio.NewContext()
	d := ctx.Dispatcher()

	if ctx.RunOne() {
		t.Fatal("idle RunOne reported progress")
	}
	ran := false
	if err := d.Post(exio.NewContinuation(d, func() { ran = true })); err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if !ctx.RunOne() {
		t.Fatal("RunOne made no progress with a ready handler")
	}
	if !ran {
		t.Fatal("handler did not run")
	}
}

func TestCurrentAllocatorDefault(t *testing.T) {
	ctx := exio.NewContext()
	if ctx.CurrentAllocator() != exio.DefaultAllocator {
		t.Fatal("allocation window outside any slice is not DefaultAllocator")
	}
}

// TestWindowClosesWithSlice pins the allocation window's lifetime: once
// the unit that opened it has completed and the slice is over, the
// window reverts to DefaultAllocator instead of leaking the finished
// unit's allocator into later launches.
func TestWindowClosesWithSlice(t *testing.T) {
	ctx := exio.NewContext()
	d := ctx.Dispatcher()
	arena := exio.NewArenaAllocator(4)

	h, err := exio.Launch(d, kont.ExprReturn(1), exio.WithAllocator[int](arena))
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	ctx.Run()
	if _, err := h.Result(); err != nil {
		t.Fatalf("unit failed: %v", err)
	}
	if ctx.CurrentAllocator() != exio.DefaultAllocator {
		t.Fatal("allocation window survived the end of the slice")
	}

	// A later launch with no explicit allocator uses the default pool.
	h2, err := exio.Launch(d, kont.ExprPerform(exio.OwnAllocator{}))
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	ctx.Run()
	got, err := h2.Result()
	if err != nil {
		t.Fatalf("unit failed: %v", err)
	}
	if got != exio.DefaultAllocator {
		t.Fatal("later unit inherited a stale allocator")
	}
}
