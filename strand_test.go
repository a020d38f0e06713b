// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio_test

import (
	"reflect"
	"testing"

	"code.hybscloud.com/exio"
	"code.hybscloud.com/kont"
)

func TestStrandPreservesPostOrder(t *testing.T) {
	ctx := exio.NewContext()
	s := exio.NewStrand(ctx.Dispatcher())

	var got []int
	for i := 0; i < 8; i++ {
		i := i
		if err := s.Post(exio.NewContinuation(s, func() { got = append(got, i) })); err != nil {
			t.Fatalf("post %d failed: %v", i, err)
		}
	}
	ctx.Run()
	if !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4, 5, 6, 7}) {
		t.Fatalf("execution order = %v", got)
	}
}

func TestStrandDispatchInlineWhenIdle(t *testing.T) {
	ctx := exio.NewContext()
	s := exio.NewStrand(ctx.Dispatcher())

	ran := false
	if err := s.Dispatch(exio.NewContinuation(s, func() { ran = true })); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !ran {
		t.Fatal("handler did not run inline on an idle strand")
	}
}

func TestStrandSerializesNestedDispatch(t *testing.T) {
	ctx := exio.NewContext()
	s := exio.NewStrand(ctx.Dispatcher())

	var order []int
	err := s.Dispatch(exio.NewContinuation(s, func() {
		order = append(order, 1)
		inner := exio.NewContinuation(s, func() { order = append(order, 2) })
		if err := s.Dispatch(inner); err != nil {
			t.Errorf("nested dispatch failed: %v", err)
		}
		// The strand is busy with this handler; the nested one waits.
		order = append(order, 3)
	}))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !reflect.DeepEqual(order, []int{1, 3, 2}) {
		t.Fatalf("execution order = %v, want [1 3 2]", order)
	}
}

func TestStrandContext(t *testing.T) {
	ctx := exio.NewContext()
	s := exio.NewStrand(ctx.Dispatcher())
	if s.Context() != ctx {
		t.Fatal("strand does not report the wrapped context")
	}
}

func TestLaunchOnStrand(t *testing.T) {
	ctx := exio.NewContext()
	s := exio.NewStrand(ctx.Dispatcher())

	h, err := exio.Launch[int](s, exio.ExprCall(kont.ExprReturn(27)))
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	ctx.Run()
	v, err := h.Result()
	if err != nil || v != 27 {
		t.Fatalf("result = (%d, %v), want (27, nil)", v, err)
	}
}

func TestStrandRefusedByStoppedContext(t *testing.T) {
	ctx := exio.NewContext()
	s := exio.NewStrand(ctx.Dispatcher())
	ctx.Stop()

	err := s.Post(exio.NewContinuation(s, func() { t.Error("handler ran on a stopped context") }))
	if !exio.IsUnavailable(err) {
		t.Fatalf("post returned %v, want ErrUnavailable", err)
	}

	// The failed claim released exclusivity: after a restart the strand
	// accepts and runs work again.
	ctx.Restart()
	ran := false
	if err := s.Post(exio.NewContinuation(s, func() { ran = true })); err != nil {
		t.Fatalf("post after restart failed: %v", err)
	}
	ctx.Run()
	if !ran {
		t.Fatal("handler did not run after restart")
	}
}
