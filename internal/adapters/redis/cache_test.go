package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	redisad "review_dashboard/internal/adapters/redis"
	"review_dashboard/internal/domain"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	rating := 9.5
	in := []domain.Review{{ID: "7453", PropertyID: "soho-loft", GuestName: "Ana", Rating: &rating}}

	if err := c.Set(ctx, "reviews:soho-loft:any:50", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out []domain.Review
	ok, err := c.Get(ctx, "reviews:soho-loft:any:50", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(out) != 1 || out[0].ID != "7453" || out[0].Rating == nil || *out[0].Rating != 9.5 {
		t.Fatalf("round-trip mismatch: %+v", out)
	}

	if err := c.Del(ctx, "reviews:soho-loft:any:50"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, err = c.Get(ctx, "reviews:soho-loft:any:50", &out)
	if err != nil {
		t.Fatalf("get after del: %v", err)
	}
	if ok {
		t.Fatal("expected miss after delete")
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)

	var out []domain.Review
	ok, err := c.Get(context.Background(), "nope", &out)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}
