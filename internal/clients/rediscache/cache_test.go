package rediscache

import (
	"context"
	"testing"
)

func TestKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{"route only", Key{Route: "problem-daily"}, "resp:problem-daily"},
		{"with params", Key{Route: "problem-details", Params: []string{"two-sum"}}, "resp:problem-details:two-sum"},
		{"params are escaped", Key{Route: "search", Params: []string{"two sum", "20"}}, "resp:search:two+sum:20"},
		{"empty param keeps its slot", Key{Route: "list", Params: []string{"50", "", "Easy"}}, "resp:list:50::Easy"},
		{"colon in param cannot fake a segment", Key{Route: "x", Params: []string{"a:b"}}, "resp:x:a%3Ab"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.key.String(); got != tc.want {
				t.Fatalf("Key.String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKeyString_DistinctParamsDistinctKeys(t *testing.T) {
	a := Key{Route: "list", Params: []string{"a:b", "c"}}
	b := Key{Route: "list", Params: []string{"a", "b:c"}}
	if a.String() == b.String() {
		t.Fatalf("structurally different keys must not collide: %q", a.String())
	}
}

func TestNilCacheIsPassThrough(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var out map[string]string
	if c.Get(ctx, Key{Route: "x"}, &out) {
		t.Fatal("nil cache should always miss")
	}
	// Set and Close must be safe no-ops.
	c.Set(ctx, Key{Route: "x"}, map[string]string{"a": "b"}, 0)
	if err := c.Close(); err != nil {
		t.Fatalf("nil cache close: %v", err)
	}
}
