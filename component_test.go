package silo

import (
	"reflect"
	"testing"
)

type testPosition struct {
	X, Y float64
}

type testVelocity struct {
	X, Y float64
}

type testTag struct{}

func TestFnv1a32Deterministic(t *testing.T) {
	a := fnv1a32("silo.testPosition")
	b := fnv1a32("silo.testPosition")
	if a != b {
		t.Fatalf("fnv1a32 not deterministic: %d != %d", a, b)
	}
	if fnv1a32("silo.testPosition") == fnv1a32("silo.testVelocity") {
		t.Fatalf("distinct names hashed to the same value")
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	d1 := register[testPosition]()
	d2 := register[testPosition]()
	if d1.hash != d2.hash {
		t.Fatalf("registering the same type twice produced different hashes")
	}
}

func TestIsTriviallyRelocatable(t *testing.T) {
	type withSlice struct {
		Xs []int
	}
	type plain struct {
		X, Y, Z float64
	}

	cases := []struct {
		name string
		t    any
		want bool
	}{
		{"plain struct", plain{}, true},
		{"struct with slice field", withSlice{}, false},
	}
	for _, c := range cases {
		got := isTriviallyRelocatable(reflect.TypeOf(c.t))
		if got != c.want {
			t.Errorf("%s: isTriviallyRelocatable = %v, want %v", c.name, got, c.want)
		}
	}
}
