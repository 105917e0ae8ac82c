package program

import (
	"testing"

	"tyche/internal/effect"
)

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Weather{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(Weather{}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		t.Fatalf("register defaults: %v", err)
	}

	want := []string{"geometric", "ice-cream", "normal-product", "scaled-normal", "weather"}
	names := r.Names()
	if len(names) != len(want) {
		t.Fatalf("unexpected names: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("name %d: got %s want %s", i, names[i], want[i])
		}
	}

	for _, name := range want {
		p, ok := r.Lookup(name)
		if !ok {
			t.Fatalf("lookup %s failed", name)
		}
		if p.Body() == nil {
			t.Fatalf("program %s has nil body", name)
		}
	}
}

func TestWeatherTraceShape(t *testing.T) {
	res, err := effect.Run(Weather{}.Body(), effect.RunOptions{Seed: 11})
	if err != nil {
		t.Fatalf("run weather: %v", err)
	}

	names := res.Trace.Names()
	if len(names) != 2 || names[0] != "cloudy" || names[1] != "temp" {
		t.Fatalf("unexpected trace names: %v", names)
	}

	cloudy, _ := res.Trace.Lookup("cloudy")
	if cloudy.Value != 0 && cloudy.Value != 1 {
		t.Fatalf("cloudy must be an indicator, got %v", cloudy.Value)
	}
}

func TestIceCreamExtendsWeatherTrace(t *testing.T) {
	res, err := effect.Run(IceCream{}.Body(), effect.RunOptions{Seed: 11})
	if err != nil {
		t.Fatalf("run ice-cream: %v", err)
	}

	names := res.Trace.Names()
	want := []string{"cloudy", "temp", "sales"}
	if len(names) != len(want) {
		t.Fatalf("unexpected trace names: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("name %d: got %s want %s", i, names[i], want[i])
		}
	}
}

func TestGeometricLengthMatchesReturn(t *testing.T) {
	body := Geometric{P: 0.5}.Body()
	for seed := int64(0); seed < 50; seed++ {
		res, err := effect.Run(body, effect.RunOptions{Seed: seed})
		if err != nil {
			t.Fatalf("run geometric seed %d: %v", seed, err)
		}
		if res.Trace.Len() != int(res.Value)+1 {
			t.Fatalf("seed %d: %d sites for return %v", seed, res.Trace.Len(), res.Value)
		}
	}
}

func TestGeometricRejectsBadProbability(t *testing.T) {
	if _, err := effect.Run(Geometric{P: 1.5}.Body(), effect.RunOptions{}); err == nil {
		t.Fatal("expected constructor error to propagate")
	}
}

func TestScaledNormalSitesInOrder(t *testing.T) {
	res, err := effect.Run(ScaledNormal{}.Body(), effect.RunOptions{Seed: 2})
	if err != nil {
		t.Fatalf("run scaled-normal: %v", err)
	}

	names := res.Trace.Names()
	if len(names) != 2 || names[0] != "scale" || names[1] != "z" {
		t.Fatalf("unexpected trace names: %v", names)
	}
}
