package validator

import (
	"context"
	"strings"
	"testing"

	"audiocheck/internal/report"
	"audiocheck/internal/settings"
	"audiocheck/internal/testsupport"
)

func ids(vs []Validator) string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID()
	}
	return strings.Join(out, ",")
}

func TestActiveReturnsFreshEnabledValidatorsInOrder(t *testing.T) {
	reg, err := NewRegistry(Builtins(), Options{Settings: newSettings(t)})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ctx := context.Background()
	first, err := reg.Active(ctx)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if got := ids(first); got != "format,amplitude,noise,metadata" {
		t.Fatalf("active = %s", got)
	}
	second, err := reg.Active(ctx)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	for i := range first {
		if first[i] == second[i] {
			t.Fatalf("validator %s instance reused", first[i].ID())
		}
	}
}

func TestActiveHonoursEnableState(t *testing.T) {
	state := NewMemoryState()
	reg, err := NewRegistry(Builtins(), Options{Settings: newSettings(t), State: state})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ctx := context.Background()
	if err := reg.SetEnabled(ctx, IDFilename, true); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetEnabled(ctx, IDNoise, false); err != nil {
		t.Fatal(err)
	}
	active, err := reg.Active(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(active); got != "format,amplitude,filename,metadata" {
		t.Fatalf("active = %s", got)
	}
	if err := reg.SetEnabled(ctx, "bogus", true); err == nil {
		t.Fatal("expected error for unknown identity")
	}
}

func TestProfilesAndOverridesResolveStrictness(t *testing.T) {
	lenient, err := NewRegistry(Builtins(), Options{Settings: newSettings(t, testsupport.WithProfile(settings.ProfileLenient))})
	if err != nil {
		t.Fatal(err)
	}
	if lenient.Strictness(IDNoise) != report.Ignore || lenient.Strictness(IDAmplitude) != report.Optional {
		t.Fatalf("lenient strictness noise=%v amplitude=%v", lenient.Strictness(IDNoise), lenient.Strictness(IDAmplitude))
	}
	active, err := lenient.Active(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(active); got != "format,amplitude,metadata" {
		t.Fatalf("lenient active = %s", got)
	}
	for _, entry := range lenient.Entries() {
		want := entry.Descriptor.ID == IDNoise || entry.Descriptor.ID == IDFilename
		if entry.Excluded != want {
			t.Fatalf("%s excluded = %v, want %v", entry.Descriptor.ID, entry.Excluded, want)
		}
	}

	overridden, err := NewRegistry(Builtins(), Options{Settings: newSettings(t, testsupport.WithStrictness(IDFormat, "ignore"))})
	if err != nil {
		t.Fatal(err)
	}
	if overridden.Strictness(IDFormat) != report.Ignore {
		t.Fatalf("override not applied: %v", overridden.Strictness(IDFormat))
	}
	active, err = overridden.Active(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(ids(active), IDFormat) {
		t.Fatalf("ignored validator active: %s", ids(active))
	}
	for _, v := range active {
		if v.(interface{ Strictness() report.Strictness }).Strictness() == report.Ignore {
			t.Fatalf("%s instantiated with ignore", v.ID())
		}
	}
}

func TestStrictnessUnknownIdentityPanics(t *testing.T) {
	reg, err := NewRegistry(Builtins(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	reg.Strictness("unknown")
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	descs := append(Builtins(), Builtins()[0])
	if _, err := NewRegistry(descs, Options{}); err == nil {
		t.Fatal("expected duplicate identity error")
	}
}
