package auth

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v", ok, err)
	}

	exp := time.UnixMilli(1_700_000_000_000)
	if err := store.Save(alice(exp)); err != nil {
		t.Fatal(err)
	}
	bob := Credential{Identity: Identity{Username: "bob", DisplayName: "Bob", AccountType: "email"}, AccessExp: exp.Add(time.Hour)}
	if err := store.Save(bob); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Identity != bob.Identity || !got.AccessExp.Equal(bob.AccessExp) {
		t.Errorf("loaded %+v, want %+v", got, bob)
	}

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Errorf("identity should be gone after Clear")
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(alice(time.Time{})); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, ok, err := reopened.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Username != "alice" || !got.AccessExp.IsZero() {
		t.Errorf("loaded %+v", got)
	}
}
