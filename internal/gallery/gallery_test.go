package gallery

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddAndList(t *testing.T) {
	store := openTestStore(t)

	items := []Item{
		{ID: "castle-01", Title: "Castle", Kind: "design", Author: "ada", JSONPath: "designs/castle.json", AddedAt: time.Now().Add(-time.Hour).Unix()},
		{ID: "bridge-02", Title: "Bridge", Kind: "design", Author: "lin", JSONPath: "designs/bridge.json", ImagePath: "previews/bridge.png", AddedAt: time.Now().Unix()},
	}
	for _, item := range items {
		if err := store.Add(item); err != nil {
			t.Fatalf("Add(%s): %v", item.ID, err)
		}
	}

	got, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].ID != "bridge-02" {
		t.Errorf("first entry = %s, want the newest", got[0].ID)
	}
	if got[0].ImagePath != "previews/bridge.png" {
		t.Errorf("image path = %q", got[0].ImagePath)
	}
	if got[1].ImagePath != "" {
		t.Errorf("missing image path should stay empty, got %q", got[1].ImagePath)
	}
}

func TestAddReplacesByID(t *testing.T) {
	store := openTestStore(t)

	if err := store.Add(Item{ID: "castle-01", Title: "Castle", Kind: "design", Author: "ada", JSONPath: "a.json"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(Item{ID: "castle-01", Title: "Castle v2", Kind: "design", Author: "ada", JSONPath: "b.json"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("entries = %d, want 1 after replace", len(got))
	}
	if got[0].Title != "Castle v2" || got[0].JSONPath != "b.json" {
		t.Errorf("entry = %+v, want the replacement", got[0])
	}
}

func TestAddFillsTimestamp(t *testing.T) {
	store := openTestStore(t)

	if err := store.Add(Item{ID: "x", Title: "X", Kind: "design", Author: "ada", JSONPath: "x.json"}); err != nil {
		t.Fatal(err)
	}
	got, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if got[0].AddedAt == 0 {
		t.Error("AddedAt should default to now")
	}
}
