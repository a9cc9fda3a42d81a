package local

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

type record struct {
	Level int    `json:"level"`
	Round int    `json:"round"`
	Note  string `json:"note,omitempty"`
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "nested")

	if _, err := NewStore(dir); err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory, got file")
	}
}

func TestStore_Save_Load(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	want := record{Level: 3, Round: 7, Note: "resumed"}
	if err := store.Save("players", "default", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var got record
	if err := store.Load("players", "default", &got); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v; want %+v", got, want)
	}
}

func TestStore_Save_Overwrite(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)

	store.Save("players", "p1", record{Level: 1})
	store.Save("players", "p1", record{Level: 2})

	var got record
	store.Load("players", "p1", &got)
	if got.Level != 2 {
		t.Errorf("Level = %d; want 2", got.Level)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "players"))
	if len(entries) != 1 {
		t.Errorf("found %d files; temp files should not survive a save", len(entries))
	}
}

func TestStore_Load_NotFound(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	var got record
	if err := store.Load("players", "missing", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v; want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	store.Save("players", "p1", record{Level: 1})

	if err := store.Delete("players", "p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete("players", "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v; want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	got, err := store.List("players")
	if err != nil {
		t.Fatalf("List() on empty collection error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List() = %v; want empty", got)
	}

	store.Save("players", "bob", record{})
	store.Save("players", "alice", record{})

	got, _ = store.List("players")
	if !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Errorf("List() = %v; want [alice bob]", got)
	}
}

func TestStore_SaveDir_LoadDir(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	if err := store.SaveDir("players", "p1", "rounds", "r2", record{Round: 2}); err != nil {
		t.Fatalf("SaveDir() error = %v", err)
	}
	store.SaveDir("players", "p1", "rounds", "r1", record{Round: 1})

	var got record
	if err := store.LoadDir("players", "p1", "rounds", "r2", &got); err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if got.Round != 2 {
		t.Errorf("Round = %d; want 2", got.Round)
	}

	names, err := store.ListDir("players", "p1", "rounds")
	if err != nil {
		t.Fatalf("ListDir() error = %v", err)
	}
	if !reflect.DeepEqual(names, []string{"r1", "r2"}) {
		t.Errorf("ListDir() = %v; want [r1 r2]", names)
	}

	if err := store.LoadDir("players", "p1", "rounds", "r9", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadDir(missing) error = %v; want ErrNotFound", err)
	}
	if names, _ := store.ListDir("players", "nobody", "rounds"); len(names) != 0 {
		t.Errorf("ListDir(unknown) = %v; want empty", names)
	}
}

func TestStore_RejectsInvalidIDs(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	for _, id := range []string{"", "..", "../escape", `a\b`, "a/b"} {
		if err := store.Save("players", id, record{}); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Save(%q) error = %v; want ErrInvalidID", id, err)
		}
	}
	if _, err := store.ListDir("players", "p1", "../x"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("ListDir() error = %v; want ErrInvalidID", err)
	}
}

func TestStore_Concurrency(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			store.Save("players", string(rune('a'+n)), record{Level: n})
		}(i)
		go func() {
			defer wg.Done()
			store.List("players")
		}()
	}
	wg.Wait()

	names, _ := store.List("players")
	if len(names) != 10 {
		t.Errorf("List() returned %d names; want 10", len(names))
	}
}
