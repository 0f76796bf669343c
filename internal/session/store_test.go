package session

import (
	"testing"
)

func TestMemoryStore_Save_Get(t *testing.T) {
	store := NewMemoryStore()
	sess := NewChallengeSession("two-sum", "javascript", "code")

	if err := store.Save(sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.ChallengeID != "two-sum" || loaded.Code != "code" {
		t.Errorf("loaded = %+v", loaded)
	}

	// Mutating a loaded copy must not leak into the store
	loaded.Code = "changed"
	again, _ := store.Get(sess.ID)
	if again.Code != "code" {
		t.Errorf("Code = %q; store should hold a copy", again.Code)
	}
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.Get("nonexistent"); err != ErrNotFound {
		t.Errorf("Get() error = %v; want ErrNotFound", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	sess := NewLessonSession("js-basics", 20)
	store.Save(sess)

	if err := store.Delete(sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists(sess.ID) {
		t.Error("session should not exist after Delete")
	}
	if err := store.Delete(sess.ID); err != ErrNotFound {
		t.Errorf("second Delete() error = %v; want ErrNotFound", err)
	}
}

func TestMemoryStore_List_Purge(t *testing.T) {
	store := NewMemoryStore()
	for i := 0; i < 3; i++ {
		store.Save(NewLessonSession("js-basics", 20))
	}

	ids, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("List() = %d ids; want 3", len(ids))
	}

	n, err := store.Purge()
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Purge() = %d; want 3", n)
	}
	if ids, _ := store.List(); len(ids) != 0 {
		t.Errorf("List() after Purge = %d ids; want 0", len(ids))
	}
}
