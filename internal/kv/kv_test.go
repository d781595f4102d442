package kv

import (
	"path/filepath"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), "things")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Put("things", "a", []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	v, ok, err := db.Get("things", "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || string(v) != "1" {
		t.Fatalf("Get = (%q, %v), want (1, true)", v, ok)
	}

	_, ok, err = db.Get("things", "missing")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if ok {
		t.Fatal("Get reported a missing key as present")
	}
}

func TestForEachOrdersByKey(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), "things")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, k := range []string{"c", "a", "b"} {
		if err := db.Put("things", k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	err = db.ForEach("things", func(key, _ []byte) error {
		got = append(got, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path, "things")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Put("things", "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db2, err := Open(path, "things")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db2.Close() }()

	v, ok, err := db2.Get("things", "k")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(v) != "v" {
		t.Fatalf("Get after reopen = (%q, %v), want (v, true)", v, ok)
	}
}
