package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func readFile(calls *int32) func(string) (string, error) {
	return func(path string) (string, error) {
		atomic.AddInt32(calls, 1)
		b, err := os.ReadFile(path)
		return string(b), err
	}
}

func TestLoadReloadsChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "communes.csv")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(time.Minute)
	var calls int32
	for i := 0; i < 3; i++ {
		v, err := Load(s, path, readFile(&calls))
		if err != nil || v != "v1" {
			t.Fatalf("Load = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loaded %d times, want 1", calls)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	v, err := Load(s, path, readFile(&calls))
	if err != nil || v != "v2" {
		t.Fatalf("Load after change = %q, %v", v, err)
	}
	if calls != 2 {
		t.Fatalf("loaded %d times, want 2", calls)
	}
}

func TestLoadCollapsesConcurrentMisses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.csv")
	if err := os.WriteFile(path, []byte("rows"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(time.Minute)
	var calls int32
	release := make(chan struct{})
	slow := func(p string) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "rows", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Load(s, path, slow); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("loaded %d times, want 1", calls)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(time.Minute)
	var calls int32
	_, err := Load(s, filepath.Join(t.TempDir(), "absent.csv"), readFile(&calls))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
	if calls != 0 {
		t.Fatal("loader called for a missing file")
	}
}

func TestInvalidateIfStale(t *testing.T) {
	s := NewStore(time.Minute)
	snapshot := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.put("survey", entry{mtime: snapshot, value: 1})

	if s.InvalidateIfStale("survey", snapshot) {
		t.Fatal("same mtime should not invalidate")
	}
	if s.InvalidateIfStale("unknown", snapshot) {
		t.Fatal("unknown source should not invalidate")
	}
	if !s.InvalidateIfStale("survey", snapshot.Add(time.Second)) {
		t.Fatal("new mtime should invalidate")
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d after invalidation", s.Len())
	}
}

func TestRemember(t *testing.T) {
	s := NewStore(time.Minute)
	calls := 0
	fn := func() (float64, error) {
		calls++
		return 37.5, nil
	}

	for i := 0; i < 2; i++ {
		v, err := Remember(s, "global", fn)
		if err != nil || v != 37.5 {
			t.Fatalf("Remember = %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("computed %d times, want 1", calls)
	}

	s.Clear()
	if _, err := Remember(s, "global", fn); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("Clear did not drop the value, calls = %d", calls)
	}

	boom := errors.New("boom")
	if _, err := Remember(s, "failing", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
