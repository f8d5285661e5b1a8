package imagecache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestBucket(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "images.db")

	b, err := OpenBucket(dbPath, "site-v1")
	if err != nil {
		t.Fatalf("OpenBucket failed: %v", err)
	}
	defer b.Close()

	url := "https://cdn.example.com/hero.jpg"

	t.Run("Match on empty bucket is not found", func(t *testing.T) {
		if _, err := b.Match(ctx, url); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("Put then Match returns the entry", func(t *testing.T) {
		if err := b.Put(ctx, Entry{URL: url, ContentType: "image/jpeg", Body: []byte("v1")}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		e, err := b.Match(ctx, url)
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if string(e.Body) != "v1" || e.Key != Key(url) || e.StoredAt.IsZero() {
			t.Errorf("unexpected entry %+v", e)
		}
	})

	t.Run("Put replaces rather than duplicates", func(t *testing.T) {
		if err := b.Put(ctx, Entry{URL: url, ContentType: "image/jpeg", Body: []byte("v2-longer")}); err != nil {
			t.Fatal(err)
		}
		st, err := b.Stats(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if st.Entries != 1 || st.Bytes != int64(len("v2-longer")) {
			t.Errorf("stats = %+v, want one entry", st)
		}
		e, err := b.MatchKey(ctx, Key(url))
		if err != nil {
			t.Fatal(err)
		}
		if string(e.Body) != "v2-longer" {
			t.Errorf("body = %q", e.Body)
		}
	})

	t.Run("buckets are isolated by name", func(t *testing.T) {
		other, err := OpenBucket(dbPath, "site-v2")
		if err != nil {
			t.Fatal(err)
		}
		defer other.Close()
		if ok, err := other.Has(ctx, url); err != nil || ok {
			t.Errorf("Has = %v, %v; want false", ok, err)
		}
	})

	t.Run("entries survive reopen", func(t *testing.T) {
		b.Close()
		reopened, err := OpenBucket(dbPath, "site-v1")
		if err != nil {
			t.Fatal(err)
		}
		defer reopened.Close()
		if ok, err := reopened.Has(ctx, url); err != nil || !ok {
			t.Errorf("Has after reopen = %v, %v", ok, err)
		}
	})
}

func TestKeyIsStable(t *testing.T) {
	a := Key("https://cdn.example.com/a.png")
	if a != Key("https://cdn.example.com/a.png") {
		t.Error("Key not deterministic")
	}
	if a == Key("https://cdn.example.com/b.png") {
		t.Error("distinct URLs share a key")
	}
	if len(a) != 32 {
		t.Errorf("key length = %d, want 32", len(a))
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://cdn.example.com/private/photo.jpg?sig=secret")
	if got != "https://cdn.example.com/...(redacted)" {
		t.Errorf("redactURL = %q", got)
	}
	if got := redactURL("not a url"); got != "url://...(redacted)" {
		t.Errorf("redactURL(garbage) = %q", got)
	}
}
