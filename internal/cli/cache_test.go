package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pyview/hiergraph/pkg/cache"
)

func TestCacheDirFromConfig(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Cache.Dir = "/tmp/hiergraph-cache"

	dir, err := c.cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != "/tmp/hiergraph-cache" {
		t.Errorf("cacheDir() = %q, want config dir", dir)
	}
}

func TestCacheDirDefault(t *testing.T) {
	c := New(io.Discard, LogInfo)

	dir, err := c.cacheDir()
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}
	if !strings.HasSuffix(dir, appName) {
		t.Errorf("cacheDir() = %q, should end with %q", dir, appName)
	}
}

func TestCacheCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := filepath.Join(t.TempDir(), "cache")
	writeFile(t, "hiergraph.toml", "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_ = fc.Set(ctx, "a", []byte("1"), time.Hour)
	_ = fc.Set(ctx, "b", []byte("2"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		root := New(io.Discard, LogInfo).RootCommand()
		root.SetOut(&out)
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	if got := strings.TrimSpace(run("cache", "path")); got != filepath.ToSlash(dir) && got != dir {
		t.Errorf("cache path = %q, want %q", got, dir)
	}
	if out := run("cache", "info"); !strings.Contains(out, "1 expired") {
		t.Errorf("cache info = %q, want expired count", out)
	}

	run("cache", "prune")
	if u, _ := fc.Usage(); u.Entries != 1 {
		t.Errorf("after prune entries = %d, want 1", u.Entries)
	}

	run("cache", "clear")
	if u, _ := fc.Usage(); u.Entries != 0 {
		t.Errorf("after clear entries = %d, want 0", u.Entries)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
