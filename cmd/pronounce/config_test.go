package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway != "http://localhost:8080" || cfg.StoreTTL != 30*24*time.Hour {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("PRONOUNCE_TEST_GATEWAY", "https://tts.example.com")
	path := filepath.Join(t.TempDir(), "pronounce.yaml")
	data := `
gateway: ${PRONOUNCE_TEST_GATEWAY}
store_ttl: 48h
player:
  command: ffplay
  args: ["-nodisp", "-autoexit"]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway != "https://tts.example.com" {
		t.Errorf("gateway = %q", cfg.Gateway)
	}
	if cfg.StoreTTL != 48*time.Hour {
		t.Errorf("store_ttl = %v", cfg.StoreTTL)
	}
	if cfg.Timeout != 20*time.Second {
		t.Errorf("unset timeout should keep default, got %v", cfg.Timeout)
	}
	if cfg.Player.Command != "ffplay" || len(cfg.Player.Args) != 2 {
		t.Errorf("player = %+v", cfg.Player)
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("gateway: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	opts := globalOptions{
		configPath: filepath.Join(t.TempDir(), "none.yaml"),
		gateway:    "http://gw:9000",
		storePath:  "/tmp/x.db",
	}
	cfg, err := opts.load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway != "http://gw:9000" || cfg.StorePath != "/tmp/x.db" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}

func TestLoadConfigSearchesUserDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PRONOUNCE_CONFIG_HOME", home)
	if err := os.WriteFile(filepath.Join(home, configFileName), []byte("gateway: http://found:1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	dirs := configSearchDirs()
	if len(dirs) == 0 || dirs[0] != home {
		t.Fatalf("PRONOUNCE_CONFIG_HOME should be searched first, got %v", dirs)
	}
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway != "http://found:1" {
		t.Errorf("gateway = %q", cfg.Gateway)
	}
}

func TestFindConfigNoneFound(t *testing.T) {
	if got := findConfig([]string{t.TempDir(), filepath.Join(t.TempDir(), "missing")}); got != "" {
		t.Fatalf("findConfig = %q, want empty", got)
	}
}

func TestDefaultStoreUnderUserCacheDir(t *testing.T) {
	dir, err := userScope.CacheDir()
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}
	if got := DefaultConfig().StorePath; got != filepath.Join(dir, "audio.db") {
		t.Fatalf("store path = %q, want under %q", got, dir)
	}
}
