package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "test.env")
	if err := os.WriteFile(p, []byte("CL_DOTENV_A=from-file\nCL_DOTENV_B=\"quoted value\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CL_DOTENV_A", "from-env")
	t.Setenv("CL_DOTENV_B", "")
	_ = os.Unsetenv("CL_DOTENV_B")

	loaded, err := LoadDotenv(p, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != p {
		t.Fatalf("loaded = %v", loaded)
	}
	if got := os.Getenv("CL_DOTENV_A"); got != "from-env" {
		t.Fatalf("existing env overridden: %q", got)
	}
	if got := New().Prefix("CL_DOTENV_").MayString("B", ""); got != "quoted value" {
		t.Fatalf("B = %q", got)
	}
}

func TestLoadDotenv_EnvFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "alt.env")
	_ = os.WriteFile(p, []byte("CL_DOTENV_C=alt\n"), 0o600)
	t.Setenv("ENV_FILE", p)
	t.Setenv("CL_DOTENV_C", "")
	_ = os.Unsetenv("CL_DOTENV_C")

	if _, err := LoadDotenv(); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("CL_DOTENV_C"); got != "alt" {
		t.Fatalf("C = %q", got)
	}
}
