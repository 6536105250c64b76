package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/foxzi/listdash/internal/config"
	"github.com/foxzi/listdash/internal/store"
)

func TestGenerateRandomString(t *testing.T) {
	for _, length := range []int{16, 32, 64} {
		if got := generateRandomString(length); len(got) != length {
			t.Errorf("generateRandomString(%d) returned length %d", length, len(got))
		}
	}
	if generateRandomString(32) == generateRandomString(32) {
		t.Error("generateRandomString should generate unique strings")
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := hashPassword("short"); err == nil {
		t.Error("hashPassword() should reject short passwords")
	}

	hash, err := hashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hashPassword() error = %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse battery")); err != nil {
		t.Errorf("hash does not match password: %v", err)
	}
}

// writeTestConfig writes a config generated by init into a temp dir
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	initAdminEmail = "admin@example.com"
	initListenAddr = ":8080"
	initBaseURL = "https://lists.example.com"
	initDataDir = dir
	initAPIKey = "testapikey"
	initMetrics = false

	path := filepath.Join(dir, "config.yaml")
	data := generateConfig("$2a$10$abcdefghijklmnopqrstuu", strings.Repeat("s", 64))
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestGenerateConfigLoads(t *testing.T) {
	path := writeTestConfig(t)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if u := cfg.FindUser("ADMIN@example.com"); u == nil || !u.Superuser {
		t.Errorf("FindUser() = %+v, want superuser", u)
	}
	if cfg.API.APIKey != "testapikey" {
		t.Errorf("APIKey = %q", cfg.API.APIKey)
	}
	if cfg.Client.DashboardURL != "http://localhost:8080/dashboard" {
		t.Errorf("DashboardURL = %q", cfg.Client.DashboardURL)
	}
	if cfg.Dashboard.SyncInterval.String() != "1m0s" {
		t.Errorf("SyncInterval = %v, want 1m", cfg.Dashboard.SyncInterval)
	}
}

func TestAdminCommands(t *testing.T) {
	path := writeTestConfig(t)

	steps := [][]string{
		{"domain", "add", "example.com", "https://example.com"},
		{"list", "create", "announce@example.com"},
		{"list", "add-owner", "announce.example.com", "owner@example.com"},
		{"list", "subscribe", "announce.example.com", "ann@example.com"},
		{"request", "add", "subscription", "announce.example.com", "new@example.com"},
	}
	for _, args := range steps {
		rootCmd.SetArgs(append([]string{"-c", path}, args...))
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("listdash %s: %v", strings.Join(args, " "), err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	l, err := st.GetList(ctx, "announce.example.com")
	if err != nil || l == nil {
		t.Fatalf("GetList() = %v, %v", l, err)
	}
	if !l.IsOwner("owner@example.com") || !l.IsMember("ann@example.com") {
		t.Errorf("list rosters = %+v", l)
	}
	reqs, _ := st.ListRequests(ctx, store.KindSubscription)
	if len(reqs) != 1 || reqs[0].Email != "new@example.com" {
		t.Errorf("requests = %+v", reqs)
	}
}
