package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// State blobs
// ============================================================

func TestLoadStateEmpty(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadState(); !errors.Is(err, ErrNoState) {
		t.Fatalf("err = %v, want ErrNoState", err)
	}
}

func TestSaveLoadState(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveState([]byte(`{"tables":[]}`)); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	got, err := s.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if string(got) != `{"tables":[]}` {
		t.Fatalf("got %q", got)
	}
}

func TestSaveStateOverwrites(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveState([]byte(`v1`)); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if err := s.SaveState([]byte(`v2`)); err != nil {
		t.Fatalf("SaveState again: %v", err)
	}
	got, err := s.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if string(got) != "v2" {
		t.Fatalf("got %q, want v2", got)
	}
}

func TestRaidLeftIsSeparateKey(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveState([]byte(`state`)); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if _, err := s.LoadRaidLeft(); !errors.Is(err, ErrNoState) {
		t.Fatalf("err = %v, want ErrNoState", err)
	}

	if err := s.SaveRaidLeft([]byte(`{"c1":2}`)); err != nil {
		t.Fatalf("SaveRaidLeft: %v", err)
	}
	got, err := s.LoadRaidLeft()
	if err != nil {
		t.Fatalf("LoadRaidLeft: %v", err)
	}
	if string(got) != `{"c1":2}` {
		t.Fatalf("got %q", got)
	}
}

func TestGemsIsSeparateKey(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveState([]byte(`state`)); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if _, err := s.LoadGems(); !errors.Is(err, ErrNoState) {
		t.Fatalf("err = %v, want ErrNoState", err)
	}

	if err := s.SaveGems([]byte(`{"columns":["Storage"]}`)); err != nil {
		t.Fatalf("SaveGems: %v", err)
	}
	got, err := s.LoadGems()
	if err != nil {
		t.Fatalf("LoadGems: %v", err)
	}
	if string(got) != `{"columns":["Storage"]}` {
		t.Fatalf("got %q", got)
	}

	state, err := s.LoadState()
	if err != nil || string(state) != "state" {
		t.Fatalf("state blob disturbed: %q, %v", state, err)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsSeededOnMigrate(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetSetting(SettingShareMode)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "PRIVATE" {
		t.Fatalf("share_mode = %q, want PRIVATE default", v)
	}
}

func TestSetGetSetting(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetSetting(SettingNickname, "dhkang"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	v, err := s.GetSetting(SettingNickname)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "dhkang" {
		t.Fatalf("nickname = %q", v)
	}

	// Upsert replaces.
	if err := s.SetSetting(SettingNickname, "other"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if v, _ := s.GetSetting(SettingNickname); v != "other" {
		t.Fatalf("nickname = %q, want other", v)
	}
}

func TestGetUnknownSetting(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetSetting("never-seeded")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "" {
		t.Fatalf("got %q, want empty", v)
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatalf("GetAllSettings: %v", err)
	}
	if len(all) < 4 {
		t.Fatalf("settings = %d, want at least the seeded four", len(all))
	}
}

// ============================================================
// File-backed open
// ============================================================

func TestNewCreatesFileAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "lodo.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.SaveState([]byte(`persist-me`)); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if string(got) != "persist-me" {
		t.Fatalf("got %q", got)
	}
}
