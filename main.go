package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dhkang92/lodo/internal/config"
	"github.com/dhkang92/lodo/internal/export"
	"github.com/dhkang92/lodo/internal/store"
	"github.com/dhkang92/lodo/internal/todo"
	"github.com/dhkang92/lodo/internal/tui"
)

func main() {
	dbFlag := flag.String("db", "", "path to the database file (overrides config)")
	importFlag := flag.String("import", "", "replace saved state with a JSON export before starting")
	exportFlag := flag.String("export", "", "write the saved state as JSON to this path and exit")
	flag.Parse()

	if err := run(*dbFlag, *importFlag, *exportFlag); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath, importPath, exportPath string) error {
	dir, err := config.DefaultDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(dir, dbPath)
	if err != nil {
		return err
	}

	s, err := store.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	if err := seedSettings(s, cfg); err != nil {
		return err
	}

	state, err := loadState(s, importPath)
	if err != nil {
		return err
	}

	// Replay any reset boundaries missed while the program was closed.
	state = todo.ApplyAutoResetIfNeeded(state)
	if err := saveState(s, state); err != nil {
		return err
	}

	if exportPath != "" {
		if err := export.ToJSON(state, exportPath); err != nil {
			return err
		}
		fmt.Println("exported to", exportPath)
		return nil
	}

	app := tui.NewApp(s, state)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// seedSettings copies service credentials from the config file into the
// settings table on first run. Values edited in the UI win afterwards.
func seedSettings(s *store.Store, cfg config.Config) error {
	pairs := []struct{ key, value string }{
		{store.SettingServiceURL, cfg.ServiceURL},
		{store.SettingFriendCode, cfg.FriendCode},
		{store.SettingNickname, cfg.Nickname},
	}
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		current, err := s.GetSetting(p.key)
		if err != nil {
			return err
		}
		if current == "" {
			if err := s.SetSetting(p.key, p.value); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadState(s *store.Store, importPath string) (todo.State, error) {
	if importPath != "" {
		state, err := export.ImportFile(importPath)
		if err != nil {
			return todo.State{}, fmt.Errorf("import %s: %w", importPath, err)
		}
		return state, nil
	}

	data, err := s.LoadState()
	if errors.Is(err, store.ErrNoState) {
		return todo.DefaultState(), nil
	}
	if err != nil {
		return todo.State{}, err
	}
	state, err := todo.DecodeState(data)
	if err != nil {
		// A corrupt blob should not brick the app. The bad value stays
		// in the database until the next save.
		fmt.Fprintf(os.Stderr, "warning: saved state unreadable, starting fresh: %v\n", err)
		return todo.DefaultState(), nil
	}
	return state, nil
}

func saveState(s *store.Store, state todo.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.SaveState(data)
}
