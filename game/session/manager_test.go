package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/snake-arcade/game/engine"
	"github.com/wricardo/snake-arcade/game/service"
)

func createTestConfig() *engine.GameConfig {
	config := engine.DefaultGameConfig()
	config.Name = "Test Config"
	config.Description = "Test configuration"
	config.GridSize = 8
	return config
}

func newTestManager() (*Manager, *engine.ManualScheduler) {
	scheduler := engine.NewManualScheduler()
	return NewManager(engine.WithScheduler(scheduler)), scheduler
}

var alice = service.Owner{Username: "alice"}

func TestManager_Create(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", "test", config, alice)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Engine == nil {
			t.Error("Expected engine to be initialized")
		}
		if session.ConfigID != "test" || session.Owner != alice {
			t.Errorf("Expected config ID and owner to be kept, got %q / %+v", session.ConfigID, session.Owner)
		}
		if session.Engine.GetState().Phase != engine.PhaseIdle {
			t.Errorf("Expected a new session to be idle, got %s", session.Engine.GetState().Phase)
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", "test", config, alice)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got '%s'", session.ID)
		}
	})

	t.Run("IDs are case-insensitive", func(t *testing.T) {
		session, err := manager.Create("MiXeD", "test", config, alice)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "mixed" {
			t.Errorf("Expected lower-case ID, got %s", session.ID)
		}
		if _, err := manager.Create("mixed", "test", config, alice); !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("rejects path-like IDs", func(t *testing.T) {
		for _, id := range []string{"../x", "a/b", " pad"} {
			if _, err := manager.Create(id, "test", config, alice); !errors.Is(err, ErrInvalidSessionID) {
				t.Errorf("Create(%q) = %v, expected ErrInvalidSessionID", id, err)
			}
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := createTestConfig()
		bad.GridSize = 2
		if _, err := manager.Create("bad", "test", bad, alice); err == nil {
			t.Error("Expected error for invalid config")
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager, _ := newTestManager()
	created, _ := manager.Create("abcd", "test", createTestConfig(), alice)

	got, err := manager.Get("ABCD")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != created {
		t.Error("Expected the same session instance")
	}

	if _, err := manager.Get("none"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ListAndCount(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	for _, id := range []string{"s1", "s2", "s3"} {
		manager.Create(id, "test", config, alice)
	}

	if manager.Count() != 3 {
		t.Errorf("Expected 3 sessions, got %d", manager.Count())
	}

	ids := make(map[string]bool)
	for _, s := range manager.List() {
		ids[s.ID] = true
	}
	for _, id := range []string{"s1", "s2", "s3"} {
		if !ids[id] {
			t.Errorf("Expected %s in list", id)
		}
	}
}

func TestManager_DeleteStopsEngine(t *testing.T) {
	manager, scheduler := newTestManager()
	session, _ := manager.Create("run1", "test", createTestConfig(), alice)

	session.Engine.Start()
	if scheduler.Active() != 1 {
		t.Fatalf("Expected a running timer, got %d", scheduler.Active())
	}

	if err := manager.Delete("run1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if scheduler.Active() != 0 {
		t.Errorf("Expected the timer to be stopped, got %d active", scheduler.Active())
	}
	if _, err := manager.Get("run1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := manager.Delete("run1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager, _ := newTestManager()
	session, _ := manager.Create("touch", "test", createTestConfig(), alice)

	before := session.LastAccessed()
	time.Sleep(5 * time.Millisecond)

	if err := manager.UpdateLastAccessed("TOUCH"); err != nil {
		t.Fatalf("UpdateLastAccessed failed: %v", err)
	}
	if !session.LastAccessed().After(before) {
		t.Error("Expected last accessed time to move forward")
	}
	if err := manager.UpdateLastAccessed("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_CleanupExpiredSessions(t *testing.T) {
	manager, scheduler := newTestManager()
	config := createTestConfig()

	old, _ := manager.Create("old", "test", config, alice)
	manager.Create("fresh", "test", config, alice)

	old.Touch(time.Now().Add(-2 * time.Hour))
	old.Engine.Start()

	removed := manager.CleanupExpiredSessions(time.Hour)
	if removed != 1 {
		t.Errorf("Expected 1 removed session, got %d", removed)
	}
	if _, err := manager.Get("old"); err == nil {
		t.Error("Expected old session to be gone")
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Errorf("Expected fresh session to remain: %v", err)
	}
	if scheduler.Active() != 0 {
		t.Errorf("Expected the expired game to be stopped, got %d timers", scheduler.Active())
	}
}

func TestManager_SaveWithoutPersistence(t *testing.T) {
	manager, _ := newTestManager()
	if err := manager.Save("anything"); err != nil {
		t.Errorf("Expected Save to be a no-op without persistence, got %v", err)
	}
	if err := manager.SaveAllSessions(); err != nil {
		t.Errorf("Expected SaveAllSessions to be a no-op, got %v", err)
	}
}

func TestManager_ConcurrentCreate(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	ids := make([]string, 50)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session, err := manager.Create("", "test", config, alice)
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			ids[i] = session.ID
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("Duplicate session ID %s", id)
		}
		seen[id] = true
	}
	if manager.Count() != 50 {
		t.Errorf("Expected 50 sessions, got %d", manager.Count())
	}
}

func TestGenerateSessionID(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := generateSessionID()
		if len(id) != 4 || strings.Trim(id, "0123456789abcdef") != "" {
			t.Fatalf("Expected 4 hex characters, got %q", id)
		}
	}
}
