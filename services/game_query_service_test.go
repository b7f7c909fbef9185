package services

import (
	"database/sql/driver"
	"regexp"
	"testing"
	"time"
)

func TestListByUser_PaginatesNewestFirst(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `games`"),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(41)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `games` .*ORDER BY created_at DESC"),
			columns: []string{"id", "user_id", "created_at", "perf_type", "result"},
			rows: [][]driver.Value{
				{"gm0002", int64(7), created, "blitz", "win"},
				{"gm0001", int64(7), created.Add(-time.Hour), "blitz", "loss"},
			},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewGameQueryService(db)
	games, total, err := svc.ListByUser(7, "", 2, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if total != 41 {
		t.Errorf("unexpected total: %d", total)
	}
	if len(games) != 2 {
		t.Fatalf("unexpected page size: %d", len(games))
	}
	if games[0].ID != "gm0002" || games[1].ID != "gm0001" {
		t.Errorf("unexpected ordering: %s, %s", games[0].ID, games[1].ID)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestListByUser_PerfTypeFilter(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `games` WHERE user_id = \\? AND perf_type = \\?"),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `games` WHERE user_id = \\? AND perf_type = \\?"),
			columns: []string{"id"},
			rows:    [][]driver.Value{},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewGameQueryService(db)
	games, total, err := svc.ListByUser(7, "bullet", 0, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 || len(games) != 0 {
		t.Errorf("unexpected result: total=%d games=%d", total, len(games))
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
