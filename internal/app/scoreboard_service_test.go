package app_test

import (
	"context"
	"reflect"
	"testing"

	"gurukulx/internal/app"
	"gurukulx/internal/domain"
	"gurukulx/internal/infra/memory"
)

func newScoreboards(t *testing.T, active domain.User) (*app.ScoreboardService, *app.ProfileService, *memory.KV) {
	t.Helper()
	kv := memory.NewKV()
	identity := memory.NewIdentityStore(kv)
	identity.SetUser(active)
	profiles := memory.NewProfileStore(kv)
	boards := memory.NewScoreboardStore(kv)
	ledger := app.NewProfileService(profiles, identity, boards)
	return app.NewScoreboardService(boards, profiles, identity), ledger, kv
}

func TestUpsertDeduplicatesByName(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := newScoreboards(t, domain.User{Name: "Aditi", Role: domain.RoleStudent, Class: "6A"})

	ledger.ApplyGameResult("", domain.GameResult{ScoreDelta: 820})
	svc.SyncScoreboards(ctx, "")
	ledger.ApplyGameResult("", domain.GameResult{ScoreDelta: 80})
	svc.SyncScoreboards(ctx, "")

	entries := svc.Snapshot().Entries
	count := 0
	for _, e := range entries {
		if e.Name == "Aditi" {
			count++
			if e.Score != 900 {
				t.Fatalf("expected upserted score 900, got %d", e.Score)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one Aditi entry, got %d", count)
	}
	if entries[0].Name != "Aditi" {
		t.Fatalf("expected Aditi repositioned to the top, got %+v", entries[0])
	}
}

func TestUpsertLeaderboardIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, ledger, kv := newScoreboards(t, domain.User{Name: "Rahul", Role: domain.RoleStudent})

	ledger.ApplyGameResult("", domain.GameResult{ScoreDelta: 120})
	svc.SyncScoreboards(ctx, "")
	before, _ := kv.GetRaw("leaderboard")

	svc.SyncScoreboards(ctx, "")
	after, _ := kv.GetRaw("leaderboard")
	if before != after {
		t.Fatalf("expected identical persisted list after redundant sync:\n%s\n%s", before, after)
	}
}

func TestSortIsStableOnTies(t *testing.T) {
	ctx := context.Background()
	svc, _, kv := newScoreboards(t, domain.User{Name: "Meera", Role: domain.RoleStudent})

	kv.SetJSON("leaderboard", []domain.LeaderboardEntry{
		{Name: "First", Score: 100},
		{Name: "Second", Score: 100},
		{Name: "Third", Score: 90},
	})
	svc.UpsertLeaderboard(ctx, "")

	entries := svc.Snapshot().Entries
	want := []string{"First", "Second", "Third", "Meera"}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected tie order preserved %v, got %v", want, got)
	}
}

func TestPositionalRank(t *testing.T) {
	svc, _, kv := newScoreboards(t, domain.User{Name: "Meera"})

	kv.SetJSON("leaderboard", []domain.LeaderboardEntry{
		{Name: "First", Score: 100},
		{Name: "Second", Score: 100},
		{Name: "Third", Score: 90},
	})

	// ties share the first occurrence's rank: 1 + count strictly greater
	for _, tc := range []struct {
		name string
		rank int
	}{
		{"First", 1}, {"Second", 1}, {"Third", 3},
	} {
		rank, ok := svc.RankOf(tc.name)
		if !ok || rank != tc.rank {
			t.Fatalf("rank of %s = %d (ok=%v), want %d", tc.name, rank, ok, tc.rank)
		}
	}
	if _, ok := svc.RankOf("Nobody"); ok {
		t.Fatalf("expected no rank for an absent name")
	}
}

func TestRosterPropagatesClass(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := newScoreboards(t, domain.User{Name: "Aditi", Role: domain.RoleStudent, Class: "6A"})

	ledger.ApplyGameResult("", domain.GameResult{ScoreDelta: 40})
	svc.SyncScoreboards(ctx, "")

	roster := svc.Roster()
	if len(roster) != 1 || roster[0].Class != "6A" || roster[0].Score != 40 {
		t.Fatalf("unexpected roster %+v", roster)
	}
}

func TestClassStats(t *testing.T) {
	svc, _, kv := newScoreboards(t, domain.User{Name: "T", Role: domain.RoleTeacher})

	kv.SetJSON("students", []domain.RosterEntry{
		{Name: "A", Score: 100, Class: "6A"},
		{Name: "B", Score: 200, Class: "6A"},
		{Name: "C", Score: 50, Class: "6B"},
	})

	stats := svc.ClassStats()
	if len(stats) != 2 {
		t.Fatalf("expected 2 classes, got %+v", stats)
	}
	if stats[0].Class != "6A" || stats[0].Average != 150 || stats[0].Top != 200 || stats[0].Students != 2 {
		t.Fatalf("unexpected 6A stats %+v", stats[0])
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := newScoreboards(t, domain.User{Name: "Aditi", Role: domain.RoleStudent})

	ch, cancel := svc.Subscribe()
	defer cancel()
	<-ch // initial snapshot

	ledger.ApplyGameResult("", domain.GameResult{ScoreDelta: 60})
	svc.UpsertLeaderboard(ctx, "")

	update := <-ch
	if len(update.Entries) != 1 || update.Entries[0].Score != 60 {
		t.Fatalf("expected pushed update with score 60, got %+v", update.Entries)
	}
}
