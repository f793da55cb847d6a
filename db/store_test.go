package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/onnwee/boot/db"
	"github.com/onnwee/boot/testutil"
)

// These tests require a running Postgres and TEST_PG_DSN; they are skipped otherwise.

func TestSeenRoundTrip(t *testing.T) {
	store := db.NewStore(testutil.SetupTestDB(t))
	ctx := context.Background()
	t.Cleanup(func() {
		_, _ = store.DB.ExecContext(context.Background(), `DELETE FROM seen WHERE username='SeenUser'`)
	})

	when := time.Now().UTC().Truncate(time.Millisecond)
	if err := store.UpsertSeen(ctx, db.SeenRecord{Username: "SeenUser", Message: "saying: hi", SeenAt: when}); err != nil {
		t.Fatalf("UpsertSeen: %v", err)
	}
	// Lookup is case-insensitive.
	rec, err := store.GetSeen(ctx, "seenuser")
	if err != nil {
		t.Fatalf("GetSeen: %v", err)
	}
	if rec == nil || rec.Username != "SeenUser" || rec.Message != "saying: hi" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// Second upsert replaces the row.
	if err := store.UpsertSeen(ctx, db.SeenRecord{Username: "SeenUser", Message: "saying: bye", SeenAt: when.Add(time.Minute)}); err != nil {
		t.Fatalf("UpsertSeen update: %v", err)
	}
	rec, _ = store.GetSeen(ctx, "SEENUSER")
	if rec == nil || rec.Message != "saying: bye" {
		t.Fatalf("expected updated record, got %+v", rec)
	}
}

func TestGetSeenMissing(t *testing.T) {
	store := db.NewStore(testutil.SetupTestDB(t))
	rec, err := store.GetSeen(context.Background(), "nobody-here")
	if err != nil {
		t.Fatalf("GetSeen: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestTakeNotificationsCap(t *testing.T) {
	store := db.NewStore(testutil.SetupTestDB(t))
	ctx := context.Background()
	t.Cleanup(func() {
		_, _ = store.DB.ExecContext(context.Background(), `DELETE FROM notifications WHERE recipient='bob_cap'`)
	})

	for _, msg := range []string{"one", "two", "three"} {
		if err := store.AddNotification(ctx, db.Notification{Recipient: "bob_cap", Via: "alice", Message: msg}); err != nil {
			t.Fatalf("AddNotification: %v", err)
		}
	}

	got, err := store.TakeNotifications(ctx, "BOB_CAP", 2)
	if err != nil {
		t.Fatalf("TakeNotifications: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].Message != "one" || got[1].Message != "two" {
		t.Fatalf("expected oldest-first delivery, got %+v", got)
	}

	// The third stays queued for next time.
	rest, err := store.TakeNotifications(ctx, "bob_cap", 2)
	if err != nil {
		t.Fatalf("TakeNotifications second call: %v", err)
	}
	if len(rest) != 1 || rest[0].Message != "three" {
		t.Fatalf("expected the remaining notification, got %+v", rest)
	}
}

func TestLocationCache(t *testing.T) {
	store := db.NewStore(testutil.SetupTestDB(t))
	ctx := context.Background()
	t.Cleanup(func() {
		_, _ = store.DB.ExecContext(context.Background(), `DELETE FROM locations WHERE loc='Berlin'`)
	})

	rec := db.LocationRecord{Lat: 52.52, Lon: 13.405, City: "Berlin", Country: "Germany"}
	if err := store.PutLocation(ctx, "Berlin", rec); err != nil {
		t.Fatalf("PutLocation: %v", err)
	}
	got, err := store.GetLocation(ctx, "berlin")
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if got == nil || got.Lat != rec.Lat || got.Country != "Germany" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// Cached entries are never updated.
	if err := store.PutLocation(ctx, "Berlin", db.LocationRecord{Lat: 0, Lon: 0, Country: "Nowhere"}); err != nil {
		t.Fatalf("PutLocation second: %v", err)
	}
	got, _ = store.GetLocation(ctx, "BERLIN")
	if got == nil || got.Country != "Germany" {
		t.Fatalf("expected original cache entry to stick, got %+v", got)
	}
}

func TestWeatherPrefUpsert(t *testing.T) {
	store := db.NewStore(testutil.SetupTestDB(t))
	ctx := context.Background()
	t.Cleanup(func() {
		_, _ = store.DB.ExecContext(context.Background(), `DELETE FROM weather_prefs WHERE username='wxuser'`)
	})

	if _, _, ok, err := store.GetWeatherPref(ctx, "wxuser"); err != nil || ok {
		t.Fatalf("expected no pref yet, ok=%v err=%v", ok, err)
	}
	if err := store.PutWeatherPref(ctx, "wxuser", 51.5, -0.12); err != nil {
		t.Fatalf("PutWeatherPref: %v", err)
	}
	if err := store.PutWeatherPref(ctx, "wxuser", 40.7, -74.0); err != nil {
		t.Fatalf("PutWeatherPref update: %v", err)
	}
	lat, lon, ok, err := store.GetWeatherPref(ctx, "WXUSER")
	if err != nil || !ok {
		t.Fatalf("GetWeatherPref: ok=%v err=%v", ok, err)
	}
	if lat != 40.7 || lon != -74.0 {
		t.Fatalf("expected updated coords, got %v,%v", lat, lon)
	}
}

func TestCoinSnapshotUpsert(t *testing.T) {
	store := db.NewStore(testutil.SetupTestDB(t))
	ctx := context.Background()
	t.Cleanup(func() {
		_, _ = store.DB.ExecContext(context.Background(), `DELETE FROM coin_snapshots WHERE symbol='TST'`)
	})

	asOf := time.Now().UTC().Truncate(time.Millisecond)
	snap := db.CoinSnapshot{Symbol: "TST", AsOf: asOf, GraphLine: "graph", StatsLine: "stats"}
	if err := store.PutCoinSnapshot(ctx, snap); err != nil {
		t.Fatalf("PutCoinSnapshot: %v", err)
	}
	snap.StatsLine = "stats2"
	if err := store.PutCoinSnapshot(ctx, snap); err != nil {
		t.Fatalf("PutCoinSnapshot update: %v", err)
	}
	got, err := store.GetCoinSnapshot(ctx, "TST")
	if err != nil {
		t.Fatalf("GetCoinSnapshot: %v", err)
	}
	if got == nil || got.StatsLine != "stats2" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}
