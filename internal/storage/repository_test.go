// ABOUTME: Tests for Repository implementations.
// ABOUTME: Every case runs against both the SQLite and Badger backends.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/moody/internal/models"
)

const testOwner = "alice"

type backend struct {
	name string
	open func(t *testing.T) Repository
}

func backends() []backend {
	return []backend{
		{name: "sqlite", open: func(t *testing.T) Repository { return setupTestDB(t) }},
		{name: "badger", open: func(t *testing.T) Repository { return setupTestKV(t) }},
	}
}

// forEachBackend runs fn once per backend against a fresh seeded store.
func forEachBackend(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Helper()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repo := b.open(t)
			if err := SeedSystemMetrics(context.Background(), repo); err != nil {
				t.Fatalf("SeedSystemMetrics failed: %v", err)
			}
			fn(t, repo)
		})
	}
}

// setupTestDB creates a test database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "moody.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// setupTestKV creates a Badger store in a temp directory.
func setupTestKV(t *testing.T) *KV {
	t.Helper()

	kv, err := OpenKV(filepath.Join(t.TempDir(), "kv"))
	if err != nil {
		t.Fatalf("Failed to open badger store: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	return kv
}

func energyMetric(owner string) *models.Metric {
	return models.NewMetric("Energy", models.MetricContinuous).
		WithDescription("How energetic").
		WithRange(1, 10).
		WithOwner(owner)
}

func mustCreateMetric(t *testing.T, repo Repository, m *models.Metric) *models.Metric {
	t.Helper()
	if err := repo.CreateMetric(context.Background(), m); err != nil {
		t.Fatalf("CreateMetric(%s) failed: %v", m.Name, err)
	}
	return m
}

func mustGetMetric(t *testing.T, repo Repository, name string) *models.Metric {
	t.Helper()
	m, err := ResolveMetric(context.Background(), repo, testOwner, name)
	if err != nil {
		t.Fatalf("ResolveMetric(%s) failed: %v", name, err)
	}
	return m
}

func mustCreateEntry(t *testing.T, repo Repository, at time.Time, values map[*models.Metric]float64) *models.Entry {
	t.Helper()
	e := models.NewEntry(testOwner).WithRecordedAt(at)
	for m, v := range values {
		if err := e.AddValue(m, v); err != nil {
			t.Fatalf("AddValue failed: %v", err)
		}
	}
	if err := repo.CreateEntry(context.Background(), e); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	return e
}

func TestCreateAndGetMetric(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		m := mustCreateMetric(t, repo, energyMetric(testOwner))

		got, err := repo.GetMetric(ctx, testOwner, m.ID.String())
		if err != nil {
			t.Fatalf("GetMetric failed: %v", err)
		}
		if got.Name != "Energy" || got.Type != models.MetricContinuous {
			t.Errorf("got %s/%s, want Energy/continuous", got.Name, got.Type)
		}
		if got.MinValue == nil || *got.MinValue != 1 || got.MaxValue == nil || *got.MaxValue != 10 {
			t.Errorf("range mismatch: got %v..%v", got.MinValue, got.MaxValue)
		}
		if !got.CreatedAt.Equal(m.CreatedAt) {
			t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, m.CreatedAt)
		}

		byPrefix, err := repo.GetMetric(ctx, testOwner, m.ID.String()[:8])
		if err != nil {
			t.Fatalf("GetMetric by prefix failed: %v", err)
		}
		if byPrefix.ID != m.ID {
			t.Errorf("ID mismatch: got %v, want %v", byPrefix.ID, m.ID)
		}
	})
}

func TestDiscreteLabelsSurviveStorage(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		mood := mustGetMetric(t, repo, "mood")
		if len(mood.Labels) != 3 {
			t.Fatalf("expected 3 labels, got %v", mood.Labels)
		}
		if mood.Labels["Depressed"] != -1 || mood.Labels["Happy"] != 1 {
			t.Errorf("labels mismatch: %v", mood.Labels)
		}
		if !mood.IsSystem() {
			t.Errorf("seeded Mood should be a system metric, owner %q", mood.OwnerID)
		}
	})
}

func TestCreateMetricRejectsMalformedDomain(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		bad := models.NewMetric("Vibes", models.MetricDiscrete).WithOwner(testOwner)
		err := repo.CreateMetric(context.Background(), bad)
		if !errors.Is(err, models.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
	})
}

func TestListMetricsVisibility(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		mustCreateMetric(t, repo, energyMetric(testOwner))
		mustCreateMetric(t, repo, models.NewMetric("Anxiety", models.MetricContinuous).WithRange(0, 5).WithOwner("bob"))

		metrics, err := repo.ListMetrics(ctx, testOwner)
		if err != nil {
			t.Fatalf("ListMetrics failed: %v", err)
		}
		var names []string
		for _, m := range metrics {
			names = append(names, m.Name)
		}
		want := []string{"Energy", "Exercised", "Mood", "Sleep Duration"}
		if len(names) != len(want) {
			t.Fatalf("got %v, want %v", names, want)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("position %d: got %s, want %s", i, names[i], want[i])
			}
		}
	})
}

func TestSystemMetricsAreReadOnly(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		mood := mustGetMetric(t, repo, "Mood")

		mood.Description = "changed"
		if err := repo.UpdateMetric(ctx, testOwner, mood); !errors.Is(err, ErrReadOnly) {
			t.Errorf("UpdateMetric: expected ErrReadOnly, got %v", err)
		}
		if err := repo.DeleteMetric(ctx, testOwner, mood.ID.String()); !errors.Is(err, ErrReadOnly) {
			t.Errorf("DeleteMetric: expected ErrReadOnly, got %v", err)
		}
	})
}

func TestUpdateMetric(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		m := mustCreateMetric(t, repo, energyMetric(testOwner))

		m.Description = "Energy after lunch"
		m.WithRange(0, 5)
		if err := repo.UpdateMetric(ctx, testOwner, m); err != nil {
			t.Fatalf("UpdateMetric failed: %v", err)
		}

		got, err := repo.GetMetric(ctx, testOwner, m.ID.String())
		if err != nil {
			t.Fatalf("GetMetric failed: %v", err)
		}
		if got.Description != "Energy after lunch" || *got.MaxValue != 5 {
			t.Errorf("update not stored: %+v", got)
		}

		if err := repo.UpdateMetric(ctx, "bob", m); !errors.Is(err, ErrNotFound) {
			t.Errorf("other owner update: expected ErrNotFound, got %v", err)
		}
	})
}

func TestAmbiguousMetricPrefix(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		a := energyMetric(testOwner)
		a.ID = uuid.MustParse("abcdef01-0000-4000-8000-000000000001")
		b := models.NewMetric("Focus", models.MetricEvent).WithOwner(testOwner)
		b.ID = uuid.MustParse("abcdef01-0000-4000-8000-000000000002")
		mustCreateMetric(t, repo, a)
		mustCreateMetric(t, repo, b)

		_, err := repo.GetMetric(context.Background(), testOwner, "abcdef01")
		if !errors.Is(err, ErrAmbiguous) {
			t.Errorf("expected ErrAmbiguous, got %v", err)
		}

		got, err := repo.GetMetric(context.Background(), testOwner, "ABCDEF01-0000-4000-8000-000000000002")
		if err != nil {
			t.Fatalf("GetMetric with upper-case ID failed: %v", err)
		}
		if got.ID != b.ID {
			t.Errorf("got %v, want %v", got.ID, b.ID)
		}
	})
}

func TestGetMetricNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		other := mustCreateMetric(t, repo, energyMetric("bob"))

		for _, ref := range []string{"", "ffffffff", other.ID.String()} {
			if _, err := repo.GetMetric(ctx, testOwner, ref); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetMetric(%q): expected ErrNotFound, got %v", ref, err)
			}
		}
	})
}

func TestDeleteMetricCascades(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		energy := mustCreateMetric(t, repo, energyMetric(testOwner))
		mood := mustGetMetric(t, repo, "Mood")
		if err := repo.TrackMetric(ctx, models.NewMetricTracking(testOwner, energy, 5)); err != nil {
			t.Fatalf("TrackMetric failed: %v", err)
		}
		e := mustCreateEntry(t, repo, time.Now(), map[*models.Metric]float64{energy: 7, mood: 1})

		if err := repo.DeleteMetric(ctx, testOwner, energy.ID.String()[:8]); err != nil {
			t.Fatalf("DeleteMetric failed: %v", err)
		}

		tracked, err := repo.FetchTrackedMetrics(ctx, testOwner)
		if err != nil {
			t.Fatalf("FetchTrackedMetrics failed: %v", err)
		}
		if len(tracked) != 0 {
			t.Errorf("tracking should be removed with the metric, got %d rows", len(tracked))
		}

		got, err := repo.GetEntry(ctx, testOwner, e.ID.String())
		if err != nil {
			t.Fatalf("GetEntry failed: %v", err)
		}
		if len(got.Values) != 1 || got.Values[0].MetricID != mood.ID {
			t.Errorf("expected only the Mood value to remain, got %+v", got.Values)
		}
	})
}

func TestTrackingLifecycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		energy := mustCreateMetric(t, repo, energyMetric(testOwner))

		if err := repo.TrackMetric(ctx, models.NewMetricTracking(testOwner, energy, 5)); err != nil {
			t.Fatalf("TrackMetric failed: %v", err)
		}
		if err := repo.UpdateBaseline(ctx, testOwner, energy.ID, 8); err != nil {
			t.Fatalf("UpdateBaseline failed: %v", err)
		}

		tracked, err := repo.FetchTrackedMetrics(ctx, testOwner)
		if err != nil {
			t.Fatalf("FetchTrackedMetrics failed: %v", err)
		}
		if len(tracked) != 1 || tracked[0].Baseline != 8 || tracked[0].Metric.Name != "Energy" {
			t.Fatalf("unexpected tracking: %+v", tracked)
		}

		if err := repo.UntrackMetric(ctx, testOwner, energy.ID); err != nil {
			t.Fatalf("UntrackMetric failed: %v", err)
		}
		if err := repo.UntrackMetric(ctx, testOwner, energy.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("second UntrackMetric: expected ErrNotFound, got %v", err)
		}
		if err := repo.UpdateBaseline(ctx, testOwner, energy.ID, 3); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateBaseline on untracked: expected ErrNotFound, got %v", err)
		}
	})
}

func TestBaselineMustBeInDomain(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		mood := mustGetMetric(t, repo, "Mood")
		exercised := mustGetMetric(t, repo, "Exercised")

		cases := []struct {
			metric   *models.Metric
			baseline float64
		}{
			{mood, 0.5},
			{mood, 2},
			{exercised, 0.5},
		}
		for _, tc := range cases {
			err := repo.TrackMetric(ctx, models.NewMetricTracking(testOwner, tc.metric, tc.baseline))
			if !errors.Is(err, models.ErrOutOfDomain) {
				t.Errorf("TrackMetric(%s, %v): expected ErrOutOfDomain, got %v", tc.metric.Name, tc.baseline, err)
			}
		}
	})
}

func TestConfigureDefaultTracking(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()

		n, err := ConfigureDefaultTracking(ctx, repo, testOwner)
		if err != nil {
			t.Fatalf("ConfigureDefaultTracking failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 defaults tracked, got %d", n)
		}

		tracked, err := repo.FetchTrackedMetrics(ctx, testOwner)
		if err != nil {
			t.Fatalf("FetchTrackedMetrics failed: %v", err)
		}
		baselines := make(map[string]float64)
		for _, tr := range tracked {
			baselines[tr.Metric.Name] = tr.Baseline
		}
		if baselines["Mood"] != 0 || baselines["Sleep Duration"] != 8 || len(baselines) != 2 {
			t.Errorf("unexpected baselines: %v", baselines)
		}

		again, err := ConfigureDefaultTracking(ctx, repo, testOwner)
		if err != nil {
			t.Fatalf("second ConfigureDefaultTracking failed: %v", err)
		}
		if again != 0 {
			t.Errorf("owner with tracking should not be reconfigured, tracked %d", again)
		}
	})
}

func TestSeedSystemMetricsIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		if err := SeedSystemMetrics(ctx, repo); err != nil {
			t.Fatalf("second SeedSystemMetrics failed: %v", err)
		}
		metrics, err := repo.ListMetrics(ctx, models.SystemOwner)
		if err != nil {
			t.Fatalf("ListMetrics failed: %v", err)
		}
		if len(metrics) != 3 {
			t.Errorf("expected 3 system metrics, got %d", len(metrics))
		}
		defaults, err := repo.ListTrackingDefaults(ctx)
		if err != nil {
			t.Fatalf("ListTrackingDefaults failed: %v", err)
		}
		if len(defaults) != 2 {
			t.Errorf("expected 2 tracking defaults, got %d", len(defaults))
		}
	})
}

func TestEntryLifecycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		mood := mustGetMetric(t, repo, "Mood")
		sleep := mustGetMetric(t, repo, "Sleep Duration")

		e := models.NewEntry(testOwner).WithComment("slept well")
		if err := e.AddValue(mood, 1); err != nil {
			t.Fatalf("AddValue failed: %v", err)
		}
		if err := e.AddValue(sleep, 7.5); err != nil {
			t.Fatalf("AddValue failed: %v", err)
		}
		if err := repo.CreateEntry(ctx, e); err != nil {
			t.Fatalf("CreateEntry failed: %v", err)
		}

		got, err := repo.GetEntry(ctx, testOwner, e.ID.String()[:12])
		if err != nil {
			t.Fatalf("GetEntry by prefix failed: %v", err)
		}
		if got.ID != e.ID {
			t.Errorf("ID mismatch: got %v, want %v", got.ID, e.ID)
		}
		if got.Comment == nil || *got.Comment != "slept well" {
			t.Errorf("Comment mismatch: got %v", got.Comment)
		}
		if !got.RecordedAt.Equal(e.RecordedAt) {
			t.Errorf("RecordedAt mismatch: got %v, want %v", got.RecordedAt, e.RecordedAt)
		}
		if v, ok := got.Value(sleep.ID); !ok || v != 7.5 {
			t.Errorf("Sleep Duration value: got %v (%v), want 7.5", v, ok)
		}
		for _, v := range got.Values {
			if v.Metric == nil || v.Metric.ID != v.MetricID {
				t.Errorf("value %s should carry its metric", v.MetricID)
			}
		}

		lower, err := repo.GetEntry(ctx, testOwner, strings.ToLower(e.ID.String()))
		if err != nil {
			t.Fatalf("GetEntry with lower-case ID failed: %v", err)
		}
		if lower.ID != e.ID {
			t.Errorf("lower-case lookup returned %v", lower.ID)
		}

		if err := repo.DeleteEntry(ctx, testOwner, e.ID.String()); err != nil {
			t.Fatalf("DeleteEntry failed: %v", err)
		}
		if _, err := repo.GetEntry(ctx, testOwner, e.ID.String()); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.DeleteEntry(ctx, testOwner, e.ID.String()); !errors.Is(err, ErrNotFound) {
			t.Errorf("second DeleteEntry: expected ErrNotFound, got %v", err)
		}
	})
}

func TestEntryWithoutValues(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		e := mustCreateEntry(t, repo, time.Now(), nil)
		got, err := repo.GetEntry(context.Background(), testOwner, e.ID.String())
		if err != nil {
			t.Fatalf("GetEntry failed: %v", err)
		}
		if got.Values == nil || len(got.Values) != 0 {
			t.Errorf("expected empty non-nil values, got %#v", got.Values)
		}
	})
}

func TestCreateEntryRejectsOutOfDomainValue(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		sleep := mustGetMetric(t, repo, "Sleep Duration")

		e := models.NewEntry(testOwner)
		if err := e.AddValue(sleep, 30); err != nil {
			t.Fatalf("AddValue failed: %v", err)
		}
		if err := repo.CreateEntry(ctx, e); !errors.Is(err, models.ErrOutOfDomain) {
			t.Fatalf("expected ErrOutOfDomain, got %v", err)
		}
		if _, err := repo.GetEntry(ctx, testOwner, e.ID.String()); !errors.Is(err, ErrNotFound) {
			t.Errorf("rejected entry should not be stored, got %v", err)
		}
	})
}

func TestCreateEntryRollsBackOnValueFailure(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		mood := mustGetMetric(t, repo, "Mood")
		// Never persisted, so its value cannot be stored.
		ghost := energyMetric(testOwner)

		e := models.NewEntry(testOwner)
		if err := e.AddValue(mood, 1); err != nil {
			t.Fatalf("AddValue failed: %v", err)
		}
		if err := e.AddValue(ghost, 5); err != nil {
			t.Fatalf("AddValue failed: %v", err)
		}

		if err := repo.CreateEntry(ctx, e); err == nil {
			t.Fatal("expected CreateEntry to fail for an unknown metric")
		}

		if _, err := repo.GetEntry(ctx, testOwner, e.ID.String()); !errors.Is(err, ErrNotFound) {
			t.Errorf("entry should be rolled back, got %v", err)
		}
		entries, err := repo.ListEntries(ctx, testOwner, 0)
		if err != nil {
			t.Fatalf("ListEntries failed: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected no entries after rollback, got %d", len(entries))
		}
	})
}

func TestCreateEntryRejectsOtherOwnersMetric(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		bobs := mustCreateMetric(t, repo, energyMetric("bob"))

		e := models.NewEntry(testOwner)
		if err := e.AddValue(bobs, 5); err != nil {
			t.Fatalf("AddValue failed: %v", err)
		}
		if err := repo.CreateEntry(ctx, e); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for another owner's metric, got %v", err)
		}
		if _, err := repo.GetEntry(ctx, testOwner, e.ID.String()); !errors.Is(err, ErrNotFound) {
			t.Errorf("rejected entry should not be stored, got %v", err)
		}
	})
}

func TestFetchEntriesAcrossValueBatches(t *testing.T) {
	saved := valueBatchSize
	valueBatchSize = 2
	t.Cleanup(func() { valueBatchSize = saved })

	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		mood := mustGetMetric(t, repo, "Mood")
		sleep := mustGetMetric(t, repo, "Sleep Duration")
		base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

		for i := 0; i < 5; i++ {
			mustCreateEntry(t, repo, base.AddDate(0, 0, i), map[*models.Metric]float64{mood: 1, sleep: float64(i + 4)})
		}

		entries, err := repo.FetchEntries(ctx, testOwner, time.Time{}, time.Time{})
		if err != nil {
			t.Fatalf("FetchEntries failed: %v", err)
		}
		if len(entries) != 5 {
			t.Fatalf("expected 5 entries, got %d", len(entries))
		}
		for _, e := range entries {
			if len(e.Values) != 2 {
				t.Errorf("entry %s has %d values, want 2", e.ID, len(e.Values))
			}
			for _, v := range e.Values {
				if v.Metric == nil {
					t.Errorf("entry %s value %s has no metric attached", e.ID, v.MetricID)
				}
			}
		}
	})
}

func TestListEntriesNewestFirst(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		mood := mustGetMetric(t, repo, "Mood")
		base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

		var ids []string
		for i := 0; i < 3; i++ {
			e := mustCreateEntry(t, repo, base.Add(time.Duration(i)*time.Hour), map[*models.Metric]float64{mood: 0})
			ids = append(ids, e.ID.String())
		}

		entries, err := repo.ListEntries(ctx, testOwner, 2)
		if err != nil {
			t.Fatalf("ListEntries failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].ID.String() != ids[2] || entries[1].ID.String() != ids[1] {
			t.Errorf("entries not newest first: %v, %v", entries[0].ID, entries[1].ID)
		}
	})
}

func TestFetchEntriesHalfOpenRange(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		mood := mustGetMetric(t, repo, "Mood")
		start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, 2)

		mustCreateEntry(t, repo, start.Add(-time.Nanosecond), map[*models.Metric]float64{mood: -1})
		inside := mustCreateEntry(t, repo, start, map[*models.Metric]float64{mood: 0})
		mustCreateEntry(t, repo, end, map[*models.Metric]float64{mood: 1})

		entries, err := repo.FetchEntries(ctx, testOwner, start, end)
		if err != nil {
			t.Fatalf("FetchEntries failed: %v", err)
		}
		if len(entries) != 1 || entries[0].ID != inside.ID {
			t.Fatalf("expected only the entry at start, got %d entries", len(entries))
		}

		all, err := repo.FetchEntries(ctx, testOwner, time.Time{}, time.Time{})
		if err != nil {
			t.Fatalf("FetchEntries unbounded failed: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 entries unbounded, got %d", len(all))
		}

		since, err := repo.FetchEntries(ctx, testOwner, start, time.Time{})
		if err != nil {
			t.Fatalf("FetchEntries open end failed: %v", err)
		}
		if len(since) != 2 {
			t.Errorf("expected 2 entries from start, got %d", len(since))
		}
	})
}

func TestEntriesAreOwnerScoped(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		e := mustCreateEntry(t, repo, time.Now(), nil)

		if _, err := repo.GetEntry(ctx, "bob", e.ID.String()); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetEntry for other owner: expected ErrNotFound, got %v", err)
		}
		if err := repo.DeleteEntry(ctx, "bob", e.ID.String()); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteEntry for other owner: expected ErrNotFound, got %v", err)
		}
		entries, err := repo.ListEntries(ctx, "bob", 0)
		if err != nil {
			t.Fatalf("ListEntries failed: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("bob should see no entries, got %d", len(entries))
		}
	})
}

func TestResolveMetric(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		energy := mustCreateMetric(t, repo, energyMetric(testOwner))

		cases := []struct {
			ref  string
			want uuid.UUID
		}{
			{"energy", energy.ID},
			{"  SLEEP duration ", SystemMetricID("Sleep Duration")},
			{energy.ID.String()[:8], energy.ID},
		}
		for _, tc := range cases {
			got, err := ResolveMetric(ctx, repo, testOwner, tc.ref)
			if err != nil {
				t.Errorf("ResolveMetric(%q) failed: %v", tc.ref, err)
				continue
			}
			if got.ID != tc.want {
				t.Errorf("ResolveMetric(%q) = %v, want %v", tc.ref, got.ID, tc.want)
			}
		}

		if _, err := ResolveMetric(ctx, repo, testOwner, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestResolveMetricPrefersOwnMetric(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		own := mustCreateMetric(t, repo, models.NewMetric("Mood", models.MetricContinuous).WithRange(1, 5).WithOwner(testOwner))
		got, err := ResolveMetric(context.Background(), repo, testOwner, "mood")
		if err != nil {
			t.Fatalf("ResolveMetric failed: %v", err)
		}
		if got.ID != own.ID {
			t.Errorf("expected the owner's Mood, got %v", got.ID)
		}
	})
}

func TestSchemaVersion(t *testing.T) {
	db := setupTestDB(t)

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("got version %d, want %d", version, currentSchemaVersion)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moody.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := SeedSystemMetrics(context.Background(), db); err != nil {
		t.Fatalf("SeedSystemMetrics failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	metrics, err := db.ListMetrics(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("ListMetrics failed: %v", err)
	}
	if len(metrics) != 3 {
		t.Errorf("expected 3 metrics after reopen, got %d", len(metrics))
	}
}

func TestDBCloseNilDB(t *testing.T) {
	d := &DB{}
	if err := d.Close(); err != nil {
		t.Errorf("Close on nil db returned %v", err)
	}
	k := &KV{}
	if err := k.Close(); err != nil {
		t.Errorf("Close on nil kv returned %v", err)
	}
}
