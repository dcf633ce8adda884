package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/squadify/internal/collab"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatus(t *testing.T) {
	if got := Status(nil); got != "ok" {
		t.Errorf("Status(nil) = %q, want ok", got)
	}
	if got := Status(errors.New("boom")); got != "error" {
		t.Errorf("Status(err) = %q, want error", got)
	}
}

func TestObserveCollab(t *testing.T) {
	result := &collab.Result{
		Entries: []collab.Entry{
			{Track: collab.Track{Title: "Kids", Artists: []string{"MGMT"}}, Frequency: 3, Phase: collab.PhaseMinimumShare},
			{Track: collab.Track{Title: "Dear Maria", Artists: []string{"All Time Low"}}, Frequency: 2, Phase: collab.PhaseTierSweep},
			{Track: collab.Track{Title: "High Hopes", Artists: []string{"Panic! at the Disco"}}, Frequency: 2, Phase: collab.PhaseTierSweep},
		},
		Members: []collab.MemberShare{{Member: "a"}, {Member: "b"}, {Member: "c"}},
	}

	sweep := TracksPlacedTotal.WithLabelValues("tier_sweep")
	share := TracksPlacedTotal.WithLabelValues("minimum_share")
	beforeSweep, beforeShare := testutil.ToFloat64(sweep), testutil.ToFloat64(share)
	beforeFill := testutil.CollectAndCount(CollabFill)

	ObserveCollab(result, collab.Config{MaxCollabSize: 4})

	if got := testutil.ToFloat64(sweep) - beforeSweep; got != 2 {
		t.Errorf("expected 2 tier sweep tracks, got %v", got)
	}
	if got := testutil.ToFloat64(share) - beforeShare; got != 1 {
		t.Errorf("expected 1 minimum share track, got %v", got)
	}
	if testutil.CollectAndCount(CollabFill) != beforeFill {
		t.Error("expected the fill histogram to stay one series")
	}
}

func TestWriteTextfile(t *testing.T) {
	CompilesTotal.WithLabelValues("ok").Inc()

	path := filepath.Join(t.TempDir(), "squadify.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, `squadify_compiles_total{status="ok"}`) {
		t.Errorf("expected the compile counter, got:\n%s", text)
	}
	if strings.Contains(text, "go_goroutines") {
		t.Error("expected only squadify metrics, found Go runtime metrics")
	}

	if err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")); err == nil {
		t.Error("expected an error for an unwritable path")
	}
}
