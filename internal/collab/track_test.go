package collab

import (
	"errors"
	"testing"

	"github.com/desertthunder/squadify/internal/shared"
)

func tr(title string, artists ...string) Track {
	return Track{ID: "id-" + title, Title: title, Artists: artists}
}

func TestTrackKey(t *testing.T) {
	tt := []struct {
		name string
		a, b Track
		same bool
	}{
		{
			name: "artist order is irrelevant",
			a:    tr("Kids", "MGMT", "Andrew"),
			b:    tr("Kids", "Andrew", "MGMT"),
			same: true,
		},
		{
			name: "repeated artist names collapse",
			a:    tr("Kids", "MGMT", "MGMT"),
			b:    tr("Kids", "MGMT"),
			same: true,
		},
		{
			name: "external id is not identity",
			a:    Track{ID: "spotify:1", Title: "Kids", Artists: []string{"MGMT"}},
			b:    Track{ID: "spotify:2", Title: "Kids", Artists: []string{"MGMT"}},
			same: true,
		},
		{
			name: "different title",
			a:    tr("Kids", "MGMT"),
			b:    tr("Kids (Live)", "MGMT"),
		},
		{
			name: "different artist set",
			a:    tr("Kids", "MGMT"),
			b:    tr("Kids", "MGMT", "Guest"),
		},
		{
			name: "separator cannot be forged through the title",
			a:    tr("A", "B C"),
			b:    tr("A\x00B", "C"),
		},
		{
			name: "title bytes cannot move into an artist",
			a:    tr("a\x00b", "c"),
			b:    tr("a", "b\x00c"),
		},
		{
			name: "one artist cannot pose as two",
			a:    tr("t", "x\x1fy"),
			b:    tr("t", "x", "y"),
		},
		{
			name: "quotes inside names",
			a:    tr(`a"`, `"b`),
			b:    tr("a", `""b`),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Same(tc.b); got != tc.same {
				t.Errorf("Same() = %v, want %v (keys %q vs %q)", got, tc.same, tc.a.Key(), tc.b.Key())
			}
		})
	}

	t.Run("Key does not reorder the caller's artists", func(t *testing.T) {
		track := tr("Kids", "b", "a")
		_ = track.Key()
		if track.Artists[0] != "b" {
			t.Errorf("expected artists untouched, got %v", track.Artists)
		}
	})
}

func TestTrackString(t *testing.T) {
	if got := tr("Dear Maria", "All Time Low").String(); got != "Dear Maria - All Time Low" {
		t.Errorf("String() = %q", got)
	}
}

func TestTrackValidate(t *testing.T) {
	tt := []struct {
		name    string
		track   Track
		wantErr bool
	}{
		{name: "valid", track: tr("Fever Dream", "Palaye Royale")},
		{name: "valid without id", track: Track{Title: "Fever Dream", Artists: []string{"x"}}},
		{name: "blank title", track: tr("  ", "x"), wantErr: true},
		{name: "no artists", track: tr("Fever Dream"), wantErr: true},
		{name: "blank artist", track: tr("Fever Dream", "x", " "), wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.track.validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidTrack) {
					t.Errorf("expected ErrInvalidTrack, got %v", err)
				}
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected error to wrap shared.ErrInvalidInput, got %v", err)
				}
			}
		})
	}
}
