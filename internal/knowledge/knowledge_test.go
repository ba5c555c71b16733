package knowledge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookupBuiltin(t *testing.T) {
	d := NewDirectory()

	tests := []struct {
		provider        string
		wantDays        int
		wantReliability string
		wantContact     string
	}{
		{"Aviva", 15, ReliabilityMedium, "phone"},
		{"Legal & General", 12, ReliabilityHigh, "email"},
		{"Prudential", 20, ReliabilityLow, "phone"},
		{"Royal London", 13, ReliabilityHigh, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p := d.Lookup(tt.provider)
			if p.AvgResponseDays != tt.wantDays {
				t.Errorf("AvgResponseDays = %d, want %d", p.AvgResponseDays, tt.wantDays)
			}
			if p.Reliability != tt.wantReliability {
				t.Errorf("Reliability = %q, want %q", p.Reliability, tt.wantReliability)
			}
			if p.BestContactMethod != tt.wantContact {
				t.Errorf("BestContactMethod = %q, want %q", p.BestContactMethod, tt.wantContact)
			}
		})
	}
}

func TestLookupUnknownFallsBack(t *testing.T) {
	d := NewDirectory()
	p := d.Lookup("Obscure Pensions Ltd")
	if p.AvgResponseDays != DefaultAvgResponseDays {
		t.Errorf("AvgResponseDays = %d, want %d", p.AvgResponseDays, DefaultAvgResponseDays)
	}
	if p.Reliability != ReliabilityMedium {
		t.Errorf("Reliability = %q, want %q", p.Reliability, ReliabilityMedium)
	}
	if len(p.PeakDelayMonths) == 0 {
		t.Error("PeakDelayMonths should be populated for fallback profile")
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	doc := `providers:
  Aviva:
    avg_response_days: 25
  Nucleus:
    avg_response_days: 10
    reliability: high
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write overlay file: %v", err)
	}

	d := NewDirectory()
	if err := d.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	aviva := d.Lookup("Aviva")
	if aviva.AvgResponseDays != 25 {
		t.Errorf("Aviva AvgResponseDays = %d, want 25", aviva.AvgResponseDays)
	}
	if aviva.Reliability != ReliabilityLow {
		t.Errorf("Aviva Reliability = %q, want %q (derived from 25 days)", aviva.Reliability, ReliabilityLow)
	}

	nucleus := d.Lookup("Nucleus")
	if nucleus.AvgResponseDays != 10 || nucleus.Reliability != ReliabilityHigh {
		t.Errorf("Nucleus profile = %+v, want 10 days / high reliability", nucleus)
	}
}

func TestLoadFileMissing(t *testing.T) {
	d := NewDirectory()
	if err := d.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile() on a missing file should return an error")
	}
}
