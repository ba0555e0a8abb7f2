package timestamp

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		want      time.Time
		wantNaive bool
		wantOK    bool
	}{
		{
			name:   "Z suffix",
			text:   "2021-01-15T15:30:00Z",
			want:   time.Date(2021, 1, 15, 15, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "explicit offset",
			text:   "2021-01-15T10:30:00-05:00",
			want:   time.Date(2021, 1, 15, 15, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "fractional seconds",
			text:   "2021-01-15T15:30:00.123456Z",
			want:   time.Date(2021, 1, 15, 15, 30, 0, 123456000, time.UTC),
			wantOK: true,
		},
		{
			name:   "surrounding whitespace",
			text:   "  2021-01-15T15:30:00Z\n",
			want:   time.Date(2021, 1, 15, 15, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:      "naive",
			text:      "2021-01-15T15:30:00",
			want:      time.Date(2021, 1, 15, 15, 30, 0, 0, time.UTC),
			wantNaive: true,
			wantOK:    true,
		},
		{
			name:      "space separator",
			text:      "2021-01-15 15:30:00",
			want:      time.Date(2021, 1, 15, 15, 30, 0, 0, time.UTC),
			wantNaive: true,
			wantOK:    true,
		},
		{
			name:   "unix seconds",
			text:   "1705315800",
			want:   time.Date(2024, 1, 15, 10, 50, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "rfc1123 numeric zone",
			text:   "Mon, 15 Jan 2024 10:30:00 +0100",
			want:   time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "garbage",
			text:   "invalid-date",
			wantOK: false,
		},
		{
			name:   "empty",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !got.Time.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.text, got.Time, tt.want)
			}
			if got.Naive != tt.wantNaive {
				t.Errorf("Parse(%q) Naive = %v, want %v", tt.text, got.Naive, tt.wantNaive)
			}
		})
	}
}

func TestParse_ZEqualsUTCOffset(t *testing.T) {
	z, ok := Parse("2021-01-15T15:30:00Z")
	if !ok {
		t.Fatal("Parse() failed for Z suffix")
	}
	off, ok := Parse("2021-01-15T15:30:00+00:00")
	if !ok {
		t.Fatal("Parse() failed for +00:00 suffix")
	}
	if !ToUTCNaive(z).Equal(ToUTCNaive(off)) {
		t.Errorf("Z = %v, +00:00 = %v; want equal", z.Time, off.Time)
	}
}

func TestDetect_ReportsFormat(t *testing.T) {
	_, name, ok := Detect("2021-01-15T15:30:00Z")
	if !ok || name != FormatISO8601 {
		t.Errorf("Detect() format = %q, ok = %v; want %q", name, ok, FormatISO8601)
	}

	_, name, ok = Detect("15/Jun/2024:10:30:00 +0000")
	if !ok || name != "Apache/NGINX CLF" {
		t.Errorf("Detect() format = %q, ok = %v; want Apache/NGINX CLF", name, ok)
	}
}

func TestDefaultFormats_ExamplesParse(t *testing.T) {
	for _, f := range DefaultFormats() {
		for _, ex := range f.Examples {
			if _, ok := parseLayout(ex, f.Layout); !ok {
				t.Errorf("format %q: example %q does not parse", f.Name, ex)
			}
		}
	}
}

func TestNormalizer_ToUTCNaive(t *testing.T) {
	naive := Instant{Time: time.Date(2021, 1, 15, 15, 30, 0, 0, time.UTC), Naive: true}

	got := DefaultNormalizer().ToUTCNaive(naive)
	if want := time.Date(2021, 1, 15, 15, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("assume UTC: got %v, want %v", got, want)
	}

	fixed := time.FixedZone("UTC+2", 2*60*60)
	n := Normalizer{AssumeUTCForNaive: false, NaiveLocation: fixed}
	got = n.ToUTCNaive(naive)
	if want := time.Date(2021, 1, 15, 13, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("naive location: got %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}

	aware := Instant{Time: time.Date(2021, 1, 15, 10, 30, 0, 0, time.FixedZone("EST", -5*60*60))}
	got = n.ToUTCNaive(aware)
	if want := time.Date(2021, 1, 15, 15, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("aware: got %v, want %v", got, want)
	}
}
