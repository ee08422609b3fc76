package cache

import (
	"testing"
	"time"
)

func baseMeta() Canonical {
	mtime := time.Date(2024, 5, 4, 10, 30, 15, 0, time.UTC)
	exif := Excerpt{
		DateTimeOriginal: sp("2024:05:04 10:30:15"),
		MakeModel:        sp("NIKON CORPORATION/NIKON Z 8"),
	}
	return Canonicalize(mtime, 24_117_248, exif)
}

func TestDecideNilRecord(t *testing.T) {
	for _, mode := range []Mode{Shallow, Strict} {
		if d := Decide(mode, baseMeta(), nil); d != Miss {
			t.Errorf("%s: nil record: got %s, want miss", mode, d)
		}
	}
}

func TestDecideMatrix(t *testing.T) {
	meta := baseMeta()
	now := time.Date(2024, 5, 4, 11, 0, 0, 0, time.UTC)

	changedExif := meta
	changedExif.Exif = Excerpt{
		DateTimeOriginal: sp("2024:05:04 10:30:15"),
		MakeModel:        sp("NIKON CORPORATION/NIKON Z 9"),
	}

	changedSize := meta
	changedSize.Size++

	changedMtime := meta
	changedMtime.Mtime = CanonicalTime(time.Date(2024, 5, 4, 10, 30, 16, 0, time.UTC))

	noExif := meta
	noExif.Exif = Excerpt{}

	cases := []struct {
		name      string
		mode      Mode
		candidate Canonical
		want      Decision
	}{
		{"identical shallow", Shallow, meta, Hit},
		{"identical strict", Strict, meta, Hit},
		{"size differs shallow", Shallow, changedSize, Miss},
		{"size differs strict", Strict, changedSize, Miss},
		{"mtime differs shallow", Shallow, changedMtime, Miss},
		{"mtime differs strict", Strict, changedMtime, Miss},
		{"exif differs shallow", Shallow, changedExif, Hit},
		{"exif differs strict", Strict, changedExif, Miss},
		{"exif absent shallow", Shallow, noExif, Hit},
		{"exif absent strict", Strict, noExif, Miss},
	}

	rec := NewRecord(meta, now)
	for _, tc := range cases {
		if got := Decide(tc.mode, tc.candidate, rec); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestDecideSurvivesEncodeCycle(t *testing.T) {
	meta := baseMeta()
	rec := NewRecord(meta, time.Now())

	data, err := rec.Encode()
	if err != nil {
		t.Fatal(err)
	}

	var back Record
	if err := back.Decode(data); err != nil {
		t.Fatal(err)
	}

	if d := Decide(Strict, meta, &back); d != Hit {
		t.Errorf("decoded record no longer matches its own metadata: %s", d)
	}
}

func TestModeString(t *testing.T) {
	if Shallow.String() != "shallow" || Strict.String() != "strict" {
		t.Errorf("got %q/%q", Shallow, Strict)
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"shallow", Shallow, false},
		{"strict", Strict, false},
		{"", Shallow, true},
		{"Strict", Shallow, true},
		{"paranoid", Shallow, true},
	}

	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseMode(%q): err = %v, wantErr = %v", tc.in, err, tc.wantErr)
			continue
		}
		if err == nil && got != tc.want {
			t.Errorf("ParseMode(%q): got %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestDecisionString(t *testing.T) {
	if Hit.String() != "hit" || Miss.String() != "miss" {
		t.Errorf("got %q/%q", Hit, Miss)
	}
}
