package types

import (
	"errors"
	"testing"
	"time"
)

func TestKindForPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want Kind
	}{
		{name: "lowercase jpg", path: "/mnt/card/DCIM/IMG_0001.jpg", want: KindJPEG},
		{name: "uppercase JPG", path: "/mnt/card/DCIM/IMG_0001.JPG", want: KindJPEG},
		{name: "jpeg variant", path: "photo.jpeg", want: KindJPEG},
		{name: "mixed case Jpeg", path: "photo.Jpeg", want: KindJPEG},
		{name: "nikon raw", path: "DSC_0042.NEF", want: KindRAW},
		{name: "canon raw", path: "IMG_0042.CR2", want: KindRAW},
		{name: "sony raw", path: "DSC00042.ARW", want: KindRAW},
		{name: "dng", path: "L1000001.dng", want: KindRAW},
		{name: "fuji raw", path: "DSCF0001.RAF", want: KindRAW},
		{name: "sigma raw", path: "SDIM0001.x3f", want: KindRAW},
		{name: "video not handled", path: "MVI_0001.mp4", want: KindUnknown},
		{name: "sidecar not handled", path: "IMG_0001.xmp", want: KindUnknown},
		{name: "no extension", path: "README", want: KindUnknown},
		{name: "dotfile", path: ".hidden", want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindForPath(tt.path); got != tt.want {
				t.Errorf("KindForPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{name: "both empty", from: "", to: ""},
		{name: "from only", from: "2024-05-01", to: ""},
		{name: "to only", from: "", to: "2024-06-01"},
		{name: "both set", from: "2024-05-01", to: "2024-06-01"},
		{name: "single day", from: "2024-05-01", to: "2024-05-02"},
		{name: "equal bounds allowed", from: "2024-05-01", to: "2024-05-01"},
		{name: "reversed bounds", from: "2024-06-01", to: "2024-05-01", wantErr: ErrInvalidWindow},
		{name: "bad from", from: "05/01/2024", to: "", wantErr: ErrInvalidDate},
		{name: "bad to", from: "", to: "yesterday", wantErr: ErrInvalidDate},
		{name: "datetime rejected", from: "2024-05-01T10:00:00", to: "", wantErr: ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWindow(tt.from, tt.to)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ParseWindow(%q, %q) error = %v", tt.from, tt.to, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseWindow(%q, %q) error = %v, want %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	w, err := ParseWindow("2024-05-01", "2024-05-03")
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}

	at := func(s string) time.Time {
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return ts
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "before window", at: at("2024-04-30 23:59:59"), want: false},
		{name: "lower bound inclusive", at: at("2024-05-01 00:00:00"), want: true},
		{name: "inside", at: at("2024-05-02 12:30:00"), want: true},
		{name: "last second inside", at: at("2024-05-02 23:59:59"), want: true},
		{name: "upper bound exclusive", at: at("2024-05-03 00:00:00"), want: false},
		{name: "after window", at: at("2024-05-10 08:00:00"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.at); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestWindowUnbounded(t *testing.T) {
	var w DateWindow
	if !w.IsUnbounded() {
		t.Error("zero window should be unbounded")
	}
	if !w.Contains(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("unbounded window should contain any time")
	}
	if got := w.String(); got != "all dates" {
		t.Errorf("String() = %q, want %q", got, "all dates")
	}
}

func TestWindowString(t *testing.T) {
	w, err := ParseWindow("2024-05-01", "2024-06-01")
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}
	if got := w.String(); got != "[2024-05-01, 2024-06-01)" {
		t.Errorf("String() = %q", got)
	}

	half, err := ParseWindow("2024-05-01", "")
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}
	if got := half.String(); got != "[2024-05-01, end)" {
		t.Errorf("String() = %q", got)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{bytes: 0, want: "0 B"},
		{bytes: 1024, want: "1.0 KiB"},
		{bytes: 24 * 1024 * 1024, want: "24 MiB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
