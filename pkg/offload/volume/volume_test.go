package volume

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestInfoRel(t *testing.T) {
	sep := string(os.PathSeparator)
	join := func(parts ...string) string { return strings.Join(parts, sep) }

	tests := []struct {
		name    string
		mount   string
		abs     string
		want    string
		wantErr bool
	}{
		{
			name:  "file under mount",
			mount: join("", "media", "card"),
			abs:   join("", "media", "card", "DCIM", "IMG_0001.JPG"),
			want:  join("DCIM", "IMG_0001.JPG"),
		},
		{
			name:  "mount with trailing separator",
			mount: join("", "media", "card") + sep,
			abs:   join("", "media", "card", "IMG_0001.JPG"),
			want:  "IMG_0001.JPG",
		},
		{
			name:  "root mount",
			mount: sep,
			abs:   join("", "photos", "IMG_0001.JPG"),
			want:  join("photos", "IMG_0001.JPG"),
		},
		{
			name:    "outside mount",
			mount:   join("", "media", "card"),
			abs:     join("", "media", "other", "IMG_0001.JPG"),
			wantErr: true,
		},
		{
			name:    "sibling with common prefix",
			mount:   join("", "media", "card"),
			abs:     join("", "media", "card2", "IMG_0001.JPG"),
			wantErr: true,
		},
		{
			name:    "mount point itself",
			mount:   join("", "media", "card"),
			abs:     join("", "media", "card"),
			wantErr: true,
		},
		{
			name:    "empty mount point",
			mount:   "",
			abs:     join("", "photos", "IMG_0001.JPG"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Info{ID: "TEST", MountPoint: tt.mount}
			got, err := in.Rel(tt.abs)
			if tt.wantErr {
				if !errors.Is(err, ErrNotUnderMount) {
					t.Fatalf("Rel(%q) error = %v, want ErrNotUnderMount", tt.abs, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Rel(%q): %v", tt.abs, err)
			}
			if got != tt.want {
				t.Errorf("Rel(%q) = %q, want %q", tt.abs, got, tt.want)
			}
		})
	}
}

func TestRelPreservesBytes(t *testing.T) {
	// Case inside the relative part must pass through untouched; the
	// cache key depends on exact bytes.
	sep := string(os.PathSeparator)
	mount := strings.Join([]string{"", "media", "card"}, sep)
	in := Info{ID: "TEST", MountPoint: mount}

	rel, err := in.Rel(strings.Join([]string{mount, "Dcim", "Img_0001.Jpg"}, sep))
	if err != nil {
		t.Fatalf("Rel: %v", err)
	}
	if rel != "Dcim"+sep+"Img_0001.Jpg" {
		t.Errorf("rel = %q, case was not preserved", rel)
	}
}

func TestLookupError(t *testing.T) {
	cause := errors.New("no mount entry")
	err := error(&LookupError{Path: "/media/card/IMG.JPG", Err: cause})

	if !strings.Contains(err.Error(), "/media/card/IMG.JPG") {
		t.Errorf("message %q does not name the path", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}

	var le *LookupError
	if !errors.As(err, &le) {
		t.Fatal("errors.As failed for *LookupError")
	}
	if le.Path != "/media/card/IMG.JPG" {
		t.Errorf("Path = %q", le.Path)
	}
}

func TestFixedResolver(t *testing.T) {
	info := Info{ID: "ABCD-1234", MountPoint: "/media/card"}
	r := Fixed(info)

	got, err := r.Resolve("/media/card/DCIM/IMG_0001.JPG")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != info {
		t.Errorf("Resolve = %+v, want %+v", got, info)
	}

	// Pinned resolvers do not look at the path at all.
	again, err := r.Resolve("unrelated")
	if err != nil || again != info {
		t.Errorf("Resolve(unrelated) = %+v, %v", again, err)
	}
}

// TestSystemResolverSmoke exercises the real platform backend against the
// temp directory. Identity sources are not present in every environment
// (containers often have no /dev/disk/by-uuid), so an unavailable backend
// skips rather than fails.
func TestSystemResolverSmoke(t *testing.T) {
	dir := t.TempDir()

	info, err := SystemResolver{}.Resolve(dir)
	if err != nil {
		var le *LookupError
		if !errors.As(err, &le) {
			t.Fatalf("error is %T, want *LookupError", err)
		}
		t.Skipf("volume identity unavailable on %s: %v", runtime.GOOS, err)
	}

	if info.ID == "" {
		t.Error("resolved an empty volume ID")
	}
	if info.MountPoint == "" {
		t.Error("resolved an empty mount point")
	}

	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	if !strings.HasPrefix(canonical, strings.TrimRight(info.MountPoint, string(os.PathSeparator))) {
		t.Errorf("mount point %q does not cover %q", info.MountPoint, canonical)
	}
}
