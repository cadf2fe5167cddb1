package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	origVersion := Version
	origCommit := Commit
	defer func() {
		Version = origVersion
		Commit = origCommit
	}()

	tests := []struct {
		name        string
		version     string
		commit      string
		wantContain string
		wantExact   string
	}{
		{
			name:      "unknown commit omitted",
			version:   "0.3.0",
			commit:    "unknown",
			wantExact: "0.3.0",
		},
		{
			name:      "short commit omitted",
			version:   "0.3.0",
			commit:    "ab12",
			wantExact: "0.3.0",
		},
		{
			name:        "long commit shortened to 7",
			version:     "0.3.0",
			commit:      "deadbeefcafe",
			wantContain: "deadbee",
		},
		{
			name:      "exactly 7 char commit omitted",
			version:   "1.0.0",
			commit:    "1234567",
			wantExact: "1.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version = tt.version
			Commit = tt.commit

			got := Info()

			if tt.wantExact != "" && got != tt.wantExact {
				t.Errorf("Info() = %q, want %q", got, tt.wantExact)
			}
			if tt.wantContain != "" && !strings.Contains(got, tt.wantContain) {
				t.Errorf("Info() = %q, want to contain %q", got, tt.wantContain)
			}
		})
	}
}

func TestFull(t *testing.T) {
	origVersion := Version
	origCommit := Commit
	origBuildDate := BuildDate
	defer func() {
		Version = origVersion
		Commit = origCommit
		BuildDate = origBuildDate
	}()

	Version = "0.3.1"
	Commit = "deadbeefcafe"
	BuildDate = "2026-02-10"

	got := Full()

	for _, part := range []string{
		"kontext version 0.3.1",
		"Commit: deadbeefcafe",
		"Built: 2026-02-10",
	} {
		if !strings.Contains(got, part) {
			t.Errorf("Full() = %q, want to contain %q", got, part)
		}
	}
}

func TestDefaultVersionIsSemver(t *testing.T) {
	if Version == "" {
		t.Fatal("Version should not be empty")
	}
	if parts := strings.Split(Version, "."); len(parts) < 2 {
		t.Errorf("Version %q doesn't appear to be semver", Version)
	}
}
