package langsync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"common.json",
		"pages/home.json",
		"pages/legacy/old.json",
		"notes.txt",
		"emails/welcome.json",
	} {
		writeFile(t, filepath.Join(dir, filepath.FromSlash(name)), "{}")
	}

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{
			name:    "all json",
			include: []string{"**/*.json"},
			want:    []string{"common.json", "emails/welcome.json", "pages/home.json", "pages/legacy/old.json"},
		},
		{
			name:    "exclude subtree",
			include: []string{"**/*.json"},
			exclude: []string{"pages/legacy/**"},
			want:    []string{"common.json", "emails/welcome.json", "pages/home.json"},
		},
		{
			name:    "top level only",
			include: []string{"*.json"},
			want:    []string{"common.json"},
		},
		{
			name:    "several includes",
			include: []string{"pages/*.json", "emails/**"},
			want:    []string{"emails/welcome.json", "pages/home.json"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ListFiles(dir, tc.include, tc.exclude)
			if err != nil {
				t.Fatalf("ListFiles: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("ListFiles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListFilesErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ListFiles(dir, []string{"[unclosed"}, nil); err == nil {
		t.Fatal("want error for an invalid pattern")
	}
	if _, err := ListFiles(filepath.Join(dir, "missing"), []string{"**"}, nil); !os.IsNotExist(err) {
		t.Fatalf("err = %v, want not exist", err)
	}
}
