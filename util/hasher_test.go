package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetHash(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty input",
			input: "",
			want:  "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:  "hello world",
			input: "hello world",
			want:  "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
		{
			name:  "newline at end",
			input: "hello\n",
			want:  "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetHash(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("GetHash() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetHash() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetFileRawCid(t *testing.T) {
	tmpDir := t.TempDir()

	helloFile := filepath.Join(tmpDir, "hello.txt")
	os.WriteFile(helloFile, []byte("hello"), 0644)

	emptyFile := filepath.Join(tmpDir, "empty.txt")
	os.WriteFile(emptyFile, []byte{}, 0644)

	subDir := filepath.Join(tmpDir, "subdir")
	os.Mkdir(subDir, 0755)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{
			name: "hello",
			path: helloFile,
			want: "bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq",
		},
		{
			name: "empty file",
			path: emptyFile,
			want: "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku",
		},
		{
			name:    "directory returns error",
			path:    subDir,
			wantErr: true,
		},
		{
			name:    "non-existent file",
			path:    filepath.Join(tmpDir, "nonexistent.txt"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetFileRawCid(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Errorf("GetFileRawCid(%q) expected error, got nil", tt.path)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetFileRawCid(%q) unexpected error = %v", tt.path, err)
			}
			if got.String() != tt.want {
				t.Errorf("GetFileRawCid(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}
