package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExportRoundTrip(t *testing.T) {
	texts := []string{
		"Greetings, world.",
		"  leading and trailing space  \n",
		"Línea uno\nライン二\n\n",
	}

	for _, text := range texts {
		b, err := Export(text)
		if err != nil {
			t.Fatalf("Export(%q) failed: %v", text, err)
		}
		if b.Name != "echoverse_script.txt" || b.MIMEType != "text/plain" {
			t.Errorf("Unexpected blob metadata %q %q", b.Name, b.MIMEType)
		}
		if string(b.Data) != text {
			t.Errorf("Data = %q, want %q", b.Data, text)
		}
		if b.Size() != uint64(len(text)) {
			t.Errorf("Size() = %d, want %d", b.Size(), len(text))
		}
	}
}

func TestExportEmpty(t *testing.T) {
	for _, text := range []string{"", " ", "\n\t"} {
		if _, err := Export(text); !errors.Is(err, ErrEmpty) {
			t.Errorf("Export(%q) error = %v, want ErrEmpty", text, err)
		}
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	b, err := Export("The end.\n")
	if err != nil {
		t.Fatal(err)
	}

	path, err := Save(dir, b)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if path != filepath.Join(dir, FileName) {
		t.Errorf("Unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "The end.\n" {
		t.Errorf("File contents = %q", data)
	}
}

func TestSaveNoName(t *testing.T) {
	if _, err := Save(t.TempDir(), Blob{Data: []byte("x")}); err == nil {
		t.Error("Expected error for unnamed blob")
	}
}
