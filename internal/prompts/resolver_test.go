package prompts

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	got := ExtractVariables("Hello {{.Name}}, {{ .Count }} items in {{.Book.Title}} ({{.Name}})")
	want := []string{"Book.Title", "Count", "Name"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractVariables() = %v, want %v", got, want)
	}
}

func TestRender(t *testing.T) {
	got, err := Render("k", "{{.A}}-{{.B}}", struct{ A, B string }{"x", "y"})
	if err != nil || got != "x-y" {
		t.Errorf("Render() = %q, %v", got, err)
	}
	if got, _ := Render("k", "no actions", nil); got != "no actions" {
		t.Errorf("Render() plain = %q", got)
	}
	if _, err := Render("k", "{{.Missing}}", map[string]string{}); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestResolver(t *testing.T) {
	root := t.TempDir()
	store := NewStore(func(book string) string { return filepath.Join(root, book+"_dir") }, nil)
	r := NewResolver(store, nil)
	r.Register(EmbeddedPrompt{Key: "segment.system", Text: "default {{.Name}}"})

	t.Run("embedded default", func(t *testing.T) {
		got, err := r.Resolve("segment.system", "algebra")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if got.IsOverride || got.Text != "default {{.Name}}" || got.Hash != HashText(got.Text) {
			t.Errorf("Resolve() = %+v", got)
		}
		if !reflect.DeepEqual(got.Variables, []string{"Name"}) {
			t.Errorf("Variables = %v", got.Variables)
		}
	})

	t.Run("book override", func(t *testing.T) {
		if err := store.SetBookOverride("algebra", "segment.system", "custom {{.Name}}"); err != nil {
			t.Fatalf("SetBookOverride() error = %v", err)
		}
		text, resolved, err := r.RenderFor("segment.system", "algebra", map[string]string{"Name": "ch1"})
		if err != nil {
			t.Fatalf("RenderFor() error = %v", err)
		}
		if !resolved.IsOverride || text != "custom ch1" {
			t.Errorf("RenderFor() = %q, %+v", text, resolved)
		}

		other, _ := r.Resolve("segment.system", "geometry")
		if other.IsOverride {
			t.Error("override leaked to another book")
		}

		list, err := store.ListBookOverrides("algebra")
		if err != nil || len(list) != 1 || list[0].PromptKey != "segment.system" {
			t.Errorf("ListBookOverrides() = %+v, %v", list, err)
		}

		if err := store.ClearBookOverride("algebra", "segment.system"); err != nil {
			t.Fatal(err)
		}
		got, _ := r.Resolve("segment.system", "algebra")
		if got.IsOverride {
			t.Error("override should be cleared")
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		if _, err := r.Resolve("nope", ""); err == nil {
			t.Error("expected error for unknown key")
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		if err := store.SetBookOverride("algebra", "../escape", "x"); err == nil {
			t.Error("expected error for invalid key")
		}
	})
}
