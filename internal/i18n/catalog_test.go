package i18n

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

// catalog maps a message ID to its plural forms ("one", "other").
type catalog map[string]map[string]string

func loadCatalog(t *testing.T, name string) catalog {
	t.Helper()
	data, err := localeFS.ReadFile("locales/" + name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	var tree map[string]any
	if _, err := toml.Decode(string(data), &tree); err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	c := catalog{}
	flatten(t, name, "", tree, c)
	return c
}

// flatten walks nested tables. A table with an "other" key is a message and
// must not hold further tables, or go-i18n cannot tell the two apart.
func flatten(t *testing.T, file, prefix string, tree map[string]any, out catalog) {
	for k, v := range tree {
		sub, ok := v.(map[string]any)
		if !ok {
			t.Errorf("%s: %s%s is a bare value outside a message", file, prefix, k)
			continue
		}
		id := prefix + k
		if _, isMsg := sub["other"]; !isMsg {
			flatten(t, file, id+".", sub, out)
			continue
		}
		forms := map[string]string{}
		for form, text := range sub {
			s, ok := text.(string)
			if !ok {
				t.Errorf("%s: %s nests a table under a message", file, id)
				continue
			}
			forms[form] = s
		}
		out[id] = forms
	}
}

func localeFiles(t *testing.T) []string {
	t.Helper()
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".toml") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestCatalogs_SameMessageIDs(t *testing.T) {
	en := loadCatalog(t, "en.toml")
	if len(en) == 0 {
		t.Fatal("en.toml has no messages")
	}
	for _, name := range localeFiles(t) {
		if name == "en.toml" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			c := loadCatalog(t, name)
			for id := range en {
				if _, ok := c[id]; !ok {
					t.Errorf("missing %s", id)
				}
			}
			for id := range c {
				if _, ok := en[id]; !ok {
					t.Errorf("%s is not an English message", id)
				}
			}
		})
	}
}

// placeholderPattern matches printf verbs and template fields.
var placeholderPattern = regexp.MustCompile(`%[-+# 0]*[0-9]*(?:\.[0-9]+)?[a-zA-Z]|\{\{\s*\.\w+\s*\}\}`)

func placeholders(s string) []string {
	p := placeholderPattern.FindAllString(s, -1)
	for i := range p {
		p[i] = strings.ReplaceAll(p[i], " ", "")
	}
	slices.Sort(p)
	return p
}

func TestCatalogs_KeepPlaceholders(t *testing.T) {
	en := loadCatalog(t, "en.toml")
	for _, name := range localeFiles(t) {
		t.Run(name, func(t *testing.T) {
			c := loadCatalog(t, name)
			for id, forms := range c {
				ref, ok := en[id]
				if !ok {
					continue
				}
				want := placeholders(ref["other"])
				for form, text := range forms {
					if got := placeholders(text); !slices.Equal(got, want) {
						t.Errorf("%s [%s] = %q has placeholders %v, English has %v", id, form, text, got, want)
					}
				}
			}
		})
	}
}

// callPattern matches i18n.T, Tf and Tn calls with a literal ID and default.
var callPattern = regexp.MustCompile(
	`i18n\.(Tn?f?)\(\s*"([a-zA-Z][a-zA-Z0-9]*(?:\.[a-zA-Z][a-zA-Z0-9]*)+)",\s*("(?:[^"\\]|\\.)*")`)

type sourceCall struct {
	fn, id, def, file string
}

func sourceCalls(t *testing.T) []sourceCall {
	t.Helper()
	root := filepath.Join("..", "..")
	var calls []sourceCall
	for _, dir := range []string{"internal", "cmd"} {
		err := filepath.WalkDir(filepath.Join(root, dir), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			for _, m := range callPattern.FindAllStringSubmatch(string(data), -1) {
				def, err := strconv.Unquote(m[3])
				if err != nil {
					t.Errorf("%s: default of %s: %v", path, m[2], err)
					continue
				}
				calls = append(calls, sourceCall{fn: m[1], id: m[2], def: def, file: path})
			}
			return nil
		})
		if err != nil {
			t.Fatalf("walk %s: %v", dir, err)
		}
	}
	return calls
}

// TestCatalogs_MatchSource checks that every ID the code asks for is in the
// English catalog, and that the inline default is the English text, so a
// missing locale reads the same as English.
func TestCatalogs_MatchSource(t *testing.T) {
	en := loadCatalog(t, "en.toml")
	calls := sourceCalls(t)
	if len(calls) == 0 {
		t.Fatal("no i18n calls found in source")
	}
	for _, c := range calls {
		forms, ok := en[c.id]
		if !ok {
			t.Errorf("%s: %s is not in en.toml", c.file, c.id)
			continue
		}
		form := "other"
		if c.fn == "Tn" {
			form = "one"
		}
		if forms[form] != c.def {
			t.Errorf("%s: %s default %q, en.toml %s = %q", c.file, c.id, c.def, form, forms[form])
		}
	}
}
