package recipe

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

// draftDoc is the on-disk shape of an autosaved draft. A version tag lets
// future revisions skip stale files instead of misreading them.
type draftDoc struct {
	Version int  `cbor:"v"`
	Form    Form `cbor:"form"`
}

const draftVersion = 1

// SaveDraft writes the current draft to path as CBOR. The write goes through
// a temp file and rename so a crash never leaves a torn draft behind.
func (c *Controller) SaveDraft(path string) error {
	c.mu.Lock()
	doc := draftDoc{Version: draftVersion, Form: c.form.clone()}
	c.mu.Unlock()

	data, err := cbor.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create draft dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

// LoadDraft restores an autosaved draft from path. A missing file is not an
// error; the draft is left untouched and false is returned.
func (c *Controller) LoadDraft(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read draft: %w", err)
	}

	var doc draftDoc
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("decode draft: %w", err)
	}
	if doc.Version != draftVersion {
		return false, fmt.Errorf("decode draft: unsupported version %d", doc.Version)
	}

	form := doc.Form
	if len(form.Ingredients) == 0 {
		form.Ingredients = []Ingredient{{}}
	}
	if len(form.Instructions) == 0 {
		form.Instructions = []string{""}
	}

	c.mu.Lock()
	c.form = form
	c.errs.Reset()
	c.mu.Unlock()
	return true, nil
}

// DiscardDraft deletes the autosave file, ignoring a missing one.
func DiscardDraft(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
