// Package tableimporter loads roll tables from JSON documents into the world
// store and compendium packs.
package tableimporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/louisbranch/rolltables/internal/services/tables/domain"
)

// Document is one import file. World tables go to the world store; each
// pack key names a compendium pack.
type Document struct {
	Tables []domain.Table            `json:"tables"`
	Packs  map[string][]domain.Table `json:"packs"`
}

// Writer stores imported tables.
type Writer interface {
	PutTable(ctx context.Context, table domain.Table) (domain.Table, error)
}

// Summary counts what an import wrote or would write.
type Summary struct {
	World    int
	Pack     int
	Warnings []string
}

// ReadPath reads a JSON document, or every *.json document of a directory in
// name order.
func ReadPath(path string) ([]Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		doc, err := readFile(path)
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no json documents found in %s", path)
	}

	docs := make([]Document, 0, len(names))
	for _, name := range names {
		doc, err := readFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func readFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// Decode parses one document, rejecting unknown fields.
func Decode(r io.Reader) (Document, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Flatten returns every table of docs with Pack set from its pack key, world
// tables first. A later document replaces an earlier table with the same
// reference.
func Flatten(docs []Document) []domain.Table {
	index := map[domain.Reference]int{}
	var out []domain.Table
	add := func(t domain.Table) {
		if i, ok := index[t.Ref()]; ok {
			out[i] = t
			return
		}
		index[t.Ref()] = len(out)
		out = append(out, t)
	}

	for _, doc := range docs {
		for _, t := range doc.Tables {
			t.Pack = ""
			add(t)
		}
	}
	for _, doc := range docs {
		packs := make([]string, 0, len(doc.Packs))
		for pack := range doc.Packs {
			packs = append(packs, pack)
		}
		sort.Strings(packs)
		for _, pack := range packs {
			for _, t := range doc.Packs[pack] {
				t.Pack = pack
				add(t)
			}
		}
	}
	return out
}

// Validate checks every table and reports references that point outside the
// imported set as warnings.
func Validate(tables []domain.Table) (Summary, error) {
	known := make(map[domain.Reference]struct{}, len(tables))
	var summary Summary
	var errs []error
	for _, t := range tables {
		if t.Kind == "" {
			t.Kind = domain.KindStandard
		}
		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("table %s: %w", t.Ref(), err))
			continue
		}
		known[t.Ref()] = struct{}{}
		if t.Pack == "" {
			summary.World++
		} else {
			summary.Pack++
		}
	}
	if len(errs) > 0 {
		return Summary{}, errors.Join(errs...)
	}

	for _, t := range tables {
		for _, e := range t.Entries {
			if !e.IsReference() {
				continue
			}
			if _, ok := known[*e.Reference]; !ok {
				summary.Warnings = append(summary.Warnings, fmt.Sprintf("table %s entry %s references %s, which is not in this import", t.Ref(), e.ID, e.Reference))
			}
		}
	}
	return summary, nil
}

// Import validates tables and writes them through w. Nothing is written when
// any table is invalid.
func Import(ctx context.Context, w Writer, tables []domain.Table) (Summary, error) {
	summary, err := Validate(tables)
	if err != nil {
		return Summary{}, err
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		if _, err := w.PutTable(ctx, t); err != nil {
			return Summary{}, fmt.Errorf("put table %s: %w", t.Ref(), err)
		}
	}
	return summary, nil
}
