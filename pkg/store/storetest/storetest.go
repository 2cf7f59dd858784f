// Package storetest checks a store.Backend against the behavior every
// backend shares.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"posterminal/pkg/store"
)

// Run exercises b. It expects an empty backend.
func Run(t *testing.T, b store.Backend) {
	t.Helper()
	ctx := context.Background()

	for _, ns := range store.Namespaces {
		id1, err := b.Add(ctx, ns, []byte(`{"name":"first"}`))
		if err != nil {
			t.Fatalf("%s add: %v", ns, err)
		}
		id2, err := b.Add(ctx, ns, []byte(`{"name":"second"}`))
		if err != nil {
			t.Fatalf("%s add: %v", ns, err)
		}
		if id1 == id2 || id1 <= 0 || id2 <= 0 {
			t.Fatalf("%s: expected distinct positive ids, got %d and %d", ns, id1, id2)
		}

		recs, err := b.GetAll(ctx, ns)
		if err != nil || len(recs) != 2 {
			t.Fatalf("%s get all: %v len=%d", ns, err, len(recs))
		}
		if recs[0].ID != id1 || recs[1].ID != id2 {
			t.Fatalf("%s: records not ordered by id: %+v", ns, recs)
		}

		if err := b.Put(ctx, ns, id1, []byte(`{"name":"updated"}`)); err != nil {
			t.Fatalf("%s put: %v", ns, err)
		}
		recs, _ = b.GetAll(ctx, ns)
		if name(recs[0].Data) != "updated" {
			t.Fatalf("%s: expected updated record, got %s", ns, recs[0].Data)
		}

		if err := b.Put(ctx, ns, 9999, []byte(`{}`)); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound on put of missing id, got %v", ns, err)
		}

		if err := b.Delete(ctx, ns, id1); err != nil {
			t.Fatalf("%s delete: %v", ns, err)
		}
		if err := b.Delete(ctx, ns, id1); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound after delete, got %v", ns, err)
		}
		recs, _ = b.GetAll(ctx, ns)
		if len(recs) != 1 || recs[0].ID != id2 {
			t.Fatalf("%s: expected only record %d left, got %+v", ns, id2, recs)
		}
	}

	if _, err := b.GetAll(ctx, store.Namespace("users")); err == nil {
		t.Fatal("expected error for unknown namespace")
	}
}

// name decodes the name field; backends may reformat the stored JSON.
func name(data []byte) string {
	var doc struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(data, &doc)
	return doc.Name
}
