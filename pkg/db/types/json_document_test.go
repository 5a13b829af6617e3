package dbtypes

import (
	"testing"
)

func TestJSONDocumentValue(t *testing.T) {
	v, err := JSONDocument(`{"a":1}`).Value()
	if err != nil || v != `{"a":1}` {
		t.Fatalf("unexpected value %v err=%v", v, err)
	}
	v, err = JSONDocument(nil).Value()
	if err != nil || v != "{}" {
		t.Fatalf("expected empty object, got %v err=%v", v, err)
	}
	if _, err := JSONDocument(`{broken`).Value(); err == nil {
		t.Fatal("expected invalid json error")
	}
}

func TestJSONDocumentScan(t *testing.T) {
	var doc JSONDocument
	if err := doc.Scan([]byte(`{"k":"v"}`)); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if string(doc.Raw()) != `{"k":"v"}` {
		t.Fatalf("unexpected doc %s", doc)
	}
	if err := doc.Scan(`{"x":2}`); err != nil || string(doc) != `{"x":2}` {
		t.Fatalf("scan string: %s err=%v", doc, err)
	}
	if err := doc.Scan(nil); err != nil || string(doc.Raw()) != "{}" {
		t.Fatalf("scan nil: %s err=%v", doc, err)
	}
	if err := doc.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
