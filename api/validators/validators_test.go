package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
)

type sampleRequest struct {
	Name  string       `json:"name" validate:"required,max=10"`
	Items []sampleItem `json:"items" validate:"dive"`
}

type sampleItem struct {
	Kind string `json:"kind" validate:"oneof=a b"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","items":[{"kind":"c"}]}`))
	var dest sampleRequest
	err := DecodeJSONBody(req, &dest)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
	}
	if details["name"] != "is required" {
		t.Fatalf("unexpected name detail %q", details["name"])
	}
	if details["items[0].kind"] != "must be one of: a b" {
		t.Fatalf("unexpected nested detail %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFieldsAndEmptyBody(t *testing.T) {
	var dest sampleRequest
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected unknown field rejection, got %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected empty body rejection, got %v", err)
	}
}

func TestParseQueryDecimals(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?amounts=50,%20100.25,,7", nil)
	values, err := ParseQueryDecimals(req, "amounts")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(values) != 3 || values[1].String() != "100.25" {
		t.Fatalf("unexpected values %v", values)
	}

	req = httptest.NewRequest(http.MethodGet, "/?amounts=abc", nil)
	if _, err := ParseQueryDecimals(req, "amounts"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("tenantId", id.String())
	routeCtx.URLParams.Add("bad", "nope")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	got, err := ParseUUIDParam(req, "tenantId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}
	if _, err := ParseUUIDParam(req, "bad"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseUUIDParam(req, "missing"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello world  ", 5); got != "hello" {
		t.Fatalf("unexpected %q", got)
	}
}
