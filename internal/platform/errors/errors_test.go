package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := WithMetadata(CodeTableNotFound, "table missing", map[string]string{"TableID": "t1"})
	wrapped := fmt.Errorf("draw: %w", err)

	if !stderrors.Is(wrapped, New(CodeTableNotFound, "other message")) {
		t.Fatal("expected code match through wrapping")
	}
	if stderrors.Is(wrapped, New(CodePackNotFound, "table missing")) {
		t.Fatal("expected different codes not to match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "save table", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "save table: disk full" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(fmt.Errorf("x: %w", New(CodePackReadOnly, "ro"))); got != CodePackReadOnly {
		t.Fatalf("GetCode = %s", got)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("GetCode plain = %s", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeTableInvalid, http.StatusBadRequest},
		{CodeFilterInvalid, http.StatusBadRequest},
		{CodeTableNotFound, http.StatusNotFound},
		{CodePackNotFound, http.StatusNotFound},
		{CodePackReadOnly, http.StatusConflict},
		{CodeTableRecursionLimit, http.StatusUnprocessableEntity},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Fatalf("%s.HTTPStatus() = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestLocalizedMessage(t *testing.T) {
	err := WithMetadata(CodeTableRecursionLimit, "too deep", map[string]string{"TableID": "hoard", "MaxDepth": "5"})
	got := LocalizedMessage(err, "en-US")
	want := "Table hoard nests other tables deeper than 5 levels."
	if got != want {
		t.Fatalf("LocalizedMessage = %q, want %q", got, want)
	}
	if got := LocalizedMessage(stderrors.New("boom"), "pt-BR"); got != "Ocorreu um erro inesperado." {
		t.Fatalf("LocalizedMessage unknown = %q", got)
	}
}
