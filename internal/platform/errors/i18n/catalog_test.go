package i18n

import "testing"

func TestGetCatalogResolvesLocale(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}

	tests := []struct {
		requested string
		want      string
	}{
		{requested: "", want: "en-US"},
		{requested: "missing-locale", want: "en-US"},
		{requested: "pt-BR", want: "pt-BR"},
		{requested: "pt", want: "pt-BR"},
		{requested: "en", want: "en-US"},
	}
	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			if got := GetCatalog(tt.requested).Locale(); got != tt.want {
				t.Fatalf("locale = %q, want %q", got, tt.want)
			}
		})
	}

	if GetCatalog("missing-locale") != base {
		t.Fatal("expected fallback to the shared en-US catalog")
	}
}

func TestBuiltinCatalogsCoverSameCodes(t *testing.T) {
	for code := range enUS {
		if _, ok := ptBR[code]; !ok {
			t.Fatalf("pt-BR missing %s", code)
		}
	}
	if len(enUS) != len(ptBR) {
		t.Fatalf("catalog sizes differ: en-US %d, pt-BR %d", len(enUS), len(ptBR))
	}
}

func TestFormatBuiltinMessage(t *testing.T) {
	got := GetCatalog("en-US").Format(ConditionSamplingExhausted, map[string]string{
		"Table":    "Loot",
		"Attempts": "10,000",
	})
	want := "No result was drawn from table Loot after 10,000 attempts."
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestNumberUsesLocaleGrouping(t *testing.T) {
	if got := GetCatalog("en-US").Number(10000); got != "10,000" {
		t.Fatalf("en-US Number = %q", got)
	}
	if got := GetCatalog("pt-BR").Number(10000); got != "10.000" {
		t.Fatalf("pt-BR Number = %q", got)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestFormatTemplateExecutionErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ call .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ call .Name }}" {
		t.Fatal("expected template fallback on execute error")
	}
}

func TestRegisterCatalog(t *testing.T) {
	custom := NewCatalog("custom", map[Code]string{"code": "ok"})
	RegisterCatalog("custom", custom)
	if got := GetCatalog("custom"); got != custom {
		t.Fatal("expected registered catalog")
	}
}

func TestSupportedLocales(t *testing.T) {
	got := SupportedLocales()
	if len(got) != 2 || got[0] != "en-US" || got[1] != "pt-BR" {
		t.Fatalf("SupportedLocales = %v", got)
	}
}

func TestAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: "en-US"},
		{header: "pt-BR,pt;q=0.9,en;q=0.8", want: "pt-BR"},
		{header: "pt", want: "pt-BR"},
		{header: "en-GB", want: "en-US"},
		{header: "ja", want: "en-US"},
		{header: ";;;", want: "en-US"},
	}
	for _, tt := range tests {
		if got := AcceptLanguage(tt.header); got != tt.want {
			t.Fatalf("AcceptLanguage(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
