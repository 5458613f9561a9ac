package crm

import "testing"

func TestNormalizeCityName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  são paulo ", "São Paulo"},
		{"CAMPINAS", "Campinas"},
		{"poços de caldas", "Poços De Caldas"},
		{"santa bárbara d'oeste", "Santa Bárbara D'Oeste"},
		{"  ", ""},
		{"rio   de  janeiro", "Rio De Janeiro"},
	}

	for _, tt := range tests {
		if got := NormalizeCityName(tt.in); got != tt.want {
			t.Errorf("NormalizeCityName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeUF(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" sp ", "SP"},
		{"minas", "MI"},
		{"RJ", "RJ"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeUF(tt.in); got != tt.want {
			t.Errorf("NormalizeUF(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTaxID(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"11.222.333/0001-81", "11222333000181", true},
		{"11222333000181", "11222333000181", true},
		{"123", "123", false},
		{"", "", false},
		{"11.222.333/0001-811", "112223330001811", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeTaxID(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeTaxID(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("+55 (19) 99999-0000"); got != "5519999990000" {
		t.Errorf("DigitsOnly = %q", got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail(" User@Example.COM "); got != "user@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
