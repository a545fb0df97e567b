package models

import "testing"

func TestNormalizeExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{".pdf", "PDF"},
		{"pdf", "PDF"},
		{"XlSx", "XLSX"},
		{" .csv ", "CSV"},
	}
	for _, tt := range tests {
		if got := NormalizeExtension(tt.in); got != tt.want {
			t.Errorf("NormalizeExtension(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyPayload(t *testing.T) {
	d := &Document{Extension: "DOC", SizeBytes: 1}
	d.ApplyPayload("informe anual.XLSX", 2048)

	if d.FileName != "informe anual.XLSX" {
		t.Errorf("FileName = %q", d.FileName)
	}
	if d.SizeBytes != 2048 {
		t.Errorf("SizeBytes = %d, want 2048", d.SizeBytes)
	}
	if d.Extension != "XLSX" {
		t.Errorf("Extension = %q, want XLSX", d.Extension)
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512.0 B"},
		{2560, "2.5 KB"},
		{2621440, "2.5 MB"},
	}
	for _, tt := range tests {
		d := &Document{SizeBytes: tt.bytes}
		if got := d.HumanSize(); got != tt.want {
			t.Errorf("HumanSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestDomainExtensionAllowed(t *testing.T) {
	if !DomainTransparency.ExtensionAllowed(".PDF") {
		t.Error("ExtensionAllowed(.PDF) = false, want true")
	}
	if DomainTransparency.ExtensionAllowed("exe") {
		t.Error("ExtensionAllowed(exe) = true, want false")
	}
}
