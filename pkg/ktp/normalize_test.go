package ktp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		raw   string
		want  string
	}{
		{"nik question marks", NIK, " 35010?123456789? ", "3501071234567897"},
		{"nik clean", NIK, "3501071234567897", "3501071234567897"},
		{"rtrw six chars", RTRW, "001002", "001/002"},
		{"rtrw padded six chars", RTRW, "  001002 ", "001/002"},
		{"rtrw other length", RTRW, "0010022", "0010022"},
		{"validity lifetime with noise", BerlakuHingga, "SEUMUR HIDUP ,", "SEUMUR HIDUP"},
		{"validity date", BerlakuHingga, " 17-08-2022 ", "17-08-2022"},
		{"other field only trimmed", Nama, "  BUDI ? SANTOSO ", "BUDI ? SANTOSO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.field, tt.raw))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	samples := map[Field][]string{
		NIK:           {"3501071234567897", "35010?123456789?"},
		RTRW:          {"001002", "001/002", "01/02"},
		BerlakuHingga: {"SEUMUR HIDUP", "17-08-2022", "xSEUMUR HIDUPx"},
		Alamat:        {"JL. MAWAR NO. 5", "  JL. MAWAR  "},
	}
	for f, values := range samples {
		for _, v := range values {
			once := Normalize(f, v)
			assert.Equal(t, once, Normalize(f, once), "%s %q", f, v)
		}
	}
}

func TestSubstitutionTableIsExtensible(t *testing.T) {
	orig := Substitutions[NIK]
	t.Cleanup(func() { Substitutions[NIK] = orig })

	Substitutions[NIK] = append(append([]Substitution{}, orig...), Substitution{From: "O", To: "0"})
	assert.Equal(t, "3175070000000001", Normalize(NIK, "3175O?OOOOOOOOO1"))
}
