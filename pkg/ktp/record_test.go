package ktp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRecordBuilderPrecedence(t *testing.T) {
	b := newRecordBuilder()
	b.infer(Agama, "ISLAMX")
	b.label(Agama, "ISLAM")
	b.infer(KelDesa, "CIPINANG")
	b.label(Nama, "")

	rec := b.build()
	agama, _ := rec.Get(Agama)
	assert.Equal(t, "ISLAM", agama)
	assert.True(t, rec.Has(KelDesa))
	assert.False(t, rec.Has(Nama))
	assert.Equal(t, 2, rec.Len())
}

func TestRecordMapIsACopy(t *testing.T) {
	b := newRecordBuilder()
	b.label(Nama, "BUDI")
	rec := b.build()

	m := rec.Map()
	m["Nama"] = "CHANGED"
	got, _ := rec.Get(Nama)
	assert.Equal(t, "BUDI", got)
}

func TestRecordMarshalKeepsSchemaOrder(t *testing.T) {
	b := newRecordBuilder()
	b.label(BerlakuHingga, "SEUMUR HIDUP")
	b.label(NIK, "3175047207900001")
	b.label(Nama, "BUDI SANTOSO")
	rec := b.build()

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"NIK":"3175047207900001","Nama":"BUDI SANTOSO","Berlaku Hingga":"SEUMUR HIDUP"}`, string(data))

	out, err := yaml.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, "NIK: \"3175047207900001\"\nNama: BUDI SANTOSO\nBerlaku Hingga: SEUMUR HIDUP\n", string(out))
}

func TestRecordMarshalJSONEscapes(t *testing.T) {
	b := newRecordBuilder()
	b.label(Alamat, `JL. "MAWAR" \ 5`)

	data, err := json.Marshal(b.build())
	require.NoError(t, err)
	assert.Equal(t, `{"Alamat":"JL. \"MAWAR\" \\ 5"}`, string(data))
}

func TestEmptyRecordMarshal(t *testing.T) {
	data, err := json.Marshal(Record{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.Empty(t, Record{}.Fields())
}

func TestFieldValid(t *testing.T) {
	assert.True(t, RTRW.Valid())
	assert.False(t, Field("Provinsi").Valid())
	assert.Len(t, Schema, 14)
}
