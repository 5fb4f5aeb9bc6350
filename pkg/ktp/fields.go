package ktp

// Field names a KTP field. The value is the label printed on the card and is
// used as the record key in every output format.
type Field string

const (
	NIK              Field = "NIK"
	Nama             Field = "Nama"
	TempatTglLahir   Field = "Tempat/Tgl Lahir"
	JenisKelamin     Field = "Jenis Kelamin"
	GolonganDarah    Field = "Golongan Darah"
	Alamat           Field = "Alamat"
	RTRW             Field = "RT/RW"
	KelDesa          Field = "Kel/Desa"
	Kecamatan        Field = "Kecamatan"
	Agama            Field = "Agama"
	StatusPerkawinan Field = "Status Perkawinan"
	Pekerjaan        Field = "Pekerjaan"
	Kewarganegaraan  Field = "Kewarganegaraan"
	BerlakuHingga    Field = "Berlaku Hingga"
)

// Schema lists every field in the order they are printed on the card.
// Records iterate in this order.
var Schema = []Field{
	NIK,
	Nama,
	TempatTglLahir,
	JenisKelamin,
	GolonganDarah,
	Alamat,
	RTRW,
	KelDesa,
	Kecamatan,
	Agama,
	StatusPerkawinan,
	Pekerjaan,
	Kewarganegaraan,
	BerlakuHingga,
}

// String returns the card label of the field.
func (f Field) String() string { return string(f) }

// Valid reports whether f is part of the schema.
func (f Field) Valid() bool {
	for _, s := range Schema {
		if s == f {
			return true
		}
	}
	return false
}
