// Package ktp turns raw OCR text of an Indonesian national identity card (KTP)
// into a structured record of named fields.
//
// The package is a pure text-to-record transform. It performs no I/O, keeps no
// state between calls and is safe for concurrent use. It tolerates the noise
// Tesseract typically produces on KTP scans: dropped separators, misread
// characters, merged lines and drifting label spelling.
//
// Extraction runs in one pass over the input lines:
//
// - Label matching: every line is tested against an ordered table of label
// rules; the first rule that matches owns the line.
// - Value normalization: every captured value is cleaned with per-field rules
// and named substitution tables (e.g. '?' read instead of '7' in the NIK).
// - Positional fallback: the five lines following the RT/RW line are assigned
// to Kel/Desa, Kecamatan, Agama, Status Perkawinan and Pekerjaan by offset,
// since OCR often loses the labels of those lines.
// - Assembly: label-matched values always win over positional guesses.
//
// Fields that cannot be found are absent from the record; absence is never an
// error.
//
// Main Functions:
//
// - Extract: Extracts a Record from OCR text
// - Rules: Returns the ordered label rule table
// - Normalize: Applies the per-field cleanup rules to a raw value
package ktp
