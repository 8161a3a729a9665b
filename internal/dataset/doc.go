// Package dataset provides the in-memory table model and the file readers
// that load CSV, JSON, and XLSX uploads into it.
//
// A Table holds named columns of typed cells (number, string, datetime, or
// null for missing values). Cell types are inferred on ingest; columns that
// end up with mixed cell types are demoted to categorical so every column
// behaves as a single type downstream. The package also produces the
// per-column missing-value report shown to the user before cleaning.
package dataset
