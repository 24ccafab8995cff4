// Package core turns contact-list files into dialable, date-grouped records.
//
// This package holds all import logic independent of any transport. The web
// server and the CLI both drive it.
//
// # Pipeline
//
//  1. [Extract] decodes a spreadsheet (CSV or workbook, first sheet) or a
//     .docx document (first table) into a [Table] of string cells.
//  2. [AnalyzeHeaders] proposes a [FieldMapping] from header keywords. The
//     proposal is only a default; callers let the user override it.
//  3. [Normalize] applies a confirmed mapping and yields one [Record] per row,
//     with dates parsed by [ParseDate].
//  4. [SplitPhones] turns a record's phone cell into [PhoneEntry] values at
//     display time.
//
// Date lists and per-day filtering ([AvailableDates], [FilterByDate]) are
// derived from the record batch on every read.
//
// # Sessions
//
// An [Importer] is shared by the process. It bounds concurrent decodes with
// a [DecodeLimiter] and remembers confirmed mappings by header layout. Each
// user gets a [Session], which enforces one import at a time and can save
// and restore its batch through a store.
//
// # Error Handling
//
// Pipeline failures wrap sentinel errors such as [ErrNoTableData]. [MapError]
// turns any error into a [UserMessage] with a support code:
//
//   - FILE001-FILE004: unreadable, empty, oversized or missing files
//   - HDR001, MAP001: header detection and mapping failures
//   - SES001-SES002: session state conflicts
//   - UPL002-UPL005: busy, cancelled or timed out imports
//   - REQ001-REQ002: malformed requests
//   - STO001: persistence failures
package core
