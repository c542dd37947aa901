// Package domain models weather station messages and the measurements
// extracted from them.
//
// # Data Source
//
// Station data arrives as a CSV table with one row per free-text message.
// Two columns are required:
//
//	Weather_station_ID  opaque station identifier, compared only for equality
//	Message             free text, e.g. "Rainfall of 12.5 mm recorded"
//
// Additional columns are ignored. The table is fetched whole at the start of
// each processing run; rows are never reordered.
//
// # Measurement Extraction
//
// A PatternSet is an ordered list of (kind, regexp) pairs. Order is a
// priority order, not a best-match search: the first pattern whose expression
// matches the message wins, even if a later pattern would also match. Each
// expression carries at least one capturing group for the numeric literal;
// an optional trailing group may capture the decimal part and is ignored
// unless it is the first group to participate in the match.
//
//	Rainfall:    (\d+(\.\d+)?)\s?mm
//	Temperature: (\d+(\.\d+)?)\s?C
//
// Messages matching no pattern yield no measurement. That is the normal case
// for chatter rows, not an error. A matched pattern whose capture does not
// parse as a float is reported via [MalformedNumberError]; ExtractAll records
// such rows as having no measurement rather than failing the run.
//
// # Aggregation
//
// ComputeMeans groups extracted rows by (station, kind) and produces a
// station × kind grid of arithmetic means. Combinations never observed are
// absent (nil cells, JSON null), never zero. Units are whatever the pattern
// captured; no normalization is performed.
package domain
