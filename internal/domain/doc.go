// Package domain models the three record kinds served by the hazemap API and
// the rules that turn raw client payloads into stored records.
//
// # Record kinds
//
// Every record belongs to exactly one kind, which selects its validation
// rules, storage collection, and read-filter policy:
//
//	sensor   → sensorData       hardware smoke/temperature readings
//	citizen  → citizenReports   reports submitted by people through the map
//	pre      → preReports       pre-burn notifications with a validity window
//
// Collections are append-only: records are created once, never updated, and
// removed only by the bulk erase operation.
//
// # Timestamps
//
// Two timestamps with different trust levels coexist on every record:
//
//	time / startDate / endDate   client-supplied epoch milliseconds, the
//	                             application-semantic event time
//	createdAt                    stamped by the store gateway at insert,
//	                             never accepted from the client
//
// Sensor firmware frequently ships without a reliable RTC, so a missing or
// non-numeric "time" defaults to the ingestion wall clock rather than being
// rejected. All other numeric fields must parse; malformed values fail
// validation instead of silently becoming NaN.
//
// # Visibility windows
//
// Default reads serve only "live" hazard signals: sensor and citizen records
// within a trailing 24-hour window on their event time, and pre-reports whose
// end date has not yet passed. See [ActiveFilter].
package domain
