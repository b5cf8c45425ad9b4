// Package scoring implements the online, constant-memory anomaly
// scoring engine for streams of timestamped directed edges: a
// count-min sketch shared by three variants (NormalCore, RelationalCore
// and FilteringCore) that trade off how much relational and temporal
// context they fold into a single edge's surprise score.
//
// Callers feed edges in non-decreasing timestamp order through Observe
// (integer keys) or ObserveStr (string keys, hashed with HashString)
// and get back a non-negative score; higher means more anomalous.
package scoring
