// Package harvest extracts vehicle listings from a fixed-template truck
// dealer site and packages them into per-listing bundles.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, rod/).
package harvest
