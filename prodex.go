// Package prodex extracts structured product records from e-commerce
// product pages by running several extraction strategies of different
// cost, validating them against an expensive oracle once per domain, and
// reconciling their partial results into one canonical Product.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, rod/, gemini/), and the
// extraction engine lives in extract/.
package prodex
