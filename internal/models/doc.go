// Package models defines the core domain models for SplitSmart.
//
// # Current Models
//
//   - Bill: the canonical structured representation of a receipt
//   - BillItem: individual line items on a bill, each assignable to people
//   - PersonSummary: derived per-person cost breakdown (never stored)
//   - ChatMessage: one entry in a session's append-only chat history
//
// Participants are identified by name strings (no user accounts). Two names
// refer to the same person when they are equal after trimming whitespace,
// compared case-insensitively. No fuzzy matching ("Dave" vs "David") is
// performed here; that judgment belongs to the interpretation collaborator.
//
// # Design Principles
//
//  1. **Bill is owned by its session**: components receive copies or
//     propose-a-replacement access, never shared mutable references.
//  2. **Derived data stays derived**: PersonSummary is recomputed on every
//     read and only the calculator package produces it.
//  3. **Soft arithmetic invariants**: subtotal and total originate from lossy
//     receipt extraction, so consistency is checked with a tolerance and
//     reported, never enforced fatally.
package models
