// Package models defines the core domain models for Wayfare.
//
// # Models
//
//   - User: Registered account, identified by email
//   - Trip: A shared trip with a member list; owns expenses and settlements
//   - Expense: A shared cost with payer contributions and per-member shares
//   - Settlement: A recorded payment between two trip members
//
// # Money
//
// All monetary amounts are stored as int64 minor units (cents) in a single
// per-trip settlement currency. Floating point never touches ledger math;
// see the money and ledger packages.
//
// # Design Principles
//
//  1. Relationships are ID strings, never pointers, to avoid circular references
//  2. Timestamps are Unix seconds
//  3. Models carry no behavior beyond trivial helpers; validation lives at the
//     boundary and in the ledger package
package models
