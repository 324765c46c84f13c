// Package models defines domain entities and persistence interfaces for kwdl.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs passed between layers
//   - [Cursor] : The next unprocessed line of one title file
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Run] : One processing pass over a title file, with counters and the failed line if any
//
// Persistent entities implement the [Model] interface providing ID, timestamps, and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
