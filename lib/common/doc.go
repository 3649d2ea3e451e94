// Package common contains the configuration and logging shared by the kvds library packages
// and the command line interface.
//
// Key Components:
//
//   - StoreConfig: The base database directory, the engine implementation and the sizes of the
//     process wide iteration pool. ResolveDir derives the directory of a named store, String
//     renders the configuration (including the fixed engine tuning) for the CLI.
//
//   - Logging: CreateLogger returns a zerolog.Logger tagged with a component name. All loggers
//     write through one shared, swappable output so InitLoggers (level and format) and
//     SetOutput (tests) also affect loggers created at package initialization.
//
// Log layout (console format):
//
//	2025-01-02 15:04:05 | DEBUG | store           | opening database name=chain
package common
