// Package infra contains technical adapters such as the SQLite store,
// notification gateways and metrics exporters. These packages should
// depend only on the interfaces defined in the core packages.
package infra
