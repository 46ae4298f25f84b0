// Package mock provides test doubles for the capability provider contracts.
//
// Each mock has function fields for behavior injection and a call counter
// for assertions. Constructors return concrete types so tests can reach
// both; MockProvider aggregates them behind the providers.Provider
// interface.
package mock
