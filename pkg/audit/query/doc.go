// Package query validates audit queries and fills in their defaults.
package query
