// Package models contains the GORM persistence models of the sales import
// pipeline. Models convert to and from domain entities with ToDomain and
// FromDomain; the domain packages stay free of storage tags.
package models
