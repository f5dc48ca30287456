// Package models contains the GORM persistence models. They carry the table
// mapping and column tags so the domain entities stay free of ORM concerns;
// ToDomain and FromDomain convert between the two.
package models
