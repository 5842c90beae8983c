// Package main provides the entry point of MarketOps-Admin.
// It runs a fiber based JSON API where admins maintain typed setting definitions and
// market owners override them per branch. Data is kept with gorm in mysql, postgres or sqlite.
package main
