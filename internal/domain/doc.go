// Package domain contains the core entities of the application: users,
// decks, cards, and per-card review state. Domain objects validate
// themselves and carry no persistence or transport concerns; those live in
// the store and api layers respectively.
package domain
