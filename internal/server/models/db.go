// Package models defines the records persisted in the composite-key store and
// the key scheme that multiplexes them in one table.
package models

import "strings"

type EntityType string

const (
	EntityFamily EntityType = "Family"
	EntityUser   EntityType = "User"
	EntityRecipe EntityType = "Recipe"
	EntitySecret EntityType = "Secret"
)

// Key prefixes. The layout is:
//
//	Family       F#<familyId>   FN#<familyName>
//	User         UN#<username>  UN#<username>
//	Recipe       F#<familyId>   R#<recipeId>
//	Private key  S#PEM          S#PRIVATE
//	Public key   S#PEM          S#PUBLIC#<keyId>
const (
	familyPrefix     = "F#"
	familyNamePrefix = "FN#"
	userPrefix       = "UN#"
	recipePrefix     = "R#"

	SecretPK           = "S#PEM"
	PrivateKeySK       = "S#PRIVATE"
	PublicKeySKPrefix  = "S#PUBLIC#"
	RecipeSKPrefix     = recipePrefix
	FamilyNameSKPrefix = familyNamePrefix
)

// NormalizeUsername is applied before every user write and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func FamilyPK(familyID string) string { return familyPrefix + familyID }

func FamilySK(familyName string) string { return familyNamePrefix + familyName }

// UserKey is both partition and sort key of a user record.
func UserKey(username string) string { return userPrefix + NormalizeUsername(username) }

func RecipeSK(recipeID string) string { return recipePrefix + recipeID }

func PublicKeySK(keyID string) string { return PublicKeySKPrefix + keyID }
