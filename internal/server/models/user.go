package models

import "time"

// User is an identity record. Password holds "salt$hash".
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"name"`
	FamilyID    string     `json:"familyId"`
	FamilyName  string     `json:"familyName"`
	Password    string     `json:"password"`
	EntityType  EntityType `json:"entityType"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}
