package models

import "time"

type Recipe struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Author      string     `json:"author"`
	FamilyID    string     `json:"familyId"`
	FamilyName  string     `json:"familyName"`
	Preparation string     `json:"preparation"`
	Ingredients string     `json:"ingredients,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	EntityType  EntityType `json:"entityType"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
