package models

// CSVHeaders is the column layout shared by manual imports and exports.
var CSVHeaders = []string{
	"url", "title", "description", "price", "bedrooms", "bathrooms", "sqft",
	"has_central_air", "has_offstreet_prk", "has_garage", "has_dishwasher", "pets_allowed",
	"neighborhood", "city", "posted_at",
}
