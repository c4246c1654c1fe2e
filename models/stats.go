package models

// CategoryStat is one row of the order statistics aggregation.
type CategoryStat struct {
	Category string  `bson:"category" json:"category"`
	Count    int64   `bson:"count" json:"count"`
	Total    float64 `bson:"total" json:"total"`
}

type AdminStats struct {
	Users    int64   `json:"users"`
	Products int64   `json:"products"`
	Orders   int64   `json:"orders"`
	Revenue  float64 `json:"revenue"`
}
