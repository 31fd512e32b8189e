package models

// Circular is a regulatory or internal notice shown to crew.
type Circular struct {
	ID         int    `json:"id"`
	Title      string `json:"name"`
	IssuedOn   string `json:"issued_on,omitempty"`
	ExpiryDate string `json:"expiry,omitempty"`
	Details    string `json:"details,omitempty"`
}

type CircularSet struct {
	Regulatory []Circular `json:"regulatory"`
	Internal   []Circular `json:"internal"`
}

type AircraftDocument struct {
	ID      int    `json:"id"`
	Title   string `json:"name"`
	Details string `json:"details"`
}
