// Package reference holds the static circulars and aircraft document index
// shown to signed-in crew.
package reference

import "github.com/Nathansuares/SkySafe/models"

var circulars = models.CircularSet{
	Regulatory: []models.Circular{
		{ID: 1, Title: "Aircraft Safety Main", IssuedOn: "17 Jan 2003", ExpiryDate: "Nill"},
		{ID: 2, Title: "VISA Regulations India", IssuedOn: "17 Jan 2013", ExpiryDate: "16 Dec 2023"},
		{ID: 3, Title: "Main Safety Circular", IssuedOn: "11 Dec 2012", ExpiryDate: "Nill", Details: "Bangalore issue"},
	},
	Internal: []models.Circular{
		{ID: 1, Title: "Company Circular SOP", Details: "Filler text"},
		{ID: 2, Title: "Aircraft Circular VT CFD", Details: "Filler text"},
		{ID: 3, Title: "Aircraft Circular VT SDY", Details: "Filler text"},
	},
}

var aircraftDocuments = []models.AircraftDocument{
	{ID: 1, Title: "Company SOP", Details: "Filler text"},
	{ID: 2, Title: "Aircraft VT CFD", Details: "Filler text"},
	{ID: 3, Title: "Aircraft VT SDY", Details: "Filler text"},
}

// Circulars returns a copy callers are free to modify.
func Circulars() models.CircularSet {
	return models.CircularSet{
		Regulatory: append([]models.Circular(nil), circulars.Regulatory...),
		Internal:   append([]models.Circular(nil), circulars.Internal...),
	}
}

func AircraftDocuments() []models.AircraftDocument {
	return append([]models.AircraftDocument(nil), aircraftDocuments...)
}
