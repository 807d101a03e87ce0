package pages

import (
	"net/http"
	"strings"
)

type Destination struct {
	ID          int
	Name        string
	Description string
	Image       string
	Rating      float64
	Price       int
}

var Destinations = []Destination{
	{1, "Paris, France", "The city of love and lights, known for its art, fashion, and culture.", "/destinations/paris.jpg", 4.8, 1200},
	{2, "Kyoto, Japan", "Experience traditional Japanese culture with stunning temples and cherry blossoms.", "/destinations/kyoto.jpg", 4.9, 1800},
	{3, "Santorini, Greece", "White-washed buildings with blue domes overlooking the Aegean Sea.", "/destinations/santorini.jpg", 4.7, 1500},
	{4, "New York, USA", "The city that never sleeps, full of iconic landmarks and vibrant culture.", "/destinations/newyork.jpg", 4.6, 1400},
	{5, "Bali, Indonesia", "Tropical paradise with lush jungles, beaches, and rich culture.", "/destinations/bali.jpg", 4.9, 1300},
	{6, "Cape Town, South Africa", "Stunning landscapes, wildlife, and beautiful beaches at the southern tip of Africa.", "/destinations/capetown.jpg", 4.8, 1600},
}

// SearchDestinations returns the destinations whose name or description
// contains query, ignoring case. An empty query matches everything.
func SearchDestinations(query string) []Destination {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Destinations
	}
	var out []Destination
	for _, d := range Destinations {
		if strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.Description), q) {
			out = append(out, d)
		}
	}
	return out
}

type destinationsView struct {
	Query        string
	Destinations []Destination
}

func destinationsData(r *http.Request) any {
	q := r.URL.Query().Get("q")
	return destinationsView{Query: q, Destinations: SearchDestinations(q)}
}
