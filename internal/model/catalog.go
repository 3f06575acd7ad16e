package model

import "fmt"

// Currency is the only currency the studio bills in.
const Currency = "eur"

// Offer is a fixed catalog entry.
type Offer struct {
	Kind        PackageKind `json:"kind"`
	Name        string      `json:"name"`
	Sessions    int         `json:"sessions"`
	PriceCents  int64       `json:"price_cents"`
	Description string      `json:"description"`
}

var catalog = []Offer{
	{Kind: KindSingle, Name: "1 heure de cours", Sessions: 1, PriceCents: 9800, Description: "Parfait pour découvrir"},
	{Kind: KindCard5, Name: "Carte 5 heures", Sessions: 5, PriceCents: 45000, Description: "Idéal pour pratiquer régulièrement"},
	{Kind: KindCard10, Name: "Carte 10 heures", Sessions: 10, PriceCents: 80000, Description: "Le meilleur rapport qualité-prix"},
}

// Catalog returns the fixed offers. Custom packages have no entry.
func Catalog() []Offer {
	out := make([]Offer, len(catalog))
	copy(out, catalog)
	return out
}

// LookupOffer returns the catalog entry for kind.
func LookupOffer(kind PackageKind) (Offer, bool) {
	for _, o := range catalog {
		if o.Kind == kind {
			return o, true
		}
	}
	return Offer{}, false
}

// SessionsLabel renders the product description shown on the payment page.
func SessionsLabel(sessions int) string {
	if sessions > 1 {
		return fmt.Sprintf("%d heures de cours de yoga", sessions)
	}
	return fmt.Sprintf("%d heure de cours de yoga", sessions)
}
