package domain

import "time"

// ProviderRecord is the catalog entry shown in search results. Records are
// loaded once from the catalog source and never mutated.
type ProviderRecord struct {
	ID             string   `json:"id" bson:"_id"`
	Name           string   `json:"name" bson:"name"`
	PrimaryService string   `json:"primary_service" bson:"primary_service"`
	PhotoURL       string   `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	Rating         float64  `json:"rating" bson:"rating"`
	RatingCount    int      `json:"rating_count" bson:"rating_count"`
	PriceLabel     string   `json:"price_label" bson:"price_label"`
	Location       string   `json:"location" bson:"location"`
	Tags           []string `json:"tags" bson:"tags"`
	Available      bool     `json:"available" bson:"available"`
}

// OfferedService is one priced service listed on a provider page.
type OfferedService struct {
	ID          string `json:"id,omitempty" bson:"id,omitempty"`
	Name        string `json:"name" bson:"name"`
	Price       string `json:"price" bson:"price"`
	Description string `json:"description" bson:"description"`
}

// Review is a client's rating of a provider.
type Review struct {
	ID      int       `json:"id" bson:"id"`
	Client  string    `json:"client" bson:"client"`
	Rating  int       `json:"rating" bson:"rating"`
	Comment string    `json:"comment" bson:"comment"`
	Date    time.Time `json:"date" bson:"date"`
}

// DayAvailability lists the bookable slots of one weekday.
type DayAvailability struct {
	Day   string   `json:"day" bson:"day"`
	Slots []string `json:"slots" bson:"slots"`
}

// ProviderDetails is the full provider page.
type ProviderDetails struct {
	ProviderRecord `bson:",inline"`
	Phone          string            `json:"phone,omitempty" bson:"phone,omitempty"`
	Email          string            `json:"email,omitempty" bson:"email,omitempty"`
	Description    string            `json:"description" bson:"description"`
	Services       []OfferedService  `json:"services" bson:"services"`
	Reviews        []Review          `json:"reviews" bson:"reviews"`
	Availability   []DayAvailability `json:"availability" bson:"availability"`
	Certifications []string          `json:"certifications" bson:"certifications"`
	CoverageArea   string            `json:"coverage_area,omitempty" bson:"coverage_area,omitempty"`
}

// DetailsFromRecord builds a minimal provider page for a record that has no
// extended details in the catalog.
func DetailsFromRecord(r ProviderRecord) ProviderDetails {
	services := make([]OfferedService, 0, len(r.Tags))
	for _, tag := range r.Tags {
		services = append(services, OfferedService{Name: tag, Price: "A combinar"})
	}
	return ProviderDetails{
		ProviderRecord: r,
		Services:       services,
		Reviews:        []Review{},
		Availability:   []DayAvailability{},
		Certifications: []string{},
	}
}

// ServiceRequest is a client's request for a provider's service.
type ServiceRequest struct {
	ID             string    `json:"id" bson:"_id"`
	ClientID       string    `json:"client_id" bson:"client_id"`
	ProviderID     string    `json:"provider_id" bson:"provider_id"`
	Description    string    `json:"description" bson:"description"`
	DesiredTime    time.Time `json:"desired_time" bson:"desired_time"`
	ProposedAmount float64   `json:"proposed_amount" bson:"proposed_amount"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// ProviderProfile is the editable profile of a provider account.
type ProviderProfile struct {
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	Description  string           `json:"description"`
	City         string           `json:"city"`
	State        string           `json:"state"`
	Availability string           `json:"availability"`
	Services     []OfferedService `json:"services"`
}
