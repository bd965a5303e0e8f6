package models

// Reservation is a booking of a location for one day.
type Reservation struct {
	ID              int64     `json:"id"`
	OrderNumber     string    `json:"order_number"`
	CustomerName    string    `json:"customer_name"`
	PhoneNumber     string    `json:"phone_number"`
	Address         string    `json:"address"`
	ReservationDate string    `json:"reservation_date"`
	Note            string    `json:"note,omitempty"`
	LocationID      int64     `json:"location_id"`
	Location        *Location `json:"location,omitempty"`
}

// LocationName resolves the embedded location label, "-" when missing.
func (r *Reservation) LocationName() string {
	if r == nil || r.Location == nil {
		return "-"
	}
	if name := r.Location.DisplayName(); name != "" {
		return name
	}
	return "-"
}

// ReservationFilter is the admin reservation list query. Date is YYYY-MM-DD.
type ReservationFilter struct {
	Search     string
	Date       string
	LocationID int64
}

// ReservationRequest is the public booking payload.
type ReservationRequest struct {
	LocationID   int64  `json:"location_id"`
	CustomerName string `json:"customer_name"`
	PhoneNumber  string `json:"phone_number"`
	Address      string `json:"address"`
	Date         string `json:"date"`
	Note         string `json:"note,omitempty"`
}

// OrderLookup is the public composite key used to find a reservation.
type OrderLookup struct {
	OrderNumber string `json:"order_number"`
	PhoneNumber string `json:"phone_number"`
}
