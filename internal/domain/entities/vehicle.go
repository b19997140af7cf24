package entities

// Vehicle is a simple ownership record. Rides do not reference vehicles.
type Vehicle struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner"`
	Make    string `json:"make"`
	Model   string `json:"model"`
	Plate   string `json:"plate"`
}
