package office

import "github.com/evcraddock/courier-site/internal/geo"

var defaultOffices = []Office{
	{
		ID:       "london",
		City:     "London",
		Address:  "12 Wharf Road, London N1 7GR, United Kingdom",
		Location: geo.Coordinate{Lat: 51.5319, Lng: -0.0958},
		Phone:    "+44 20 7031 3000",
		Email:    "london@swiftparcel.example.com",
		Hours:    "Mon-Fri 08:00-19:00, Sat 09:00-14:00",
	},
	{
		ID:       "paris",
		City:     "Paris",
		Address:  "48 Rue de Rivoli, 75004 Paris, France",
		Location: geo.Coordinate{Lat: 48.8575, Lng: 2.3539},
		Phone:    "+33 1 23 45 67 89",
		Email:    "paris@swiftparcel.example.com",
		Hours:    "Lun-Ven 08:30-18:30",
	},
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := NewRegistry(defaultOffices, geo.ServiceRegion)
	if err != nil {
		panic("office: invalid built-in registry: " + err.Error())
	}
	return r
}
