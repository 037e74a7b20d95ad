// Package catalog is the fixed list of services the shop offers.
package catalog

import (
	"strconv"
	"strings"
	"unicode"
)

const DefaultDurationMinutes = 30

type Service struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Price           string `json:"price"`
	PriceValue      int    `json:"price_value"`
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description"`
}

var services = []Service{
	newService("1", "Haircut", "$25", "Professional haircut with styling"),
	newService("2", "Beard Trim", "$15", "Clean up your beard"),
	newService("3", "Hair & Beard", "$35", "Complete haircut and beard trim package"),
	newService("4", "Hair Color", "$45+", "Professional hair coloring service"),
	newService("5", "Kids Cut", "$20", "Haircuts for children under 12"),
}

func newService(id, name, price, description string) Service {
	return Service{
		ID:              id,
		Name:            name,
		Price:           price,
		PriceValue:      PriceValue(price),
		DurationMinutes: DefaultDurationMinutes,
		Description:     description,
	}
}

func All() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

func Lookup(id string) (Service, bool) {
	for _, s := range services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// PriceValue keeps only the digits of a price label: "$45+" is 45.
func PriceValue(label string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, label)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
