package domain

import "strconv"

// Stable identifier assigned to a City by the geo resolver.
type CityID int64

func (id CityID) String() string { return strconv.FormatInt(int64(id), 10) }

// Represents a resolved place offers can depart from or arrive at.
// Cities are created once by the geo resolver and are referenced, never owned, by offers.
type City struct {
	ID          CityID
	Name        string
	CountryCode string
	Location    Coordinates
}
